package adapter

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/kapu/lolbot-go/internal/constants"
	"github.com/kapu/lolbot-go/internal/domain"
	"github.com/kapu/lolbot-go/internal/util"
)

// ResponseFormatter renders command results as Discord messages
type ResponseFormatter struct {
	color int
}

// NewResponseFormatter creates a new ResponseFormatter
func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{color: constants.EmbedColor}
}

// Format converts a result into a message to send. It returns nil when there
// is nothing to deliver.
func (f *ResponseFormatter) Format(result domain.Result) *discordgo.MessageSend {
	if result.IsFailure() {
		return f.plain(result.Failure().Detail)
	}

	msg := result.Message()
	if msg == nil {
		return nil
	}
	if msg.IsPlain() {
		if strings.TrimSpace(msg.Text) == "" {
			return nil
		}
		return f.plain(msg.Text)
	}

	return &discordgo.MessageSend{
		Embeds:          f.embeds(msg),
		AllowedMentions: noMentions(),
	}
}

func (f *ResponseFormatter) plain(text string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:         util.TruncateString(text, constants.StringLimits.MessageContent-3),
		AllowedMentions: noMentions(),
	}
}

func (f *ResponseFormatter) embeds(msg *domain.Message) []*discordgo.MessageEmbed {
	first := &discordgo.MessageEmbed{
		Title:       util.TruncateString(msg.Title, constants.StringLimits.EmbedTitle-3),
		Description: util.TruncateString(msg.Text, constants.StringLimits.EmbedDescription-3),
		Color:       f.color,
	}

	if msg.Author != nil {
		first.Author = &discordgo.MessageEmbedAuthor{
			Name:    util.TruncateString(msg.Author.Name, constants.StringLimits.EmbedTitle-3),
			IconURL: msg.Author.IconURL,
		}
	}

	fields := msg.Fields
	if len(fields) > constants.StringLimits.MaxEmbedFields {
		fields = fields[:constants.StringLimits.MaxEmbedFields]
	}
	for _, field := range fields {
		first.Fields = append(first.Fields, &discordgo.MessageEmbedField{
			Name:   orPlaceholder(util.TruncateString(field.Name, constants.StringLimits.EmbedFieldName-3)),
			Value:  orPlaceholder(util.TruncateString(field.Value, constants.StringLimits.EmbedFieldValue-3)),
			Inline: field.Inline,
		})
	}

	embeds := []*discordgo.MessageEmbed{first}
	for i, att := range msg.Attachments {
		target := first
		if i > 0 {
			target = &discordgo.MessageEmbed{Color: f.color}
			embeds = append(embeds, target)
		}
		target.Image = &discordgo.MessageEmbedImage{URL: att.URL}
		if att.Caption != "" {
			target.Footer = &discordgo.MessageEmbedFooter{
				Text: util.TruncateString(att.Caption, constants.StringLimits.EmbedFooter-3),
			}
		}
	}
	return embeds
}

// Discord rejects embed fields with an empty name or value.
func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "\u200b"
	}
	return s
}

// Echoed user text (8ball questions, player names) must not ping anyone.
func noMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
}
