package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommandContext describes who invoked a command and where.
type CommandContext struct {
	InvocationID string
	GuildID      string
	ChannelID    string
	AuthorID     string
	AuthorName   string
	Prefix       string
	Message      string
	Timestamp    time.Time
}

func NewCommandContext(guildID, channelID, authorID, authorName, prefix, message string) *CommandContext {
	return &CommandContext{
		InvocationID: uuid.NewString(),
		GuildID:      guildID,
		ChannelID:    channelID,
		AuthorID:     authorID,
		AuthorName:   authorName,
		Prefix:       prefix,
		Message:      message,
		Timestamp:    time.Now(),
	}
}
