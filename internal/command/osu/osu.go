package osu

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kapu/lolbot-go/internal/command"
	"github.com/kapu/lolbot-go/internal/constants"
	"github.com/kapu/lolbot-go/internal/domain"
	"github.com/kapu/lolbot-go/internal/service/upstream"
	"github.com/kapu/lolbot-go/pkg/errors"
	"github.com/tidwall/gjson"
)

const userDoc = `Returns information on a osu! player.
If the player name you are searching has spaces, use quotation marks.
e.g. osu user "player name with spaces"

By default this command defaults to osu!standard.
To use osu!standard, leave mode blank, or use 'standard', 'osu!standard', 'osu!' or 0.
To use osu!catch, use 'catch', 'osu!catch', 'ctb', 'catchthebeat' or 1.
To use osu!taiko, use 'taiko', 'osu!taiko', or 2.
To use osu!mania, use 'mania', 'osu!mania', or 3.
Any other mode is rejected.`

type Dependencies struct {
	Client upstream.Fetcher
	// APIKey is the osu! api credential. Empty disables lookups.
	APIKey  string
	BaseURL string
	Prefix  string
}

type Module struct {
	client  upstream.Fetcher
	apiKey  string
	baseURL string
	prefix  string
	group   *command.Group
}

func Setup(deps Dependencies) *Module {
	m := &Module{
		client:  deps.Client,
		apiKey:  strings.TrimSpace(deps.APIKey),
		baseURL: strings.TrimRight(deps.BaseURL, "/"),
		prefix:  deps.Prefix,
	}
	if m.baseURL == "" {
		m.baseURL = constants.OsuConfig.APIBaseURL
	}

	m.group = command.NewGroup(
		command.Func{CommandName: "osu", Doc: "Commands for osu!", Run: m.help},
		&command.Func{
			CommandName: "user",
			Doc:         userDoc,
			Args: []command.Param{
				// Not Required: a missing key must win over a missing name.
				{Name: "user"},
				{Name: "mode"},
			},
			Run: m.user,
		},
	)
	return m
}

func (m *Module) Name() string {
	return "Osu"
}

func (m *Module) Commands() []command.Command {
	return []command.Command{m.group}
}

// Configured reports whether an api key was provided.
func (m *Module) Configured() bool {
	return m.apiKey != ""
}

func (m *Module) prefixFor(cmdCtx *domain.CommandContext) string {
	if cmdCtx != nil && cmdCtx.Prefix != "" {
		return cmdCtx.Prefix
	}
	return m.prefix
}

func (m *Module) help(_ context.Context, cmdCtx *domain.CommandContext, _ []string) domain.Result {
	prefix := m.prefixFor(cmdCtx)
	return domain.Success(domain.Message{
		Title: "Commands for osu!",
		Fields: []domain.Field{
			{Name: "user", Value: fmt.Sprintf("Gets info on osu! players. `%sosu user *user*`", prefix)},
		},
	})
}

func (m *Module) user(ctx context.Context, cmdCtx *domain.CommandContext, args []string) domain.Result {
	if !m.Configured() {
		return domain.Fail(errors.NewConfigMissing("osu! api key not configured"))
	}

	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	modeArg, given := "", len(args) > 1
	if given {
		modeArg = args[1]
	}
	mode := NormalizeMode(modeArg, given)
	if !mode.IsValid() {
		return domain.Fail(errors.NewInvalidArgument("Unknown mode"))
	}
	if name == "" {
		return domain.Fail(errors.NewInvalidArgument(fmt.Sprintf(
			"Missing argument `user`. Usage: `%sosu user <user> [mode]`", m.prefixFor(cmdCtx))))
	}

	stats, err := m.lookup(ctx, name, mode)
	if err != nil {
		f, _ := errors.AsFailure(err)
		return domain.Fail(f)
	}
	return domain.Success(statsMessage(name, stats))
}

func (m *Module) lookup(ctx context.Context, name string, mode domain.OsuMode) (*domain.PlayerStats, error) {
	q := url.Values{}
	q.Set("k", m.apiKey)
	q.Set("u", name)
	q.Set("m", mode.APIValue())
	q.Set("type", "string")

	payload, err := m.client.Fetch(ctx, upstream.Request{
		URL:    m.baseURL + "/get_user?" + q.Encode(),
		Format: upstream.FormatJSON,
	})
	if err != nil {
		f, ok := errors.AsFailure(err)
		if !ok {
			f = errors.NewFailure(errors.KindUpstreamUnavailable, "").WithCause(err)
		}
		return nil, translate(f)
	}

	root := payload.Root()
	if !root.IsArray() {
		return nil, errors.NewFailure(errors.KindUpstreamMalformed, "The osu! api sent something I couldn't read.").
			WithStatus(payload.Status)
	}
	users := root.Array()
	if len(users) == 0 {
		return nil, errors.NewNotFound("User does not exist, maybe try one that does")
	}
	return parseStats(users[0]), nil
}

func translate(f *errors.Failure) *errors.Failure {
	detail := "The osu! api sent something I couldn't read."
	if f.Kind == errors.KindUpstreamUnavailable {
		if f.Status != 0 {
			detail = fmt.Sprintf("The osu! api is unavailable right now. (HTTP code `%d`)", f.Status)
		} else {
			detail = "The osu! api is unavailable right now."
		}
	}
	return &errors.Failure{Kind: f.Kind, Detail: detail, Status: f.Status, Cause: f}
}

func parseStats(u gjson.Result) *domain.PlayerStats {
	return &domain.PlayerStats{
		UserID:      u.Get("user_id").String(),
		Username:    u.Get("username").String(),
		Country:     u.Get("country").String(),
		Count300:    u.Get("count300").Int(),
		Count100:    u.Get("count100").Int(),
		Count50:     u.Get("count50").Int(),
		PlayCount:   u.Get("playcount").Int(),
		RankedScore: u.Get("ranked_score").Int(),
		TotalScore:  u.Get("total_score").Int(),
		GlobalRank:  u.Get("pp_rank").Int(),
		CountryRank: u.Get("pp_country_rank").Int(),
		Level:       u.Get("level").Float(),
		TotalPP:     u.Get("pp_raw").Float(),
		Accuracy:    u.Get("accuracy").Float(),
		SSCount:     u.Get("count_rank_ss").Int(),
		SCount:      u.Get("count_rank_s").Int(),
		ACount:      u.Get("count_rank_a").Int(),
	}
}

func statsMessage(name string, s *domain.PlayerStats) domain.Message {
	return domain.Message{
		Title: "osu! stats",
		Author: &domain.Author{
			Name:    fmt.Sprintf("%s (%s)", name, s.Country),
			IconURL: fmt.Sprintf(constants.OsuConfig.FlagURL, s.Country),
		},
		Attachments: []domain.Attachment{
			{URL: fmt.Sprintf(constants.OsuConfig.AvatarURL, s.UserID)},
		},
		Fields: []domain.Field{
			{Name: "User ID", Value: s.UserID, Inline: true},
			{Name: "Hits (300 score)", Value: itoa(s.Count300), Inline: true},
			{Name: "Hits (100 score)", Value: itoa(s.Count100), Inline: true},
			{Name: "Hits (50 score)", Value: itoa(s.Count50), Inline: true},
			{Name: "Play count", Value: itoa(s.PlayCount), Inline: true},
			{Name: "Ranked score", Value: itoa(s.RankedScore), Inline: true},
			{Name: "Total score", Value: itoa(s.TotalScore), Inline: true},
			{Name: "Global rank", Value: "#" + itoa(s.GlobalRank), Inline: true},
			{Name: "Country rank", Value: "#" + itoa(s.CountryRank), Inline: true},
			{Name: "Level", Value: trimFloat(s.Level), Inline: true},
			{Name: "Total PP", Value: trimFloat(s.TotalPP), Inline: true},
			{Name: "Accuracy", Value: fmt.Sprintf("%.1f%%", s.Accuracy), Inline: true},
			{Name: "Total SS plays", Value: itoa(s.SSCount), Inline: true},
			{Name: "Total S plays", Value: itoa(s.SCount), Inline: true},
			{Name: "Total A plays", Value: itoa(s.ACount), Inline: true},
		},
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
