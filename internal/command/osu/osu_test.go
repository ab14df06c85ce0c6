package osu

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/kapu/lolbot-go/internal/command"
	"github.com/kapu/lolbot-go/internal/domain"
	"github.com/kapu/lolbot-go/internal/service/upstream"
	"github.com/kapu/lolbot-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playerJSON = `[{
	"user_id": "124493",
	"username": "Cookiezi",
	"count300": "21049890",
	"count100": "1021540",
	"count50": "86120",
	"playcount": "102123",
	"ranked_score": "46820394829",
	"total_score": "152030420381",
	"pp_rank": "12",
	"level": "101.234",
	"pp_raw": "13870.5",
	"accuracy": "98.93411254882812",
	"count_rank_ss": "108",
	"count_rank_s": "1340",
	"count_rank_a": "702",
	"country": "KR",
	"pp_country_rank": "3"
}]`

type countingFetcher struct {
	calls    int
	status   int
	body     string
	failure  *errors.Failure
	requests []upstream.Request
}

func (f *countingFetcher) Fetch(_ context.Context, req upstream.Request) (*upstream.Payload, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.failure != nil {
		return nil, f.failure
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return upstream.NewPayload(status, []byte(f.body)), nil
}

func newModule(fetcher upstream.Fetcher, key string) *Module {
	return Setup(Dependencies{Client: fetcher, APIKey: key, Prefix: "^"})
}

func userCommand(t *testing.T, m *Module) command.Command {
	t.Helper()
	group, ok := m.Commands()[0].(command.Parent)
	require.True(t, ok)
	sub, ok := group.Subcommand("user")
	require.True(t, ok)
	return sub
}

func cmdCtx() *domain.CommandContext {
	return domain.NewCommandContext("g", "c", "1", "Ayaka", "^", "")
}

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		arg  string
		want domain.OsuMode
	}{
		{"0", domain.OsuModeStandard},
		{"standard", domain.OsuModeStandard},
		{"osu!standard", domain.OsuModeStandard},
		{"osu!", domain.OsuModeStandard},
		{"1", domain.OsuModeCatch},
		{"ctb", domain.OsuModeCatch},
		{"catchthebeat", domain.OsuModeCatch},
		{"osu!catch", domain.OsuModeCatch},
		{"catch", domain.OsuModeCatch},
		{"2", domain.OsuModeTaiko},
		{"taiko", domain.OsuModeTaiko},
		{"osu!taiko", domain.OsuModeTaiko},
		{"3", domain.OsuModeMania},
		{"mania", domain.OsuModeMania},
		{"osu!mania", domain.OsuModeMania},
		{"  Osu!Mania ", domain.OsuModeMania},
		{"foo", domain.OsuModeUnknown},
		{"4", domain.OsuModeUnknown},
		{"", domain.OsuModeUnknown},
		{"-1", domain.OsuModeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeMode(tt.arg, true), "mode %q", tt.arg)
	}
	assert.Equal(t, domain.OsuModeStandard, NormalizeMode("", false))
}

func TestUserUnknownModeMakesNoCall(t *testing.T) {
	fetcher := &countingFetcher{body: playerJSON}
	r := userCommand(t, newModule(fetcher, "key")).Execute(context.Background(), cmdCtx(), []string{"Cookiezi", "foo"})

	require.True(t, r.IsFailure())
	assert.Equal(t, errors.KindInvalidArgument, r.Failure().Kind)
	assert.Equal(t, "Unknown mode", r.Failure().Detail)
	assert.Zero(t, fetcher.calls)
}

func TestUserWithoutKeyMakesNoCall(t *testing.T) {
	argSets := [][]string{nil, {"Cookiezi"}, {"Cookiezi", "mania"}, {"Cookiezi", "foo"}, {""}}
	for _, args := range argSets {
		fetcher := &countingFetcher{body: playerJSON}
		r := userCommand(t, newModule(fetcher, "  ")).Execute(context.Background(), cmdCtx(), args)

		require.True(t, r.IsFailure())
		assert.Equal(t, errors.KindConfigMissing, r.Failure().Kind)
		assert.Equal(t, "osu! api key not configured", r.Failure().Detail)
		assert.Zero(t, fetcher.calls)
	}
}

func TestUserWithoutKeyThroughRegistry(t *testing.T) {
	fetcher := &countingFetcher{}
	registry := command.NewRegistry()
	require.NoError(t, registry.AddModule(newModule(fetcher, "")))

	r, found := registry.Dispatch(context.Background(), cmdCtx(), []string{"osu", "user"})
	require.True(t, found)
	require.True(t, r.IsFailure())
	assert.Equal(t, errors.KindConfigMissing, r.Failure().Kind)
	assert.Zero(t, fetcher.calls)
}

func TestUserMissingName(t *testing.T) {
	fetcher := &countingFetcher{}
	r := userCommand(t, newModule(fetcher, "key")).Execute(context.Background(), cmdCtx(), nil)

	require.True(t, r.IsFailure())
	assert.Equal(t, errors.KindInvalidArgument, r.Failure().Kind)
	assert.Contains(t, r.Failure().Detail, "^osu user <user> [mode]")
	assert.Zero(t, fetcher.calls)
}

func TestUserRequest(t *testing.T) {
	fetcher := &countingFetcher{body: playerJSON}
	m := Setup(Dependencies{Client: fetcher, APIKey: "key", BaseURL: "http://osu.test/api/"})
	r := userCommand(t, m).Execute(context.Background(), cmdCtx(), []string{"player name", "ctb"})

	require.False(t, r.IsFailure())
	require.Equal(t, 1, fetcher.calls)

	u, err := url.Parse(fetcher.requests[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "/api/get_user", u.Path)
	assert.Equal(t, "key", u.Query().Get("k"))
	assert.Equal(t, "player name", u.Query().Get("u"))
	assert.Equal(t, "2", u.Query().Get("m"))
	assert.Equal(t, "string", u.Query().Get("type"))
	assert.Equal(t, upstream.FormatJSON, fetcher.requests[0].Format)
}

func TestUserDefaultsToStandard(t *testing.T) {
	fetcher := &countingFetcher{body: playerJSON}
	userCommand(t, newModule(fetcher, "key")).Execute(context.Background(), cmdCtx(), []string{"Cookiezi"})

	require.Equal(t, 1, fetcher.calls)
	u, err := url.Parse(fetcher.requests[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "0", u.Query().Get("m"))
}

func TestUserStatsEmbed(t *testing.T) {
	r := userCommand(t, newModule(&countingFetcher{body: playerJSON}, "key")).
		Execute(context.Background(), cmdCtx(), []string{"cookiezi"})

	require.False(t, r.IsFailure())
	msg := r.Message()
	assert.Equal(t, "osu! stats", msg.Title)
	require.NotNil(t, msg.Author)
	assert.Equal(t, "cookiezi (KR)", msg.Author.Name)
	assert.Equal(t, "https://osu.ppy.sh/images/flags/KR.png", msg.Author.IconURL)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "https://a.ppy.sh/124493", msg.Attachments[0].URL)

	var names []string
	values := make(map[string]string)
	for _, f := range msg.Fields {
		names = append(names, f.Name)
		values[f.Name] = f.Value
	}
	assert.Equal(t, []string{
		"User ID", "Hits (300 score)", "Hits (100 score)", "Hits (50 score)", "Play count",
		"Ranked score", "Total score", "Global rank", "Country rank", "Level", "Total PP",
		"Accuracy", "Total SS plays", "Total S plays", "Total A plays",
	}, names)
	assert.Equal(t, "124493", values["User ID"])
	assert.Equal(t, "21049890", values["Hits (300 score)"])
	assert.Equal(t, "#12", values["Global rank"])
	assert.Equal(t, "#3", values["Country rank"])
	assert.Equal(t, "98.9%", values["Accuracy"])
	assert.Equal(t, "13870.50", values["Total PP"])
	assert.Equal(t, "108", values["Total SS plays"])
}

func TestUserNotFound(t *testing.T) {
	fetcher := &countingFetcher{body: `[]`}
	r := userCommand(t, newModule(fetcher, "key")).Execute(context.Background(), cmdCtx(), []string{"nobody"})

	require.True(t, r.IsFailure())
	assert.Equal(t, errors.KindNotFound, r.Failure().Kind)
	assert.Equal(t, "User does not exist, maybe try one that does", r.Failure().Detail)
	assert.Equal(t, 1, fetcher.calls)
}

func TestUserUpstreamFailures(t *testing.T) {
	r := userCommand(t, newModule(&countingFetcher{
		failure: errors.NewFailure(errors.KindUpstreamUnavailable, "HTTP 401").WithStatus(401),
	}, "key")).Execute(context.Background(), cmdCtx(), []string{"x"})
	require.True(t, r.IsFailure())
	assert.Equal(t, errors.KindUpstreamUnavailable, r.Failure().Kind)
	assert.Equal(t, "The osu! api is unavailable right now. (HTTP code `401`)", r.Failure().Detail)

	r = userCommand(t, newModule(&countingFetcher{
		failure: errors.NewFailure(errors.KindUpstreamMalformed, "invalid character"),
	}, "key")).Execute(context.Background(), cmdCtx(), []string{"x"})
	require.True(t, r.IsFailure())
	assert.Equal(t, errors.KindUpstreamMalformed, r.Failure().Kind)
	assert.Equal(t, "The osu! api sent something I couldn't read.", r.Failure().Detail)

	r = userCommand(t, newModule(&countingFetcher{body: `{"error":"Please provide a valid API key."}`}, "key")).
		Execute(context.Background(), cmdCtx(), []string{"x"})
	require.True(t, r.IsFailure())
	assert.Equal(t, errors.KindUpstreamMalformed, r.Failure().Kind)
}

func TestGroupHelp(t *testing.T) {
	registry := command.NewRegistry()
	require.NoError(t, registry.AddModule(newModule(&countingFetcher{}, "")))

	for _, args := range [][]string{{"osu"}, {"OSU", "nope"}} {
		r, found := registry.Dispatch(context.Background(), domain.NewCommandContext("g", "c", "1", "a", "!", ""), args)
		require.True(t, found)
		require.False(t, r.IsFailure())
		assert.Equal(t, "Commands for osu!", r.Message().Title)
		require.Len(t, r.Message().Fields, 1)
		assert.Equal(t, "user", r.Message().Fields[0].Name)
		assert.Equal(t, "Gets info on osu! players. `!osu user *user*`", r.Message().Fields[0].Value)
	}
}
