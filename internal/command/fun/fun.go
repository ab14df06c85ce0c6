package fun

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/kapu/lolbot-go/internal/command"
	"github.com/kapu/lolbot-go/internal/constants"
	"github.com/kapu/lolbot-go/internal/domain"
	"github.com/kapu/lolbot-go/internal/service/upstream"
	"github.com/kapu/lolbot-go/pkg/errors"
)

const httpCatCaption = "If there is no image, it doesn't exist."

var eightBallResponses = []string{
	"It is certain",
	"Outlook good",
	"You may rely on it",
	"Ask again later",
	"Concentrate and ask again",
	"Reply hazy, try again",
	"My reply is no",
	"My sources say no",
}

// Endpoints are the upstream URLs the module talks to.
type Endpoints struct {
	Cat      string
	Dog      string
	DogMedia string
	Neko     string
	Why      string
	HTTPCat  string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Cat:      constants.FunEndpoints.Cat,
		Dog:      constants.FunEndpoints.Dog,
		DogMedia: constants.FunEndpoints.DogMedia,
		Neko:     constants.FunEndpoints.Neko,
		Why:      constants.FunEndpoints.Why,
		HTTPCat:  constants.FunEndpoints.HTTPCat,
	}
}

type Dependencies struct {
	Client    upstream.Fetcher
	Endpoints Endpoints
}

type Module struct {
	client    upstream.Fetcher
	endpoints Endpoints
	commands  []command.Command
}

// Setup builds the Fun module. Empty endpoints fall back to the defaults.
func Setup(deps Dependencies) *Module {
	m := &Module{
		client:    deps.Client,
		endpoints: withDefaults(deps.Endpoints),
	}
	m.commands = []command.Command{
		&command.Func{CommandName: "cat", Doc: "Random cat images. Awww, so cute! Powered by random.cat", Run: m.cat},
		&command.Func{
			CommandName: "httpcat",
			Doc:         "http.cat images",
			Args:        []command.Param{{Name: "http code", Rest: true}},
			Run:         m.httpCat,
		},
		&command.Func{CommandName: "dog", Doc: "Random dogs, by random.dog", Run: m.dog},
		&command.Func{CommandName: "neko", Doc: "Shows a random neko picture", Run: m.neko},
		&command.Func{CommandName: "why", Doc: "Why _____?", Run: m.why},
		&command.Func{CommandName: "k", Doc: "k", Run: m.k},
		&command.Func{
			CommandName: "8ball",
			Doc:         "Ask the magic 8-ball a question",
			Args:        []command.Param{{Name: "question", Rest: true}},
			Run:         m.eightBall,
		},
	}
	return m
}

func (m *Module) Name() string {
	return "Fun"
}

func (m *Module) Commands() []command.Command {
	return m.commands
}

func (m *Module) cat(ctx context.Context, _ *domain.CommandContext, _ []string) domain.Result {
	payload, err := m.client.Fetch(ctx, upstream.Request{URL: m.endpoints.Cat, Format: upstream.FormatJSON})
	if err != nil {
		return fail(err, "I wasn't able to fetch a cat picture. (HTTP code `%s`)")
	}

	file := payload.Get("file").String()
	if file == "" {
		return malformed("I wasn't able to fetch a cat picture. (HTTP code `%s`)", payload.Status, "missing file")
	}
	return image(file, "")
}

func (m *Module) httpCat(_ context.Context, _ *domain.CommandContext, args []string) domain.Result {
	code := ""
	if len(args) > 0 {
		code = strings.TrimSpace(args[0])
	}
	return image(m.endpoints.HTTPCat+code+".jpg", httpCatCaption)
}

func (m *Module) dog(ctx context.Context, _ *domain.CommandContext, _ []string) domain.Result {
	const failText = "Something happened while fetching the picture (HTTP code `%s`)"

	payload, err := m.client.Fetch(ctx, upstream.Request{URL: m.endpoints.Dog, Format: upstream.FormatText})
	if err != nil {
		return fail(err, failText)
	}

	name := strings.TrimSpace(payload.Text())
	if name == "" {
		return malformed(failText, payload.Status, "empty body")
	}

	url := m.endpoints.DogMedia + name
	if strings.Contains(url, ".mp4") {
		return domain.Success(domain.Message{Text: "mp4 file: " + url})
	}
	return image(url, "")
}

func (m *Module) neko(ctx context.Context, _ *domain.CommandContext, _ []string) domain.Result {
	const failText = "Oops. (code `%s`)"

	payload, err := m.client.Fetch(ctx, upstream.Request{URL: m.endpoints.Neko, Format: upstream.FormatJSON})
	if err != nil {
		return fail(err, failText)
	}

	url := payload.Get("url").String()
	if url == "" {
		return malformed(failText, payload.Status, "missing url")
	}
	return image(url, "")
}

func (m *Module) why(ctx context.Context, cmdCtx *domain.CommandContext, _ []string) domain.Result {
	const failText = "I wasn't able to fetch the sentence. (HTTP code `%s`)"

	payload, err := m.client.Fetch(ctx, upstream.Request{URL: m.endpoints.Why, Format: upstream.FormatJSON})
	if err != nil {
		return fail(err, failText)
	}

	why := payload.Get("why")
	if !why.Exists() || why.String() == "" {
		return malformed(failText, payload.Status, "missing why")
	}

	author := "Someone"
	if cmdCtx != nil && cmdCtx.AuthorName != "" {
		author = cmdCtx.AuthorName
	}
	return domain.Success(domain.Message{
		Title: author + " wonders...",
		Text:  why.String(),
	})
}

func (m *Module) k(_ context.Context, _ *domain.CommandContext, _ []string) domain.Result {
	return domain.Success(domain.Message{Text: "k"})
}

func (m *Module) eightBall(_ context.Context, _ *domain.CommandContext, args []string) domain.Result {
	question := ""
	if len(args) > 0 {
		question = args[0]
	}
	answer := eightBallResponses[rand.IntN(len(eightBallResponses))]
	return domain.Success(domain.Message{
		Title: "The Magic 8-ball",
		Text:  fmt.Sprintf("**Question: %s**\nAnswer: %s", question, answer),
	})
}

func image(url, caption string) domain.Result {
	return domain.Success(domain.Message{
		Attachments: []domain.Attachment{{URL: url, Caption: caption}},
	})
}

// fail turns a fetch error into the command's user-facing failure. The
// template gets the HTTP status, or a short token when there was none.
func fail(err error, template string) domain.Result {
	f, ok := errors.AsFailure(err)
	if !ok {
		f = errors.NewFailure(errors.KindUpstreamUnavailable, "").WithCause(err)
	}
	return domain.Fail(&errors.Failure{
		Kind:   f.Kind,
		Detail: fmt.Sprintf(template, statusToken(f)),
		Status: f.Status,
		Cause:  f,
	})
}

func malformed(template string, status int, reason string) domain.Result {
	f := errors.NewFailure(errors.KindUpstreamMalformed, reason).WithStatus(status)
	return domain.Fail(&errors.Failure{
		Kind:   errors.KindUpstreamMalformed,
		Detail: fmt.Sprintf(template, "bad payload"),
		Status: status,
		Cause:  f,
	})
}

func statusToken(f *errors.Failure) string {
	switch {
	case f.Kind == errors.KindUpstreamMalformed:
		return "bad payload"
	case f.Status != 0:
		return fmt.Sprintf("%d", f.Status)
	default:
		return "unreachable"
	}
}

func withDefaults(e Endpoints) Endpoints {
	d := DefaultEndpoints()
	if e.Cat == "" {
		e.Cat = d.Cat
	}
	if e.Dog == "" {
		e.Dog = d.Dog
	}
	if e.DogMedia == "" {
		e.DogMedia = d.DogMedia
	}
	if e.Neko == "" {
		e.Neko = d.Neko
	}
	if e.Why == "" {
		e.Why = d.Why
	}
	if e.HTTPCat == "" {
		e.HTTPCat = d.HTTPCat
	}
	return e
}
