package upstream

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kapu/lolbot-go/internal/constants"
	"github.com/kapu/lolbot-go/pkg/errors"
	"github.com/tidwall/gjson"
)

type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// Request describes a single upstream GET. It is built per call.
type Request struct {
	URL     string
	Headers map[string]string
	Format  Format
}

// Payload is a successfully fetched body.
type Payload struct {
	Status int
	body   []byte
}

// NewPayload wraps an already fetched body; stub fetchers use it.
func NewPayload(status int, body []byte) *Payload {
	return &Payload{Status: status, body: body}
}

// Text returns the body as a string.
func (p *Payload) Text() string {
	return string(p.body)
}

// Get reads a value from a JSON payload by gjson path ("file", "0.user_id").
func (p *Payload) Get(path string) gjson.Result {
	return gjson.GetBytes(p.body, path)
}

// Root returns the whole JSON document.
func (p *Payload) Root() gjson.Result {
	return gjson.ParseBytes(p.body)
}

// Fetcher is the contract commands depend on. Every non-nil error returned by
// Fetch is a *errors.Failure.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Payload, error)
}

type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient wraps a shared HTTP client. A nil client falls back to
// http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  constants.UserAgent,
	}
}

func (c *Client) Fetch(ctx context.Context, r Request) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, errors.NewFailure(errors.KindUpstreamUnavailable, "invalid request").WithCause(stripURL(err))
	}

	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFailure(errors.KindUpstreamUnavailable, "request failed").WithCause(stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.NewFailure(errors.KindUpstreamUnavailable, fmt.Sprintf("HTTP %d", resp.StatusCode)).
			WithStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewFailure(errors.KindUpstreamUnavailable, "failed to read response").
			WithStatus(resp.StatusCode).
			WithCause(err)
	}

	if r.Format == FormatJSON {
		var probe json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			return nil, errors.NewFailure(errors.KindUpstreamMalformed, err.Error()).
				WithStatus(resp.StatusCode).
				WithCause(err)
		}
	}

	return &Payload{Status: resp.StatusCode, body: body}, nil
}

// stripURL drops the request URL from transport errors; osu! requests carry
// the api key in the query string.
func stripURL(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
