package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kapu/lolbot-go/internal/constants"
	"github.com/kapu/lolbot-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string, seen *http.Header, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if seen != nil {
			*seen = r.Header.Clone()
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchNon2xxIsUpstreamUnavailable(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusNotFound, `{"file":"never parsed"}`, nil, &hits)

	payload, err := NewClient(srv.Client()).Fetch(context.Background(), Request{URL: srv.URL, Format: FormatJSON})
	require.Error(t, err)
	assert.Nil(t, payload)

	f, ok := errors.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindUpstreamUnavailable, f.Kind)
	assert.Contains(t, f.Detail, "404")
	assert.Equal(t, http.StatusNotFound, f.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchMalformedJSON(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"file": `, nil, nil)

	_, err := NewClient(srv.Client()).Fetch(context.Background(), Request{URL: srv.URL, Format: FormatJSON})
	f, ok := errors.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindUpstreamMalformed, f.Kind)
	assert.NotEmpty(t, f.Detail)
}

func TestFetchPlainTextIsNotParsed(t *testing.T) {
	srv := newServer(t, http.StatusOK, "abc.mp4", nil, nil)

	payload, err := NewClient(srv.Client()).Fetch(context.Background(), Request{URL: srv.URL, Format: FormatText})
	require.NoError(t, err)
	assert.Equal(t, "abc.mp4", payload.Text())
	assert.Equal(t, http.StatusOK, payload.Status)
}

func TestFetchJSONTree(t *testing.T) {
	srv := newServer(t, http.StatusOK, `[{"user_id":"124493","accuracy":"98.5"}]`, nil, nil)

	payload, err := NewClient(srv.Client()).Fetch(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "124493", payload.Get("0.user_id").String())
	assert.InDelta(t, 98.5, payload.Get("0.accuracy").Float(), 0.0001)
	assert.True(t, payload.Root().IsArray())
}

func TestFetchMergesHeadersOverDefaultUserAgent(t *testing.T) {
	var seen http.Header
	srv := newServer(t, http.StatusOK, `{}`, &seen, nil)
	client := NewClient(srv.Client())

	_, err := client.Fetch(context.Background(), Request{URL: srv.URL, Headers: map[string]string{"X-Test": "1"}})
	require.NoError(t, err)
	assert.Equal(t, constants.UserAgent, seen.Get("User-Agent"))
	assert.Equal(t, "1", seen.Get("X-Test"))

	_, err = client.Fetch(context.Background(), Request{URL: srv.URL, Headers: map[string]string{"User-Agent": "custom"}})
	require.NoError(t, err)
	assert.Equal(t, "custom", seen.Get("User-Agent"))
}

func TestFetchCancelledContextIsAFailureValue(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{}`, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.Client()).Fetch(ctx, Request{URL: srv.URL + "/get_user?k=secret"})
	f, ok := errors.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindUpstreamUnavailable, f.Kind)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, err.Error(), "secret")
}
