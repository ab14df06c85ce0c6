package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{
	KindUpstreamUnavailable,
	KindUpstreamMalformed,
	KindConfigMissing,
	KindNotFound,
	KindInvalidArgument,
}

func TestNewFailureAlwaysHasDetail(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			f := NewFailure(kind, "")
			assert.NotEmpty(t, f.Detail)
			assert.Equal(t, kind, f.Kind)

			f = NewFailure(kind, "custom")
			assert.Equal(t, "custom", f.Detail)
		})
	}
}

func TestFailureUnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	f := NewFailure(KindUpstreamUnavailable, "request failed").WithStatus(0).WithCause(cause)

	assert.ErrorIs(t, f, cause)
	assert.Contains(t, f.Error(), "connection refused")
	assert.Equal(t, "request failed", f.Detail)
}

func TestAsFailureThroughWrapping(t *testing.T) {
	f := NewNotFound("User does not exist, maybe try one that does")
	wrapped := fmt.Errorf("lookup: %w", f)

	got, ok := AsFailure(wrapped)
	require.True(t, ok)
	assert.Same(t, f, got)

	_, ok = AsFailure(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestSpecialisedConstructors(t *testing.T) {
	assert.Equal(t, KindConfigMissing, NewConfigMissing("osu! api key not configured").Kind)
	assert.Equal(t, KindNotFound, NewNotFound("").Kind)
	assert.Equal(t, KindInvalidArgument, NewInvalidArgument("Unknown mode").Kind)
}

func TestIsPostErrorFindsTargetInJoinedErrors(t *testing.T) {
	dbl := NewPostError("unexpected status", TargetDBL, 401, nil)
	dd := NewPostError("request failed", TargetDatadog, 0, stderrors.New("timeout"))
	joined := stderrors.Join(dbl, dd)

	assert.True(t, IsPostError(joined, TargetDBL))
	assert.True(t, IsPostError(joined, TargetDatadog))
	assert.False(t, IsPostError(joined, TargetDBots))
	assert.True(t, IsPostError(fmt.Errorf("post: %w", dd), ""))
	assert.False(t, IsPostError(nil, ""))
	assert.Contains(t, dbl.Error(), "status 401")
}
