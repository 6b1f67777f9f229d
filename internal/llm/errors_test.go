package llm

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	t.Run("429 with Retry-After", func(t *testing.T) {
		pe := classifyStatus(429, "120", "")
		assert.Equal(t, KindRateLimited, pe.Kind)
		assert.Equal(t, 120*time.Second, pe.RetryAfter)
	})

	t.Run("429 without Retry-After defaults to 60s", func(t *testing.T) {
		pe := classifyStatus(429, "", "")
		assert.Equal(t, KindRateLimited, pe.Kind)
		assert.Equal(t, 60*time.Second, pe.RetryAfter)
	})

	t.Run("429 with malformed Retry-After defaults to 60s", func(t *testing.T) {
		pe := classifyStatus(429, "soon", "")
		assert.Equal(t, 60*time.Second, pe.RetryAfter)
	})

	t.Run("401 and 403 are credential errors", func(t *testing.T) {
		assert.Equal(t, KindInvalidCredential, classifyStatus(401, "", "").Kind)
		assert.Equal(t, KindInvalidCredential, classifyStatus(403, "", "").Kind)
	})

	t.Run("other statuses are request failures with body detail", func(t *testing.T) {
		pe := classifyStatus(500, "", "internal error")
		assert.Equal(t, KindRequestFailed, pe.Kind)
		assert.Contains(t, pe.Detail, "internal error")
	})
}

func TestProviderErrorMessages(t *testing.T) {
	assert.Equal(t, "rate limited, retry after 60s", RateLimited(60*time.Second).Error())
	assert.Equal(t, "invalid API credential", InvalidCredential().Error())
	assert.Contains(t, ParseFailed("bad json").Error(), "bad json")
	assert.Contains(t, Unavailable("circuit open").Error(), "circuit open")
	assert.Contains(t, RequestFailed("timeout").Error(), "timeout")
}

func TestAsProviderErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("evaluating: %w", RateLimited(30*time.Second))

	pe, ok := AsProviderError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindRateLimited, pe.Kind)

	_, ok = AsProviderError(fmt.Errorf("plain error"))
	assert.False(t, ok)
}
