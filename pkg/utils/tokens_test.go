package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCounterCountsTokens(t *testing.T) {
	tc, err := NewTokenCounter()
	require.NoError(t, err)

	count := tc.CountTokens("The quick brown fox jumps over the lazy dog.")
	assert.Greater(t, count, 0)
	assert.Less(t, count, 20)
}

func TestNilCounterFallsBackToEstimate(t *testing.T) {
	var tc *TokenCounter
	text := strings.Repeat("a", 400)
	assert.Equal(t, 100, tc.CountTokens(text))
}

func TestCountTokensSimple(t *testing.T) {
	assert.Greater(t, CountTokensSimple("reference document body"), 0)
	assert.Equal(t, 0, CountTokensSimple(""))
}
