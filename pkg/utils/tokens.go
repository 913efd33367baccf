// Package utils provides tiktoken-based token counting utilities.
package utils

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter estimates token counts for injected document content.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter creates a token counter using the GPT-4 encoding, which is
// a close enough approximation for every model the pipelines run against.
func NewTokenCounter() (*TokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec: %w", err)
	}
	return &TokenCounter{codec: codec}, nil
}

// CountTokens returns the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.codec == nil {
		// Fallback to character-based estimation (4 chars ≈ 1 token)
		return len(text) / 4
	}

	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

var (
	simpleCounter     *TokenCounter
	simpleCounterOnce sync.Once
)

// CountTokensSimple counts tokens without requiring a TokenCounter instance.
func CountTokensSimple(text string) int {
	simpleCounterOnce.Do(func() {
		if counter, err := NewTokenCounter(); err == nil {
			simpleCounter = counter
		}
	})
	if simpleCounter == nil {
		return len(text) / 4
	}
	return simpleCounter.CountTokens(text)
}
