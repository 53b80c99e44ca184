package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackExtractor(t *testing.T) {
	ctx := context.Background()

	t.Run("primary success skips fallback", func(t *testing.T) {
		primary := mock.NewMockExtractor()
		fallback := mock.NewMockExtractor()

		text, err := ai.NewFallbackExtractor(primary, fallback).Extract(ctx, []byte("content"))
		require.NoError(t, err)
		assert.Equal(t, "content", text)
		assert.Zero(t, fallback.CallCount())
	})

	t.Run("primary failure falls through once", func(t *testing.T) {
		primary := mock.NewMockExtractor()
		primary.ExtractFunc = func(context.Context, []byte) (string, error) {
			return "", errors.New("not my format")
		}
		fallback := mock.NewMockExtractor()

		text, err := ai.NewFallbackExtractor(primary, fallback).Extract(ctx, []byte("content"))
		require.NoError(t, err)
		assert.Equal(t, "content", text)
		assert.Equal(t, 1, primary.CallCount())
		assert.Equal(t, 1, fallback.CallCount())
	})

	t.Run("both fail surfaces fallback error", func(t *testing.T) {
		failing := func(context.Context, []byte) (string, error) {
			return "", errors.New("primary broke")
		}
		fallbackErr := errors.New("fallback broke")

		primary := mock.NewMockExtractor()
		primary.ExtractFunc = failing
		fallback := mock.NewMockExtractor()
		fallback.ExtractFunc = func(context.Context, []byte) (string, error) {
			return "", fallbackErr
		}

		_, err := ai.NewFallbackExtractor(primary, fallback).Extract(ctx, []byte("content"))
		assert.ErrorIs(t, err, fallbackErr)
	})
}
