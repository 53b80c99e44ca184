package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		wantHost string
	}{
		{"appends v1 suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"strips trailing slash first", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing suffix", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty host untouched", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.wantHost, cfg.EmbeddingHost)
		})
	}

	t.Run("fills empty token", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		assert.Equal(t, "none", cfg.Token)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := NewConfig(WithHost(""))
		assert.ErrorIs(t, cfg.Validate(), ErrEmbeddingHostRequired)
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := NewConfig(WithModel(""))
		assert.ErrorIs(t, cfg.Validate(), ErrEmbeddingModelRequired)
	})
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://embed.internal:8080/v1"),
		WithModel("text-embedding-3-small"),
		WithToken("secret"),
	)
	assert.Equal(t, "http://embed.internal:8080/v1", cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "secret", cfg.Token)
}
