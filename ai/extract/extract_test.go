package extract

import (
	"context"
	"testing"

	"github.com/harvestra/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlain(t *testing.T) {
	p := NewPlain()
	ctx := context.Background()

	t.Run("trims text", func(t *testing.T) {
		text, err := p.Extract(ctx, []byte("  hello world\n"))
		require.NoError(t, err)
		assert.Equal(t, "hello world", text)
	})

	t.Run("keeps newlines and tabs", func(t *testing.T) {
		text, err := p.Extract(ctx, []byte("line one\n\tline two"))
		require.NoError(t, err)
		assert.Equal(t, "line one\n\tline two", text)
	})

	t.Run("rejects invalid utf-8", func(t *testing.T) {
		_, err := p.Extract(ctx, []byte{0xff, 0xfe, 0xfd})
		assert.ErrorIs(t, err, core.ErrParseFailure)
	})

	t.Run("rejects control bytes", func(t *testing.T) {
		_, err := p.Extract(ctx, []byte("prefix\x00suffix"))
		assert.ErrorIs(t, err, core.ErrParseFailure)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := p.Extract(ctx, []byte("   \n  "))
		assert.ErrorIs(t, err, core.ErrParseFailure)
	})
}

func TestReadability(t *testing.T) {
	r := NewReadability()
	ctx := context.Background()

	t.Run("strips markup and boilerplate", func(t *testing.T) {
		html := `<!DOCTYPE html>
<html>
<head><title>Quarterly Review</title></head>
<body>
<nav><a href="/">home</a><a href="/docs">docs</a></nav>
<article>
<h1>Quarterly Review</h1>
<p>Revenue grew in every segment this quarter, with enterprise leading.</p>
<p>Churn stayed flat while expansion revenue accelerated month over month.</p>
</article>
<footer>Copyright 2025</footer>
<script>trackPageView();</script>
</body>
</html>`
		text, err := r.Extract(ctx, []byte(html))
		require.NoError(t, err)
		assert.Contains(t, text, "Revenue grew in every segment")
		assert.NotContains(t, text, "<p>")
		assert.NotContains(t, text, "trackPageView")
	})

	t.Run("rejects non-html", func(t *testing.T) {
		_, err := r.Extract(ctx, []byte("just some plain prose, no markup"))
		assert.ErrorIs(t, err, core.ErrParseFailure)
	})
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, looksLikeHTML([]byte("<html><body>x</body></html>")))
	assert.True(t, looksLikeHTML([]byte("\n\t <!DOCTYPE html>")))
	assert.False(t, looksLikeHTML([]byte("plain text")))
	assert.False(t, looksLikeHTML(nil))
}
