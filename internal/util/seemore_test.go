package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldLongLeavesShortText(t *testing.T) {
	require.Equal(t, "hello\nworld", FoldLong("hello\nworld"))
}

func TestFoldLong(t *testing.T) {
	body := strings.Repeat("grace ", 100)
	text := "🎶 *Amazing Grace*\n\n" + body
	got := FoldLong(text)

	require.True(t, strings.HasPrefix(got, "🎶 *Amazing Grace*"+ZeroWidthSpace))
	require.Equal(t, SeeMorePadding, strings.Count(got, ZeroWidthSpace))
	require.True(t, strings.HasSuffix(got, "\n"+body))
}

func TestFoldLongSingleLine(t *testing.T) {
	text := strings.Repeat("x", FoldThreshold+1)
	require.Equal(t, text, FoldLong(text))
}

func TestSplitHeader(t *testing.T) {
	h, b := SplitHeader("\nTitle\r\n\nbody line\nmore")
	require.Equal(t, "Title", h)
	require.Equal(t, "body line\nmore", b)
}

func TestPadSeeMoreEmptyBody(t *testing.T) {
	require.Equal(t, "  ", PadSeeMore("  ", "header"))
}
