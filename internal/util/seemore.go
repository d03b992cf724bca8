package util

import (
	"strings"
	"unicode/utf8"
)

const (
	// SeeMorePadding zero-width spaces push everything after the header behind
	// KakaoTalk's "see more" fold.
	SeeMorePadding = 500
	ZeroWidthSpace = "\u200b"

	// FoldThreshold is the body length (in runes) above which replies are folded.
	FoldThreshold = 400
)

// PadSeeMore keeps header visible and hides body behind the fold.
func PadSeeMore(body, header string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	header = strings.TrimSpace(header)

	var b strings.Builder
	b.Grow(len(body) + len(header) + SeeMorePadding*len(ZeroWidthSpace) + 1)
	b.WriteString(header)
	b.WriteString(strings.Repeat(ZeroWidthSpace, SeeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

// SplitHeader separates the first line from the rest of text.
func SplitHeader(text string) (header, body string) {
	text = strings.TrimLeft(text, "\r\n")
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(text[:i]), strings.TrimLeft(text[i+1:], "\r\n")
}

// FoldLong folds text after its first line when it is longer than FoldThreshold.
// Short text is returned unchanged.
func FoldLong(text string) string {
	if utf8.RuneCountInString(text) <= FoldThreshold {
		return text
	}
	header, body := SplitHeader(text)
	if body == "" {
		return text
	}
	return PadSeeMore(body, header)
}
