package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxLines     = 15 // content lines shown by `wi show` without --full
	DefaultContextLines = 5
	DefaultTitleWidth   = 60
	DefaultWrapWidth    = 80
)

// TruncateLines keeps the first and last contextLines of text when it has
// more than maxLines lines, with a marker counting the hidden lines.
func TruncateLines(text string, maxLines, contextLines int) string {
	lines := strings.Split(text, "\n")
	if text == "" || len(lines) <= maxLines {
		return text
	}
	if contextLines < 1 {
		contextLines = DefaultContextLines
	}
	if maxLines < 2*contextLines+3 {
		return strings.Join(lines[:maxLines], "\n") + "\n..."
	}

	hidden := len(lines) - 2*contextLines
	rule := RenderMuted(strings.Repeat("─", 40))
	parts := make([]string, 0, 2*contextLines+3)
	parts = append(parts, lines[:contextLines]...)
	parts = append(parts, rule,
		RenderMuted(fmt.Sprintf("... %d lines hidden (use --full) ...", hidden)),
		rule)
	parts = append(parts, lines[len(lines)-contextLines:]...)
	return strings.Join(parts, "\n")
}

// TruncateSimple cuts text to maxLen runes, ending in "...".
func TruncateSimple(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string([]rune(text)[:maxLen-3]) + "..."
}

// WrapText breaks each line of text at spaces so no line exceeds width
// runes, unless a single word is longer. Existing newlines are kept.
func WrapText(text string, width int) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if utf8.RuneCountInString(line) > width {
			lines[i] = wrapWords(strings.Fields(line), width)
		}
	}
	return strings.Join(lines, "\n")
}

func wrapWords(words []string, width int) string {
	var b strings.Builder
	col := 0
	for _, word := range words {
		n := utf8.RuneCountInString(word)
		switch {
		case col == 0:
		case col+1+n <= width:
			b.WriteByte(' ')
			col++
		default:
			b.WriteByte('\n')
			col = 0
		}
		b.WriteString(word)
		col += n
	}
	return b.String()
}
