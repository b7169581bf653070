package indexer

import (
	"strings"
	"unicode"
)

// Preprocess normalizes intro text before storage: line endings become "\n", runs of
// horizontal whitespace collapse to one space, and lines and the whole text are
// trimmed. Paragraph breaks survive so the stored intro renders as authored.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = collapseSpaces(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func collapseSpaces(line string) string {
	line = strings.TrimSpace(line)
	var b strings.Builder
	wasSpace := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
