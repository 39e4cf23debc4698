package markdown

import (
	"errors"
	"strings"
)

// ErrInvalidWrapWidth reports a non-positive wrap budget.
var ErrInvalidWrapWidth = errors.New("markdown: wrap width must be positive")

// Wrap splits text into lines of at most maxChars characters using greedy
// word wrap. Widths are measured in runes, not bytes: normalized text may
// still carry multi-byte Latin-1 runes and a split must never cut one in
// half. A single word longer than maxChars is hard-split into
// maxChars-sized chunks. The result is never empty: blank input yields one
// empty line.
func Wrap(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, ErrInvalidWrapWidth
	}

	var lines []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current = current[:0]
			currentLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		wordLen := len(runes)

		if wordLen > maxChars {
			flush()
			for i := 0; i < wordLen; i += maxChars {
				end := i + maxChars
				if end > wordLen {
					end = wordLen
				}
				lines = append(lines, string(runes[i:end]))
			}
			continue
		}

		newLen := currentLen + wordLen
		if len(current) > 0 {
			newLen++ // joining space
		}

		if newLen <= maxChars {
			current = append(current, word)
			currentLen = newLen
		} else {
			flush()
			current = append(current, word)
			currentLen = wordLen
		}
	}
	flush()

	if len(lines) == 0 {
		return []string{""}, nil
	}
	return lines, nil
}

// mustWrap is for call sites with compile-time constant budgets.
func mustWrap(text string, maxChars int) []string {
	lines, err := Wrap(text, maxChars)
	if err != nil {
		panic(err)
	}
	return lines
}
