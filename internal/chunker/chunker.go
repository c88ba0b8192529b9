// Package chunker splits product text into fixed-size character windows.
package chunker

import "fmt"

// Split cuts text into consecutive, non-overlapping windows of at most
// maxChars characters; the final window may be shorter. Splits are by rune,
// with no word-boundary awareness, so a window may end mid-word. The output
// preserves left-to-right order and concatenates back to the input exactly.
//
// Empty text yields nil. maxChars must be positive; anything else is a
// caller bug and returns an error rather than looping forever.
func Split(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("chunker: max chars must be positive, got %d", maxChars)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+maxChars-1)/maxChars)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
