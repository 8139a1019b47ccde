package rag

import (
	"strings"
	"unicode/utf8"
)

const DefaultChunkSize = 1000

// Chunk splits text on whitespace into pieces of at most maxChars runes.
// A single word longer than maxChars becomes a chunk of its own. Joining the
// result with single spaces yields the input's words in order.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	words := strings.Fields(text)
	chunks := make([]string, 0, len(text)/maxChars+1)

	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		if wordLen >= maxChars {
			flush()
			chunks = append(chunks, word)
			continue
		}
		if curLen > 0 && curLen+1+wordLen > maxChars {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += wordLen
	}
	flush()
	return chunks
}
