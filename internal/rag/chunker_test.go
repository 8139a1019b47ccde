package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	t.Run("empty and whitespace input", func(t *testing.T) {
		assert.Empty(t, Chunk("", 1000))
		assert.Empty(t, Chunk(" \n\t  ", 1000))
	})

	t.Run("three thousand characters of prose", func(t *testing.T) {
		// 300 nine-letter words: 2999 characters, 100 words per chunk.
		text := strings.TrimSpace(strings.Repeat("organelle ", 300))
		chunks := Chunk(text, 1000)

		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000)
			assert.NotEmpty(t, c)
		}
		assert.Equal(t, text, strings.Join(chunks, " "))
	})

	t.Run("exactly three chunks at the bound", func(t *testing.T) {
		word := strings.Repeat("a", 999)
		text := word + " " + word + " " + word
		chunks := Chunk(text, 1000)
		require.Len(t, chunks, 3)
		assert.Equal(t, []string{word, word, word}, chunks)
	})

	t.Run("oversized word is its own chunk", func(t *testing.T) {
		long := strings.Repeat("x", 25)
		chunks := Chunk("ab "+long+" cd", 10)
		assert.Equal(t, []string{"ab", long, "cd"}, chunks)
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		text := "über über über"
		chunks := Chunk(text, 9)
		assert.Equal(t, []string{"über über", "über"}, chunks)
	})

	t.Run("collapses whitespace but keeps word order", func(t *testing.T) {
		text := "mitosis\n\nhas   four\tphases"
		chunks := Chunk(text, 1000)
		assert.Equal(t, []string{"mitosis has four phases"}, chunks)
		assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
	})

	t.Run("deterministic", func(t *testing.T) {
		text := strings.Repeat("photosynthesis converts light ", 200)
		assert.Equal(t, Chunk(text, 300), Chunk(text, 300))
	})
}
