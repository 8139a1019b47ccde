package rag

import (
	"strings"
	"unicode/utf8"

	"notetutor/internal/vectorindex"
)

const (
	ContextDelimiter = "\n\n-----\n\n"
	NoNotesSentinel  = "No notes available."
	Disclosure       = "If you upload your notes, I can help better according to your syllabus."
)

// AssembleContext joins hit contents in the order given. Whole chunks are
// added while the total stays within maxChars runes; the first chunk is always
// kept and cut to maxChars if it alone is too long. maxChars <= 0 disables the bound.
func AssembleContext(hits []vectorindex.Hit, maxChars int) string {
	parts := make([]string, 0, len(hits))
	total := 0
	delimLen := utf8.RuneCountInString(ContextDelimiter)
	for _, hit := range hits {
		content := strings.TrimSpace(hit.Content)
		if content == "" {
			continue
		}
		size := utf8.RuneCountInString(content)
		if len(parts) == 0 {
			if maxChars > 0 && size > maxChars {
				content = string([]rune(content)[:maxChars])
				size = maxChars
			}
			parts = append(parts, content)
			total = size
			continue
		}
		if maxChars > 0 && total+delimLen+size > maxChars {
			break
		}
		parts = append(parts, content)
		total += delimLen + size
	}
	if len(parts) == 0 {
		return NoNotesSentinel
	}
	return strings.Join(parts, ContextDelimiter)
}

func IsSentinel(context string) bool {
	return context == NoNotesSentinel
}

// SystemInstruction renders the tutor instruction around the retrieved notes.
func SystemInstruction(context string) string {
	var b strings.Builder
	b.WriteString("You are an AI tutor who helps students understand concepts clearly, like a friendly personal tutor.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- When notes from the student are provided below, use them as your main reference.\n")
	b.WriteString("- When no relevant notes are found, still answer from your general knowledge.\n")
	b.WriteString("- In that case, end your answer with this sentence:\n  \"")
	b.WriteString(Disclosure)
	b.WriteString("\"\n\n")
	b.WriteString("Context from notes:\n")
	b.WriteString(context)
	b.WriteString("\n")
	return b.String()
}
