package textchunk

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"briefcast/internal/services"
)

// ContinuationMarker is appended when a sentence has to be force-split at a
// character boundary. Synthesis renders it as a short pause.
const ContinuationMarker = "…"

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n+`)

// Split divides text into chunks whose UTF-8 byte length never exceeds
// maxBytes. Paragraph boundaries are preferred, then sentence boundaries,
// then forced character-boundary splits for pathological input.
//
// Empty or whitespace-only text yields no chunks. Text already under the
// ceiling is returned unchanged as a single chunk, so re-splitting
// conformant input is a no-op.
func Split(text string, maxBytes int) ([]string, error) {
	if maxBytes <= 0 {
		return nil, services.Wrap(services.ErrValidation, "chunker", "split", "byte ceiling must be positive", nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if len(text) <= maxBytes {
		return []string{text}, nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, paragraph := range paragraphBreak.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if len(paragraph) > maxBytes {
			flush()
			chunks = append(chunks, splitSentences(paragraph, maxBytes)...)
			continue
		}
		if current.Len() == 0 {
			current.WriteString(paragraph)
			continue
		}
		if current.Len()+len("\n\n")+len(paragraph) <= maxBytes {
			current.WriteString("\n\n")
			current.WriteString(paragraph)
			continue
		}
		flush()
		current.WriteString(paragraph)
	}
	flush()

	return chunks, nil
}

func splitSentences(paragraph string, maxBytes int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, sentence := range sentences(paragraph) {
		if len(sentence) > maxBytes {
			flush()
			chunks = append(chunks, forceSplit(sentence, maxBytes)...)
			continue
		}
		if current.Len() == 0 {
			current.WriteString(sentence)
			continue
		}
		if current.Len()+1+len(sentence) <= maxBytes {
			current.WriteByte(' ')
			current.WriteString(sentence)
			continue
		}
		flush()
		current.WriteString(sentence)
	}
	flush()

	return chunks
}

// sentences splits a paragraph after terminal punctuation. CJK full stops
// count; closing quotes stay attached to the preceding sentence.
func sentences(paragraph string) []string {
	var parts []string
	var current strings.Builder

	runes := []rune(paragraph)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if !isSentenceTerminator(r) {
			continue
		}
		for i+1 < len(runes) && isClosingQuote(runes[i+1]) {
			i++
			current.WriteRune(runes[i])
		}
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
		current.Reset()
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		parts = append(parts, trimmed)
	}
	return parts
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isClosingQuote(r rune) bool {
	switch r {
	case '"', '\'', ')', '”', '’', '」', '』':
		return true
	}
	return false
}

// forceSplit cuts a sentence with no usable boundaries at byte-safe rune
// positions, appending the continuation marker to every piece it fits on.
// Tiny ceilings near the width of a single rune yield bare rune-safe pieces
// instead of marker-padded ones that would overshoot the ceiling.
func forceSplit(sentence string, maxBytes int) []string {
	budget := maxBytes - len(ContinuationMarker)
	if budget <= 0 {
		budget = maxBytes
	}

	var chunks []string
	remainder := sentence
	for len(remainder) > maxBytes {
		cut := safeCut(remainder, budget)
		piece := strings.TrimSpace(remainder[:cut])
		if piece != "" {
			if len(piece)+len(ContinuationMarker) <= maxBytes {
				piece += ContinuationMarker
			}
			chunks = append(chunks, piece)
		}
		remainder = strings.TrimSpace(remainder[cut:])
	}
	if remainder != "" {
		chunks = append(chunks, remainder)
	}
	return chunks
}

// safeCut returns the largest byte offset <= budget that falls on a rune
// boundary and is at least one rune in.
func safeCut(s string, budget int) int {
	if budget >= len(s) {
		return len(s)
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}
