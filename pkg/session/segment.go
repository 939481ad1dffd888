package session

import "strings"

// sentenceEnders are the characters that terminate a speakable sentence.
const sentenceEnders = ".!?"

// SplitSentences appends delta to buf and splits the combined text at
// sentence boundaries. It returns the completed spans in order plus the
// remainder after the last boundary, which becomes the next buffer.
//
// Spans are returned untrimmed: joining the spans with rest reproduces
// buf+delta byte for byte, so no text is ever dropped between calls.
// Callers trim before handing a span to synthesis.
func SplitSentences(buf, delta string) (sentences []string, rest string) {
	rest = buf + delta
	for {
		i := strings.IndexAny(rest, sentenceEnders)
		if i < 0 {
			return sentences, rest
		}
		sentences = append(sentences, rest[:i+1])
		rest = rest[i+1:]
	}
}
