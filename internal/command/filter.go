// Package command filters recognised utterances before they reach the
// assistant. Transcripts from continuous microphone capture are noisy:
// breathing, short grunts and cut-off sentences all come back as text, and
// forwarding them wastes a full assistant turn. The filter rejects anything
// that does not look like a deliberate spoken command.
package command

import (
	"strings"
	"unicode"
)

// vowels used by the noise check. A transcript without a single vowel is
// almost always a mis-recognised breath or click.
const vowels = "aeiou"

// danglingEndings mark transcripts that were cut off mid-thought by the
// silence detector. Acting on them produces confusing half-answers.
var danglingEndings = []string{" and", " or", " the", " to"}

// IsConfident reports whether text looks like a complete spoken command
// rather than recognition noise. It rejects very short inputs, vowel-free
// noise, inputs with fewer than two meaningful words and transcripts that
// end mid-thought.
func IsConfident(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) < 5 {
		return false
	}

	if !strings.ContainsAny(text, vowels) {
		return false
	}

	meaningful := 0
	for _, w := range strings.Fields(text) {
		if len(w) > 2 {
			meaningful++
		}
	}
	if meaningful < 2 {
		return false
	}

	for _, suffix := range danglingEndings {
		if strings.HasSuffix(text, suffix) {
			return false
		}
	}

	return true
}

// nonASCIIShareThreshold is the fraction of non-ASCII letters above which a
// transcript is treated as non-English. A small allowance covers names and
// the odd accented character in otherwise English speech.
const nonASCIIShareThreshold = 0.2

// IsEnglish reports whether text appears to be English. The check is a cheap
// character-class heuristic, not real language detection: it counts the share
// of letters outside the ASCII range. Empty or whitespace-only text is not
// English.
func IsEnglish(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	var letters, nonASCII int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r > unicode.MaxASCII {
			nonASCII++
		}
	}
	if letters == 0 {
		return true
	}
	return float64(nonASCII)/float64(letters) < nonASCIIShareThreshold
}
