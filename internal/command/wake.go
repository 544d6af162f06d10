package command

import (
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
)

// WakeWord gates utterances on a configured wake word. Speech recognition
// frequently mangles the wake word itself ("vission", "visions"), so matching
// is fuzzy: a token within Levenshtein distance 1 of the wake word counts,
// as does the wake word appearing as a substring of a longer token.
//
// Safe for concurrent use; [WakeWord.Set] supports config hot reload.
type WakeWord struct {
	mu      sync.RWMutex
	word    string
	require bool
}

// NewWakeWord creates a detector for word. If word is empty or require is
// false, Match accepts everything unchanged.
func NewWakeWord(word string, require bool) *WakeWord {
	w := &WakeWord{}
	w.Set(word, require)
	return w
}

// Set replaces the wake word and its enforcement.
func (w *WakeWord) Set(word string, require bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.word = strings.ToLower(strings.TrimSpace(word))
	w.require = require && w.word != ""
}

// Match checks text for the wake word. It returns the remaining command with
// the wake word stripped and whether the gate passed. When gating is disabled
// the full text passes through untouched.
//
// Text consisting solely of the wake word matches with an empty remainder;
// callers treat that as a prompt for a follow-up question.
func (w *WakeWord) Match(text string) (remainder string, ok bool) {
	w.mu.RLock()
	word, require := w.word, w.require
	w.mu.RUnlock()
	if !require {
		return text, true
	}

	tokens := strings.Fields(strings.ToLower(text))
	idx := -1
	for i, tok := range tokens {
		tok = strings.Trim(tok, ".,!?;:")
		if tok == word || strings.Contains(tok, word) {
			idx = i
			break
		}
		if matchr.Levenshtein(tok, word) <= 1 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}

	rest := append(tokens[:idx:idx], tokens[idx+1:]...)
	return strings.TrimSpace(strings.Join(rest, " ")), true
}

// Enabled reports whether the gate is active.
func (w *WakeWord) Enabled() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.require
}
