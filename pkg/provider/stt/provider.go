// Package stt defines the Transcriber interface for batch speech-to-text
// backends.
//
// Transcribers are the assistant's fallback path: when the realtime session
// fails to deliver a transcript for a committed utterance in time, the raw
// PCM is handed to a Transcriber instead. They are deliberately one-shot —
// the utterance is already segmented by the time a transcriber sees it, so
// no streaming or partial-result machinery is needed.
//
// All implementations must be safe for concurrent use.
package stt

import "context"

// Transcriber converts a single recorded utterance to text.
type Transcriber interface {
	// Transcribe runs speech recognition over pcm, raw mono 16-bit
	// little-endian PCM at sampleRate Hz. It returns the recognised text,
	// or an empty string (with nil error) when the audio contains no
	// recognisable speech.
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
}
