// Package mock provides an in-memory mock implementation of the
// [stt.Transcriber] interface for use in unit tests.
package mock

import (
	"context"
	"sync"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/stt"
)

// Compile-time interface assertion.
var _ stt.Transcriber = (*Transcriber)(nil)

// TranscribeCall records the arguments of a single Transcribe invocation.
type TranscribeCall struct {
	// PCM is the audio passed to Transcribe.
	PCM []byte

	// SampleRate is the sample rate passed to Transcribe.
	SampleRate int
}

// Transcriber is a mock implementation of [stt.Transcriber].
// Set the exported Result fields before use; inspect Calls after.
type Transcriber struct {
	mu sync.Mutex

	// Result is returned by Transcribe.
	Result string

	// Err is returned by Transcribe.
	Err error

	// Calls records all Transcribe invocations.
	Calls []TranscribeCall
}

// Transcribe implements [stt.Transcriber]. Records the call and returns
// Result / Err.
func (t *Transcriber) Transcribe(_ context.Context, pcm []byte, sampleRate int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, TranscribeCall{PCM: pcm, SampleRate: sampleRate})
	return t.Result, t.Err
}

// CallCount returns how many times Transcribe was called.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}
