// Package mock provides in-memory mock implementations of the
// [audio.Capture] and [audio.Playback] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// exported fields that the test can set to control return values.
//
// Typical usage:
//
//	cap := &mock.Capture{}
//	_ = cap.Start(ctx, engine.HandleFrame)
//	cap.EmitFrame(audio.AudioFrame{Data: pcm, SampleRate: 24000, Channels: 1})
package mock

import (
	"context"
	"sync"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio"
)

// Compile-time interface assertions.
var (
	_ audio.Capture  = (*Capture)(nil)
	_ audio.Playback = (*Playback)(nil)
)

// ─── Capture ──────────────────────────────────────────────────────────────────

// Capture is a mock implementation of [audio.Capture]. Tests push frames
// through [Capture.EmitFrame], which invokes the callback registered by Start
// synchronously on the caller's goroutine.
type Capture struct {
	mu sync.Mutex

	// StartError is returned by [Capture.Start].
	StartError error

	// StopError is returned by [Capture.Stop].
	StopError error

	// CallCountStart records how many times Start was called.
	CallCountStart int

	// CallCountStop records how many times Stop was called.
	CallCountStop int

	onFrame func(audio.AudioFrame)
}

// Start implements [audio.Capture]. The callback is stored for EmitFrame.
func (c *Capture) Start(_ context.Context, onFrame func(audio.AudioFrame)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountStart++
	if c.StartError != nil {
		return c.StartError
	}
	c.onFrame = onFrame
	return nil
}

// Stop implements [audio.Capture].
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountStop++
	c.onFrame = nil
	return c.StopError
}

// Started reports whether a frame callback is currently registered.
func (c *Capture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onFrame != nil
}

// EmitFrame delivers frame to the callback registered via Start. Frames
// emitted before Start (or after Stop) are dropped.
func (c *Capture) EmitFrame(frame audio.AudioFrame) {
	c.mu.Lock()
	cb := c.onFrame
	c.mu.Unlock()
	if cb != nil {
		cb(frame)
	}
}

// ─── Playback ─────────────────────────────────────────────────────────────────

// Playback is a mock implementation of [audio.Playback] that accumulates all
// written PCM.
type Playback struct {
	mu sync.Mutex

	// WriteError is returned by [Playback.Write].
	WriteError error

	// StopError is returned by [Playback.Stop].
	StopError error

	// Written holds the concatenation of all successful writes.
	Written []byte

	// CallCountWrite records how many times Write was called.
	CallCountWrite int

	// CallCountFlush records how many times Flush was called.
	CallCountFlush int

	// CallCountStop records how many times Stop was called.
	CallCountStop int
}

// Write implements [audio.Playback]. Appends pcm to Written.
func (p *Playback) Write(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountWrite++
	if p.WriteError != nil {
		return p.WriteError
	}
	p.Written = append(p.Written, pcm...)
	return nil
}

// Flush implements [audio.Playback]. Clears Written.
func (p *Playback) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountFlush++
	p.Written = nil
}

// Stop implements [audio.Playback].
func (p *Playback) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountStop++
	return p.StopError
}

// WrittenBytes returns a copy of everything written so far.
func (p *Playback) WrittenBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, len(p.Written))
	copy(out, p.Written)
	return out
}
