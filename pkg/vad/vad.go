// Package vad implements peak-amplitude voice activity detection and
// utterance segmentation for the assistant's microphone stream.
//
// The [Segmenter] is a stateful, per-stream frame scorer: each captured frame
// is classified as speech or silence by comparing its normalised peak
// amplitude against a threshold, and consecutive frames are accumulated into
// an utterance buffer. When enough trailing silence follows enough speech the
// buffered utterance is emitted; when silence follows too little speech the
// buffer is discarded as noise.
//
// Segmentation is synchronous by design: Feed returns immediately with a
// decision, making it suitable for the low-latency capture loop. A Segmenter
// must not be shared across goroutines.
package vad

import (
	"errors"
	"fmt"
	"time"
)

// Decision is the outcome of feeding one frame to the [Segmenter].
type Decision int

const (
	// Continue means the segmenter is still accumulating (or skipping
	// leading silence); no utterance is ready.
	Continue Decision = iota

	// UtteranceReady means a complete utterance has been emitted alongside
	// the decision. The segmenter has returned to idle.
	UtteranceReady

	// Reset means the buffered audio was discarded as noise (silence arrived
	// before the minimum speech duration was reached). The segmenter has
	// returned to idle.
	Reset
)

// String returns the human-readable name of the decision.
func (d Decision) String() string {
	switch d {
	case Continue:
		return "CONTINUE"
	case UtteranceReady:
		return "UTTERANCE_READY"
	case Reset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// Config holds the parameters for a [Segmenter].
type Config struct {
	// SampleRate is the audio sample rate in Hz. Must match the rate of the
	// PCM frames passed to Feed.
	SampleRate int

	// FrameSizeMs is the duration of each audio frame in milliseconds.
	FrameSizeMs int

	// SilenceThreshold is the normalised peak amplitude (0.0–1.0) below
	// which a frame is classified as silence.
	SilenceThreshold float64

	// SilenceDuration is how much trailing silence ends an utterance.
	SilenceDuration time.Duration

	// MinSpeechDuration is the least accumulated speech an utterance must
	// contain; shorter bursts are discarded as noise.
	MinSpeechDuration time.Duration

	// MaxBufferDuration caps the utterance buffer. When reached, the buffer
	// is emitted immediately even though the speaker has not paused.
	MaxBufferDuration time.Duration
}

// DefaultConfig returns the segmenter parameters tuned for the 24 kHz
// realtime session: 20 ms frames, 0.01 peak threshold, 800 ms end-of-speech
// silence, 300 ms minimum speech, 6 s buffer cap.
func DefaultConfig() Config {
	return Config{
		SampleRate:        24000,
		FrameSizeMs:       20,
		SilenceThreshold:  0.01,
		SilenceDuration:   800 * time.Millisecond,
		MinSpeechDuration: 300 * time.Millisecond,
		MaxBufferDuration: 6 * time.Second,
	}
}

// Validate reports every invalid field as a joined error.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sampleRate must be positive, got %d", c.SampleRate))
	}
	if c.FrameSizeMs <= 0 {
		errs = append(errs, fmt.Errorf("frameSizeMs must be positive, got %d", c.FrameSizeMs))
	}
	if c.SilenceThreshold < 0 || c.SilenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("silenceThreshold must be in [0, 1], got %g", c.SilenceThreshold))
	}
	if c.SilenceDuration <= 0 {
		errs = append(errs, fmt.Errorf("silenceDuration must be positive, got %s", c.SilenceDuration))
	}
	if c.MinSpeechDuration <= 0 {
		errs = append(errs, fmt.Errorf("minSpeechDuration must be positive, got %s", c.MinSpeechDuration))
	}
	if c.MaxBufferDuration <= c.SilenceDuration {
		errs = append(errs, fmt.Errorf("maxBufferDuration must exceed silenceDuration, got %s", c.MaxBufferDuration))
	}
	if len(errs) > 0 {
		return fmt.Errorf("vad config: %w", errors.Join(errs...))
	}
	return nil
}
