// Package audio defines the frame type, PCM helpers, and device interfaces
// shared by the VisionAid capture/playback pipeline.
//
// All audio in the pipeline is little-endian 16-bit PCM. The assistant runs a
// single duplex stream: a [Capture] device feeds 20 ms frames into the engine
// and a [Playback] device drains response audio. [Duplex] couples the two and
// remembers when the speaker last produced sound so the engine can suppress
// microphone echo.
package audio

import (
	"context"
	"time"
)

// AudioFrame represents a single frame of audio flowing through the pipeline.
// Frames are the atomic unit of transport: captured from the microphone,
// scored by the segmenter, and streamed to the realtime session.
type AudioFrame struct {
	// Data is little-endian int16 PCM.
	Data []byte

	// SampleRate in Hz (24000 for the realtime session).
	SampleRate int

	// Channels: 1 for the mono assistant pipeline.
	Channels int

	// Timestamp marks the wall-clock time the frame was captured.
	Timestamp time.Time
}

// Duration returns the play time of the frame at its own sample rate.
func (f AudioFrame) Duration() time.Duration {
	return DurationOf(f.Data, f.SampleRate, f.Channels)
}

// Capture is a microphone source. Start begins delivering frames to onFrame
// from an internal goroutine or device callback; callers must not block in
// onFrame. Implementations must be safe for concurrent use.
type Capture interface {
	Start(ctx context.Context, onFrame func(AudioFrame)) error
	Stop() error
}

// Playback is a speaker sink. Write enqueues PCM for playback and returns
// without waiting for it to be audible. Implementations must be safe for
// concurrent use.
type Playback interface {
	Write(pcm []byte) error

	// Flush discards any enqueued audio that has not been played yet.
	Flush()

	Stop() error
}
