// Package realtime defines the Provider interface for duplex voice session
// backends.
//
// A realtime provider wraps a bidirectional voice AI service that accepts raw
// audio input and returns transcripts, text, and synthesised audio in a
// single stateful session. The central abstraction is [Session]: audio flows
// in through explicit append/commit calls and everything the server produces
// flows back out of a single ordered event channel.
//
// Sessions are designed to be long-lived (minutes to hours, one per assistant
// run). All implementations must be safe for concurrent use.
package realtime

import "context"

// SessionConfig is the initial configuration for a new session.
type SessionConfig struct {
	// Model is the realtime model identifier.
	Model string

	// Voice selects the synthesised output voice.
	Voice string

	// Instructions is the system-level prompt defining the assistant's
	// behaviour for the whole session.
	Instructions string

	// InputSampleRate is the PCM16 sample rate of appended audio in Hz.
	InputSampleRate int

	// TranscriptionModel enables server-side input transcription when
	// non-empty.
	TranscriptionModel string

	// MaxOutputTokens caps the length of each model response. Zero means
	// provider default.
	MaxOutputTokens int
}

// ResponseRequest asks the model to produce a response turn.
type ResponseRequest struct {
	// Text is the user text to respond to. When empty, the model responds
	// to the committed audio buffer.
	Text string

	// Instructions overrides the session instructions for this single
	// response (used for corrective prompts).
	Instructions string

	// TextOnly suppresses audio output for this response.
	TextOnly bool

	// MaxOutputTokens overrides the session cap for this response. Zero
	// means keep the session setting.
	MaxOutputTokens int
}

// EventKind classifies server events surfaced by a [Session].
type EventKind int

const (
	// KindTranscriptCompleted carries the server's transcription of the
	// committed input audio.
	KindTranscriptCompleted EventKind = iota

	// KindTextDelta carries an incremental chunk of a text response.
	KindTextDelta

	// KindAudioDelta carries a decoded chunk of response PCM16 audio.
	KindAudioDelta

	// KindAudioTranscriptDelta carries an incremental chunk of the spoken
	// response's transcript.
	KindAudioTranscriptDelta

	// KindAudioTranscriptDone carries the full transcript of the spoken
	// response.
	KindAudioTranscriptDone

	// KindResponseDone marks the end of a response turn.
	KindResponseDone

	// KindError carries a protocol-level error event from the server.
	KindError
)

// String returns the human-readable name of the event kind.
func (k EventKind) String() string {
	switch k {
	case KindTranscriptCompleted:
		return "TRANSCRIPT_COMPLETED"
	case KindTextDelta:
		return "TEXT_DELTA"
	case KindAudioDelta:
		return "AUDIO_DELTA"
	case KindAudioTranscriptDelta:
		return "AUDIO_TRANSCRIPT_DELTA"
	case KindAudioTranscriptDone:
		return "AUDIO_TRANSCRIPT_DONE"
	case KindResponseDone:
		return "RESPONSE_DONE"
	case KindError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is a single server event. Text is set for transcript and text kinds,
// PCM for audio deltas, Code/Message for errors.
type Event struct {
	Kind    EventKind
	Text    string
	PCM     []byte
	Code    string
	Message string
}

// Session represents an open duplex voice session. It is an interface so
// that test code can supply mock implementations without a live connection.
//
// The session is the hot path of the assistant: every method must return
// quickly. All methods must be safe for concurrent use. Callers must call
// Close when the session is no longer needed.
type Session interface {
	// AppendAudio streams a raw PCM16 chunk into the server's input buffer.
	AppendAudio(ctx context.Context, pcm []byte) error

	// CommitInput finalises the input buffer as one user utterance,
	// triggering server-side transcription.
	CommitInput(ctx context.Context) error

	// ClearInput discards the server-side input buffer.
	ClearInput(ctx context.Context) error

	// CreateResponse asks the model to produce a response turn.
	CreateResponse(ctx context.Context, req ResponseRequest) error

	// Events returns the ordered stream of server events. The channel is
	// closed when the session ends; after it closes, call Err to check
	// whether the session ended cleanly. Consumers must drain the channel
	// promptly to keep the receive loop from stalling.
	Events() <-chan Event

	// Err returns the error that closed the event channel prematurely, or
	// nil if the session ended cleanly.
	Err() error

	// Close terminates the session and closes the event channel. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any realtime backend.
type Provider interface {
	// StartSession establishes a new duplex session. The returned Session
	// is ready to accept audio immediately. The caller owns the Session and
	// is responsible for calling Close.
	StartSession(ctx context.Context, cfg SessionConfig) (Session, error)
}
