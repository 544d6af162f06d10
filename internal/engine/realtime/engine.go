// Package realtime implements the assistant's duplex conversation loop. An
// [Engine] owns one realtime session and one microphone stream: captured
// frames run through local VAD segmentation and are mirrored into the
// session's input buffer, committed utterances come back as transcripts (or
// are transcribed locally when the session is slow), accepted commands turn
// into response.create calls, and response audio plays back through the
// shared output with echo suppression.
//
// The engine runs exactly two flows of control: the capture callback and the
// session event loop inside [Engine.Run]. One mutex guards the turn state
// shared between them.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/command"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
	providerrealtime "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/realtime"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/stt"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/vad"
)

// Turn sources recorded in the interaction log.
const (
	SourceRealtime = "realtime"
	SourceFallback = "fallback"
)

// correctiveInstructions is sent instead of the user's text when the
// transcript is not English.
const correctiveInstructions = "Respond with: I can only communicate in English. " +
	"Please repeat in English."

// correctiveMaxTokens caps the corrective reply.
const correctiveMaxTokens = 40

// sessionState tracks where the engine is within a turn.
type sessionState int

const (
	// stateIdle means the engine is listening for the next utterance.
	stateIdle sessionState = iota

	// stateAwaitingTranscript means an utterance was committed and the engine
	// is waiting for the session's transcript (or the fallback deadline).
	stateAwaitingTranscript

	// stateResponseInFlight means a response.create is outstanding. Capture
	// frames are dropped until response.done.
	stateResponseInFlight
)

// String returns the state name for logging.
func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAwaitingTranscript:
		return "awaiting-transcript"
	case stateResponseInFlight:
		return "response-in-flight"
	default:
		return "unknown"
	}
}

// ContextBuilder supplies memory and vision context for an accepted command.
// *enrich.Builder is the production implementation.
type ContextBuilder interface {
	BuildContext(ctx context.Context, userText string) (contextText string, imageRef string)
}

// Recorder receives pipeline metrics. *observe.Metrics is the production
// implementation; a nil Recorder disables recording.
type Recorder interface {
	// TurnCompleted records a finished exchange and its commit-to-done latency.
	TurnCompleted(source string, latency time.Duration)

	// TranscriptWait records how long the engine waited for a transcript.
	TranscriptWait(d time.Duration)

	// FallbackUsed counts a local transcription taking over a turn.
	FallbackUsed()

	// CommandDropped counts an utterance rejected before response.create.
	CommandDropped(reason string)
}

// Deps bundles the engine's collaborators. Provider, Capture, Output and
// Segmenter are required; the rest degrade gracefully when nil.
type Deps struct {
	// Provider opens the realtime session.
	Provider providerrealtime.Provider

	// Capture is the microphone stream.
	Capture audio.Capture

	// Output is the playback path and echo clock.
	Output *audio.Duplex

	// Segmenter is the local VAD.
	Segmenter *vad.Segmenter

	// Fallback transcribes committed audio locally when the session's
	// transcript does not arrive in time. Nil disables the fallback.
	Fallback stt.Transcriber

	// Context enriches accepted commands. Nil disables enrichment.
	Context ContextBuilder

	// Store receives completed turns and remembered exchanges. Nil disables
	// persistence.
	Store memory.Store

	// Wake gates commands on the wake word. Nil disables gating.
	Wake *command.WakeWord

	// Recorder receives metrics. Nil disables recording.
	Recorder Recorder
}

// Config holds the engine's tuning. Zero durations get the assistant's
// defaults.
type Config struct {
	// Session configures the realtime session.
	Session providerrealtime.SessionConfig

	// Instructions is the response style sent with each response.create.
	Instructions string

	// MaxOutputTokens caps each response. Zero means 140.
	MaxOutputTokens int

	// TranscriptTimeout is how long to wait for the session's transcript
	// before transcribing locally. Zero means 3s.
	TranscriptTimeout time.Duration

	// SuppressWindow drops capture frames this close to the last playback
	// write, so the assistant does not hear itself. Zero means 600ms.
	SuppressWindow time.Duration

	// FallbackTimeout bounds a single local transcription call. Zero means 10s.
	FallbackTimeout time.Duration
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = 140
	}
	if c.TranscriptTimeout <= 0 {
		c.TranscriptTimeout = 3 * time.Second
	}
	if c.SuppressWindow <= 0 {
		c.SuppressWindow = 600 * time.Millisecond
	}
	if c.FallbackTimeout <= 0 {
		c.FallbackTimeout = 10 * time.Second
	}
	return c
}

// pendingFallback holds a committed utterance until its transcript arrives
// or the fallback deadline passes.
type pendingFallback struct {
	audio      []byte
	enqueuedAt time.Time
}

// Engine drives the conversation loop. Create one with [New] and run it with
// [Engine.Run]; an Engine is single-use.
type Engine struct {
	deps Deps
	cfg  Config

	runCtx  context.Context
	session providerrealtime.Session

	mu      sync.Mutex
	state   sessionState
	pending *pendingFallback

	lastUserText  string
	lastImageRef  string
	turnSource    string
	turnStartedAt time.Time

	// Assistant text accumulation. The audio transcript is preferred; plain
	// text deltas are the fallback for text-only responses.
	audioTranscript strings.Builder
	textDeltas      strings.Builder
	audioDoneText   string
}

// New creates an Engine. It returns an error when a required dependency is
// missing.
func New(deps Deps, cfg Config) (*Engine, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("engine: Provider is required")
	}
	if deps.Capture == nil {
		return nil, fmt.Errorf("engine: Capture is required")
	}
	if deps.Output == nil {
		return nil, fmt.Errorf("engine: Output is required")
	}
	if deps.Segmenter == nil {
		return nil, fmt.Errorf("engine: Segmenter is required")
	}
	return &Engine{deps: deps, cfg: cfg.withDefaults()}, nil
}

// SetInstructions replaces the response persona. Takes effect from the next
// response onwards; the open session's system instructions are unchanged.
func (e *Engine) SetInstructions(instructions string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Instructions = instructions
}

// Run opens the session, starts capture and processes session events until
// ctx is cancelled or the session ends. It returns the session error when
// the event stream closed because of one.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.runCtx = ctx

	// A previous run may have died mid-turn; start from a clean slate.
	e.mu.Lock()
	e.state = stateIdle
	e.pending = nil
	e.resetTurnLocked()
	e.mu.Unlock()
	e.deps.Segmenter.Reset()

	sess, err := e.deps.Provider.StartSession(ctx, e.cfg.Session)
	if err != nil {
		return fmt.Errorf("engine: start session: %w", err)
	}
	e.session = sess
	defer sess.Close()

	if err := e.deps.Capture.Start(ctx, e.onFrame); err != nil {
		return fmt.Errorf("engine: start capture: %w", err)
	}
	defer func() { _ = e.deps.Capture.Stop() }()

	slog.Info("engine: running",
		"model", e.cfg.Session.Model,
		"transcript_timeout", e.cfg.TranscriptTimeout,
		"suppress_window", e.cfg.SuppressWindow)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-sess.Events():
			if !ok {
				if err := sess.Err(); err != nil {
					return fmt.Errorf("engine: session closed: %w", err)
				}
				return nil
			}
			e.handleEvent(evt)
		}
	}
}

// ─── Capture path ─────────────────────────────────────────────────────────────

// onFrame is the capture callback. It polls the fallback deadline, applies
// echo suppression, feeds the segmenter and mirrors buffered audio into the
// session's input buffer.
func (e *Engine) onFrame(frame audio.AudioFrame) {
	e.maybeFallback()

	e.mu.Lock()
	if e.state == stateResponseInFlight {
		e.mu.Unlock()
		return
	}

	if time.Since(e.deps.Output.LastOutput()) < e.cfg.SuppressWindow {
		e.deps.Segmenter.Reset()
		e.mu.Unlock()
		return
	}

	before := e.deps.Segmenter.BufferedDuration()
	decision, utterance, err := e.deps.Segmenter.Feed(frame)
	if err != nil {
		e.mu.Unlock()
		slog.Warn("engine: frame rejected", "error", err)
		return
	}

	switch decision {
	case vad.Continue:
		buffered := e.deps.Segmenter.BufferedDuration() > before
		e.mu.Unlock()
		if buffered {
			e.appendAudio(frame.Data)
		}

	case vad.UtteranceReady:
		e.state = stateAwaitingTranscript
		e.pending = &pendingFallback{audio: utterance, enqueuedAt: time.Now()}
		e.turnStartedAt = e.pending.enqueuedAt
		e.mu.Unlock()

		e.appendAudio(frame.Data)
		if err := e.session.CommitInput(e.runCtx); err != nil {
			slog.Warn("engine: commit failed", "error", err)
		}
		e.clearInput()
		slog.Debug("engine: utterance committed",
			"duration", audio.DurationOf(utterance, frame.SampleRate, frame.Channels))

	case vad.Reset:
		e.mu.Unlock()
		e.clearInput()
	}
}

// appendAudio mirrors pcm into the session's input buffer.
func (e *Engine) appendAudio(pcm []byte) {
	if err := e.session.AppendAudio(e.runCtx, pcm); err != nil {
		slog.Warn("engine: append failed", "error", err)
	}
}

// clearInput discards the session's input buffer.
func (e *Engine) clearInput() {
	if err := e.session.ClearInput(e.runCtx); err != nil {
		slog.Warn("engine: clear failed", "error", err)
	}
}

// maybeFallback transcribes the pending utterance locally once the
// transcript deadline has passed. The pending audio is claimed under the
// lock, so the fallback fires at most once per committed utterance.
func (e *Engine) maybeFallback() {
	if e.deps.Fallback == nil {
		return
	}

	e.mu.Lock()
	if e.state != stateAwaitingTranscript || e.pending == nil ||
		time.Since(e.pending.enqueuedAt) < e.cfg.TranscriptTimeout {
		e.mu.Unlock()
		return
	}
	pcm := e.pending.audio
	wait := time.Since(e.pending.enqueuedAt)
	e.pending = nil
	e.state = stateIdle
	e.mu.Unlock()

	if e.deps.Recorder != nil {
		e.deps.Recorder.TranscriptWait(wait)
		e.deps.Recorder.FallbackUsed()
	}
	slog.Info("engine: transcript timeout, using local fallback", "waited", wait)

	tctx, cancel := context.WithTimeout(e.runCtx, e.cfg.FallbackTimeout)
	text, err := e.deps.Fallback.Transcribe(tctx, pcm, e.cfg.Session.InputSampleRate)
	cancel()
	if err != nil {
		slog.Warn("engine: fallback transcription failed", "error", err)
		return
	}
	if text == "" {
		return
	}
	e.handleUserText(text, SourceFallback)
}

// ─── Event path ───────────────────────────────────────────────────────────────

// handleEvent processes one session event on the Run goroutine.
func (e *Engine) handleEvent(evt providerrealtime.Event) {
	switch evt.Kind {
	case providerrealtime.KindTranscriptCompleted:
		e.mu.Lock()
		if e.pending != nil {
			if e.deps.Recorder != nil {
				e.deps.Recorder.TranscriptWait(time.Since(e.pending.enqueuedAt))
			}
			e.pending = nil
		}
		if e.state == stateAwaitingTranscript {
			e.state = stateIdle
		}
		e.mu.Unlock()
		e.handleUserText(evt.Text, SourceRealtime)

	case providerrealtime.KindTextDelta:
		e.mu.Lock()
		e.textDeltas.WriteString(evt.Text)
		e.mu.Unlock()

	case providerrealtime.KindAudioDelta:
		if err := e.deps.Output.Write(evt.PCM); err != nil {
			slog.Warn("engine: playback failed", "error", err)
		}

	case providerrealtime.KindAudioTranscriptDelta:
		e.mu.Lock()
		e.audioTranscript.WriteString(evt.Text)
		e.mu.Unlock()

	case providerrealtime.KindAudioTranscriptDone:
		e.mu.Lock()
		e.audioDoneText = evt.Text
		e.mu.Unlock()

	case providerrealtime.KindResponseDone:
		e.finishTurn()

	case providerrealtime.KindError:
		slog.Warn("engine: session error event",
			"code", evt.Code,
			"message", evt.Message)
		e.mu.Lock()
		e.state = stateIdle
		e.pending = nil
		e.resetTurnLocked()
		e.mu.Unlock()
	}
}

// finishTurn closes out the current exchange on response.done: playback gets
// a fresh echo stamp, the turn is logged and remembered, and the engine goes
// back to listening.
func (e *Engine) finishTurn() {
	e.deps.Output.MarkOutput(time.Now())

	e.mu.Lock()
	assistantText := strings.TrimSpace(e.audioDoneText)
	if assistantText == "" {
		assistantText = strings.TrimSpace(e.audioTranscript.String())
	}
	if assistantText == "" {
		assistantText = strings.TrimSpace(e.textDeltas.String())
	}
	userText := e.lastUserText
	imageRef := e.lastImageRef
	source := e.turnSource
	startedAt := e.turnStartedAt
	e.state = stateIdle
	e.resetTurnLocked()
	e.mu.Unlock()

	if userText == "" {
		return
	}

	latency := time.Duration(0)
	if !startedAt.IsZero() {
		latency = time.Since(startedAt)
	}
	if e.deps.Recorder != nil {
		e.deps.Recorder.TurnCompleted(source, latency)
	}
	slog.Info("engine: turn completed",
		"source", source,
		"latency", latency,
		"user_chars", len(userText),
		"assistant_chars", len(assistantText),
		"image", imageRef)

	if e.deps.Store == nil || assistantText == "" {
		return
	}
	if err := e.deps.Store.Remember(e.runCtx,
		fmt.Sprintf("User: %s\nAssistant: %s", userText, assistantText)); err != nil {
		slog.Warn("engine: remember failed", "error", err)
	}
	if err := e.deps.Store.LogTurn(e.runCtx, memory.Turn{
		UserText:      userText,
		AssistantText: assistantText,
		Source:        source,
		StartedAt:     startedAt,
		Latency:       latency,
	}); err != nil {
		slog.Warn("engine: turn log failed", "error", err)
	}
}

// resetTurnLocked clears per-turn accumulation. Must be called with e.mu held.
func (e *Engine) resetTurnLocked() {
	e.lastUserText = ""
	e.lastImageRef = ""
	e.turnSource = ""
	e.turnStartedAt = time.Time{}
	e.audioTranscript.Reset()
	e.textDeltas.Reset()
	e.audioDoneText = ""
}

// ─── Command handling ─────────────────────────────────────────────────────────

// handleUserText runs the guard chain on a recognised utterance and, when it
// survives, issues the response.create for the turn.
func (e *Engine) handleUserText(text string, source string) {
	text = strings.TrimSpace(text)

	e.mu.Lock()
	if text == "" || e.state == stateResponseInFlight {
		e.mu.Unlock()
		return
	}

	if !command.IsEnglish(text) {
		e.state = stateResponseInFlight
		e.resetTurnLocked()
		e.mu.Unlock()
		e.dropCommand("non-english")
		if err := e.session.CreateResponse(e.runCtx, providerrealtime.ResponseRequest{
			Instructions:    correctiveInstructions,
			MaxOutputTokens: correctiveMaxTokens,
		}); err != nil {
			slog.Warn("engine: corrective response failed", "error", err)
			e.mu.Lock()
			e.state = stateIdle
			e.mu.Unlock()
		}
		return
	}

	if !command.IsConfident(text) {
		e.mu.Unlock()
		e.dropCommand("low-confidence")
		return
	}

	if e.deps.Wake != nil {
		remainder, ok := e.deps.Wake.Match(text)
		if !ok {
			e.mu.Unlock()
			e.dropCommand("no-wake-word")
			return
		}
		if remainder == "" {
			e.mu.Unlock()
			e.dropCommand("wake-word-only")
			return
		}
		text = remainder
	}
	startedAt := e.turnStartedAt
	e.mu.Unlock()

	// Enrichment happens outside the lock; it can block on the network.
	var contextText, imageRef string
	if e.deps.Context != nil {
		contextText, imageRef = e.deps.Context.BuildContext(e.runCtx, text)
	}

	inputText := text
	if contextText != "" {
		inputText = fmt.Sprintf("Context:\n%s\n\nUser: %s", contextText, text)
	}

	e.mu.Lock()
	if e.state == stateResponseInFlight {
		e.mu.Unlock()
		return
	}
	e.state = stateResponseInFlight
	e.lastUserText = text
	e.lastImageRef = imageRef
	e.turnSource = source
	e.turnStartedAt = startedAt
	if e.turnStartedAt.IsZero() {
		e.turnStartedAt = time.Now()
	}
	e.audioTranscript.Reset()
	e.textDeltas.Reset()
	e.audioDoneText = ""
	instructions := e.cfg.Instructions
	e.mu.Unlock()

	if err := e.session.CreateResponse(e.runCtx, providerrealtime.ResponseRequest{
		Text:            inputText,
		Instructions:    instructions,
		MaxOutputTokens: e.cfg.MaxOutputTokens,
	}); err != nil {
		slog.Warn("engine: response.create failed", "error", err)
		e.mu.Lock()
		e.state = stateIdle
		e.resetTurnLocked()
		e.mu.Unlock()
	}
}

// dropCommand records a rejected utterance.
func (e *Engine) dropCommand(reason string) {
	if e.deps.Recorder != nil {
		e.deps.Recorder.CommandDropped(reason)
	}
	slog.Debug("engine: command dropped", "reason", reason)
}
