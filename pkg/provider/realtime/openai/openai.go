// Package openai implements the realtime.Provider interface for OpenAI's
// Realtime API.
//
// It establishes a bidirectional WebSocket connection to the Realtime
// endpoint and exchanges JSON events according to the Realtime API protocol.
// Audio is transmitted as base64-encoded PCM16 chunks. Server turn detection
// is disabled: the local segmenter decides when an utterance is complete and
// commits the input buffer explicitly.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/realtime"
)

// Compile-time assertions that Provider and session satisfy the realtime interfaces.
var _ realtime.Provider = (*Provider)(nil)
var _ realtime.Session = (*session)(nil)

const (
	defaultModel   = "gpt-4o-realtime-preview"
	defaultBaseURL = "wss://api.openai.com/v1/realtime"
)

// ── Options ────────────────────────────────────────────────────────────────────

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithBaseURL overrides the base WebSocket URL. Primarily used in tests to
// point at a local mock server.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// ── Provider ───────────────────────────────────────────────────────────────────

// Provider implements realtime.Provider for OpenAI's Realtime API.
type Provider struct {
	apiKey  string
	baseURL string
}

// New creates a new OpenAI Realtime Provider with the given API key and options.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai realtime: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// StartSession establishes a new Realtime session with the given configuration.
// The returned Session is ready to accept audio once the session.update
// message has been sent.
func (p *Provider) StartSession(ctx context.Context, cfg realtime.SessionConfig) (realtime.Session, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	wsURL := fmt.Sprintf("%s?model=%s", p.baseURL, model)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + p.apiKey},
			"OpenAI-Beta":   []string{"realtime=v1"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai realtime: dial: %w", err)
	}

	sessCtx, sessCancel := context.WithCancel(context.Background())
	sess := &session{
		conn:   conn,
		events: make(chan realtime.Event, 64),
		ctx:    sessCtx,
		cancel: sessCancel,
	}

	if err := sess.sendSessionUpdate(cfg); err != nil {
		sessCancel()
		conn.Close(websocket.StatusInternalError, "session update failed")
		return nil, fmt.Errorf("openai realtime: session update: %w", err)
	}

	go sess.receiveLoop()

	return sess, nil
}

// ── Protocol message types (outgoing) ─────────────────────────────────────────

type sessionUpdateMessage struct {
	Type    string        `json:"type"`
	Session sessionParams `json:"session"`
}

type sessionParams struct {
	Modalities         []string          `json:"modalities,omitempty"`
	Voice              string            `json:"voice,omitempty"`
	Instructions       string            `json:"instructions,omitempty"`
	InputAudioFormat   string            `json:"input_audio_format"`
	OutputAudioFormat  string            `json:"output_audio_format"`
	InputTranscription *transcriptionCfg `json:"input_audio_transcription,omitempty"`

	// TurnDetection is always null: the local segmenter owns turn boundaries.
	TurnDetection any `json:"turn_detection"`

	MaxOutputTokens int `json:"max_response_output_tokens,omitempty"`
}

type transcriptionCfg struct {
	Model string `json:"model"`
}

type appendAudioMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"` // base64-encoded PCM16
}

type createResponseMessage struct {
	Type     string         `json:"type"`
	Response responseParams `json:"response"`
}

type responseParams struct {
	Modalities      []string           `json:"modalities,omitempty"`
	Instructions    string             `json:"instructions,omitempty"`
	Input           []conversationItem `json:"input,omitempty"`
	MaxOutputTokens int                `json:"max_output_tokens,omitempty"`
}

type conversationItem struct {
	Type    string             `json:"type"`
	Role    string             `json:"role,omitempty"`
	Content []conversationPart `json:"content,omitempty"`
}

type conversationPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// serverErrorDetail represents the nested error object in a Realtime error
// event: {"type":"error","error":{"type":"...","code":"...","message":"..."}}.
type serverErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ── Protocol message types (incoming) ─────────────────────────────────────────

type serverEvent struct {
	Type string `json:"type"`

	// response.audio.delta / response.output_text.delta /
	// response.audio_transcript.delta
	Delta string `json:"delta,omitempty"`

	// conversation.item.input_audio_transcription.completed and
	// response.audio_transcript.done
	Transcript string `json:"transcript,omitempty"`

	// error event
	Error *serverErrorDetail `json:"error,omitempty"`
}

// ── session ────────────────────────────────────────────────────────────────────

type session struct {
	conn   *websocket.Conn
	events chan realtime.Event

	mu     sync.Mutex
	errVal error
	closed bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// sendSessionUpdate sends a session.update event configuring voice,
// instructions, audio formats, and input transcription.
func (s *session) sendSessionUpdate(cfg realtime.SessionConfig) error {
	params := sessionParams{
		Modalities:        []string{"audio", "text"},
		Voice:             cfg.Voice,
		Instructions:      cfg.Instructions,
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
		MaxOutputTokens:   cfg.MaxOutputTokens,
	}
	if cfg.TranscriptionModel != "" {
		params.InputTranscription = &transcriptionCfg{Model: cfg.TranscriptionModel}
	}
	return s.writeJSON(sessionUpdateMessage{Type: "session.update", Session: params})
}

// writeJSON marshals v and writes it as a text WebSocket message.
func (s *session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("openai realtime: marshal: %w", err)
	}
	return s.conn.Write(s.ctx, websocket.MessageText, data)
}

// receiveLoop reads events from the WebSocket and dispatches them.
// It owns the events channel: it closes it when it exits.
func (s *session) receiveLoop() {
	defer s.closeEvents()

	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.setErr(err)
			return
		}

		var evt serverEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}

		s.handleServerEvent(&evt)
	}
}

func (s *session) handleServerEvent(evt *serverEvent) {
	switch evt.Type {
	case "conversation.item.input_audio_transcription.completed":
		s.emit(realtime.Event{Kind: realtime.KindTranscriptCompleted, Text: evt.Transcript})

	case "response.output_text.delta", "response.text.delta":
		if evt.Delta == "" {
			return
		}
		s.emit(realtime.Event{Kind: realtime.KindTextDelta, Text: evt.Delta})

	case "response.audio.delta":
		if evt.Delta == "" {
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(evt.Delta)
		if err != nil || len(pcm) == 0 {
			return
		}
		s.emit(realtime.Event{Kind: realtime.KindAudioDelta, PCM: pcm})

	case "response.audio_transcript.delta":
		if evt.Delta == "" {
			return
		}
		s.emit(realtime.Event{Kind: realtime.KindAudioTranscriptDelta, Text: evt.Delta})

	case "response.audio_transcript.done":
		s.emit(realtime.Event{Kind: realtime.KindAudioTranscriptDone, Text: evt.Transcript})

	case "response.done":
		s.emit(realtime.Event{Kind: realtime.KindResponseDone})

	case "error":
		out := realtime.Event{Kind: realtime.KindError, Message: "unknown error"}
		if evt.Error != nil {
			out.Code = evt.Error.Code
			if evt.Error.Message != "" {
				out.Message = evt.Error.Message
			}
		}
		s.emit(out)
	}
}

func (s *session) emit(evt realtime.Event) {
	select {
	case s.events <- evt:
	case <-s.ctx.Done():
	}
}

func (s *session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errVal == nil {
		s.errVal = err
	}
}

func (s *session) closeEvents() {
	s.closeOnce.Do(func() {
		close(s.events)
	})
}

// ── Session methods ────────────────────────────────────────────────────────────

// AppendAudio streams a raw PCM16 chunk into the server's input buffer.
func (s *session) AppendAudio(_ context.Context, pcm []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.writeJSON(appendAudioMessage{
		Type:  "input_audio_buffer.append",
		Audio: base64.StdEncoding.EncodeToString(pcm),
	})
}

// CommitInput finalises the input buffer as one user utterance.
func (s *session) CommitInput(_ context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.writeJSON(map[string]string{"type": "input_audio_buffer.commit"})
}

// ClearInput discards the server-side input buffer.
func (s *session) ClearInput(_ context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.writeJSON(map[string]string{"type": "input_audio_buffer.clear"})
}

// CreateResponse asks the model to produce a response turn.
func (s *session) CreateResponse(_ context.Context, req realtime.ResponseRequest) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	params := responseParams{
		Modalities:      []string{"audio", "text"},
		Instructions:    req.Instructions,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.TextOnly {
		params.Modalities = []string{"text"}
	}
	if req.Text != "" {
		params.Input = []conversationItem{{
			Type: "message",
			Role: "user",
			Content: []conversationPart{
				{Type: "input_text", Text: req.Text},
			},
		}}
	}
	return s.writeJSON(createResponseMessage{Type: "response.create", Response: params})
}

// Events returns the channel on which server events arrive.
func (s *session) Events() <-chan realtime.Event { return s.events }

// Err returns the first non-nil error that caused the session to terminate.
func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errVal
}

// Close terminates the session and releases all resources. Idempotent.
func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.conn.Close(websocket.StatusNormalClosure, "session closed")
	return nil
}

func (s *session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("openai realtime: session closed")
	}
	return nil
}
