// Package mock provides an in-memory mock implementation of the
// [realtime.Provider] and [realtime.Session] interfaces for use in unit
// tests.
//
// The mock session records every outgoing call so tests can assert on call
// counts and payloads, and exposes [Session.Emit] so tests can inject server
// events into the event stream.
//
// Typical usage:
//
//	sess := mock.NewSession()
//	provider := &mock.Provider{StartResult: sess}
//	...
//	sess.Emit(realtime.Event{Kind: realtime.KindTranscriptCompleted, Text: "hello"})
//	sess.Emit(realtime.Event{Kind: realtime.KindResponseDone})
package mock

import (
	"context"
	"sync"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/realtime"
)

// Compile-time interface assertions.
var (
	_ realtime.Provider = (*Provider)(nil)
	_ realtime.Session  = (*Session)(nil)
)

// ─── Session ──────────────────────────────────────────────────────────────────

// Session is a mock implementation of [realtime.Session].
type Session struct {
	mu sync.Mutex

	// AppendError is returned by [Session.AppendAudio].
	AppendError error

	// CommitError is returned by [Session.CommitInput].
	CommitError error

	// CreateResponseError is returned by [Session.CreateResponse].
	CreateResponseError error

	// ErrResult is returned by [Session.Err].
	ErrResult error

	// AppendedAudio holds the concatenation of all appended PCM.
	AppendedAudio []byte

	// ResponseRequests records every CreateResponse invocation in order.
	ResponseRequests []realtime.ResponseRequest

	// CallCountCommit records how many times CommitInput was called.
	CallCountCommit int

	// CallCountClear records how many times ClearInput was called.
	CallCountClear int

	// CallCountClose records how many times Close was called.
	CallCountClose int

	events    chan realtime.Event
	closeOnce sync.Once
}

// NewSession creates a mock session with a buffered event channel.
func NewSession() *Session {
	return &Session{events: make(chan realtime.Event, 64)}
}

// AppendAudio implements [realtime.Session]. Records the PCM.
func (s *Session) AppendAudio(_ context.Context, pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendError != nil {
		return s.AppendError
	}
	s.AppendedAudio = append(s.AppendedAudio, pcm...)
	return nil
}

// CommitInput implements [realtime.Session].
func (s *Session) CommitInput(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountCommit++
	return s.CommitError
}

// ClearInput implements [realtime.Session].
func (s *Session) ClearInput(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClear++
	return nil
}

// CreateResponse implements [realtime.Session]. Records the request.
func (s *Session) CreateResponse(_ context.Context, req realtime.ResponseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateResponseError != nil {
		return s.CreateResponseError
	}
	s.ResponseRequests = append(s.ResponseRequests, req)
	return nil
}

// Events implements [realtime.Session].
func (s *Session) Events() <-chan realtime.Event { return s.events }

// Err implements [realtime.Session].
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ErrResult
}

// Close implements [realtime.Session]. Closes the event channel. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	s.CallCountClose++
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.events) })
	return nil
}

// Emit injects a server event into the session's event stream.
func (s *Session) Emit(evt realtime.Event) {
	s.events <- evt
}

// Requests returns a copy of the recorded CreateResponse requests.
func (s *Session) Requests() []realtime.ResponseRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]realtime.ResponseRequest, len(s.ResponseRequests))
	copy(out, s.ResponseRequests)
	return out
}

// Appended returns a copy of all PCM appended so far.
func (s *Session) Appended() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.AppendedAudio))
	copy(out, s.AppendedAudio)
	return out
}

// Commits returns how many times CommitInput was called.
func (s *Session) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CallCountCommit
}

// ─── Provider ─────────────────────────────────────────────────────────────────

// StartSessionCall records the arguments of a single StartSession invocation.
type StartSessionCall struct {
	// Config is the SessionConfig passed to StartSession.
	Config realtime.SessionConfig
}

// Provider is a mock implementation of [realtime.Provider].
type Provider struct {
	mu sync.Mutex

	// StartResult is the session returned by StartSession.
	StartResult realtime.Session

	// StartError is the error returned by StartSession.
	StartError error

	// StartCalls records all StartSession invocations.
	StartCalls []StartSessionCall
}

// StartSession implements [realtime.Provider].
func (p *Provider) StartSession(_ context.Context, cfg realtime.SessionConfig) (realtime.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartCalls = append(p.StartCalls, StartSessionCall{Config: cfg})
	return p.StartResult, p.StartError
}
