// Package mock provides an in-memory mock implementation of the
// [llm.Provider] interface for use in unit tests.
package mock

import (
	"context"
	"sync"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/llm"
)

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// Provider is a mock implementation of [llm.Provider].
// Set Result or Err before use; inspect Requests after.
type Provider struct {
	mu sync.Mutex

	// Result is the content returned by Complete.
	Result string

	// Err is returned by Complete.
	Err error

	// Requests records every request passed to Complete.
	Requests []llm.CompletionRequest
}

// Complete records the request and returns Result / Err.
func (p *Provider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)
	if p.Err != nil {
		return nil, p.Err
	}
	return &llm.CompletionResponse{Content: p.Result}, nil
}

// CallCount returns how many times Complete was called.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}
