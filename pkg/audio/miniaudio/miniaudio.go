// Package miniaudio provides [audio.Capture] and [audio.Playback]
// implementations backed by the miniaudio library via github.com/gen2brain/malgo.
//
// A single [Context] owns the native audio backend and is shared by the
// capture and playback devices. Both devices run mono 16-bit PCM at the
// configured sample rate, matching the pipeline format end to end so no
// conversion is needed on the hot path.
package miniaudio

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/malgo"
)

// Context wraps the allocated miniaudio backend context. Create one per
// process with [NewContext] and close it after all devices are stopped.
type Context struct {
	ctx *malgo.AllocatedContext
}

// NewContext initialises the native audio backend. Backend log lines are
// forwarded to slog at debug level.
func NewContext() (*Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("miniaudio: " + message)
	})
	if err != nil {
		return nil, fmt.Errorf("miniaudio: init context: %w", err)
	}
	return &Context{ctx: ctx}, nil
}

// Close tears down the backend context. Devices created from this context
// must be stopped first.
func (c *Context) Close() error {
	if c.ctx == nil {
		return nil
	}
	if err := c.ctx.Uninit(); err != nil {
		return fmt.Errorf("miniaudio: uninit context: %w", err)
	}
	c.ctx.Free()
	c.ctx = nil
	return nil
}
