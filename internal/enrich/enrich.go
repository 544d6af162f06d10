// Package enrich assembles extra context for a user turn before it is sent
// to the realtime session. Two independent signals feed it: semantic recall
// from the memory store and, for vision queries, a live camera frame
// described by a multimodal model.
//
// Enrichment is strictly best-effort. Both lookups run concurrently with a
// short timeout, and any failure degrades to an empty contribution; a turn
// is never blocked or dropped because context could not be gathered.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
)

// FrameDescriber turns a captured frame into spoken-context text.
// *Describer is the production implementation.
type FrameDescriber interface {
	Describe(ctx context.Context, jpeg []byte, prompt string) (string, error)
}

// visionTriggers are the substrings that mark a query as needing the camera.
var visionTriggers = []string{
	"see",
	"look",
	"front",
	"left",
	"right",
	"ahead",
	"around",
	"in front",
	"obstacle",
	"camera",
	"image",
	"photo",
	"picture",
	"what is",
	"describe",
	"read this",
}

// Config holds the enrichment limits. Zero values get defaults matching the
// assistant's tuning.
type Config struct {
	// MemoryMinChars is the minimum query length before memory recall runs.
	MemoryMinChars int

	// MemoryTopK caps how many memories are recalled.
	MemoryTopK int

	// MemorySnippetChars truncates each recalled memory.
	MemorySnippetChars int

	// VisionSnippetChars truncates the frame description.
	VisionSnippetChars int

	// ContextMaxChars clamps the assembled context.
	ContextMaxChars int

	// Timeout bounds each lookup.
	Timeout time.Duration
}

// withDefaults fills zero fields with the standard limits.
func (c Config) withDefaults() Config {
	if c.MemoryMinChars <= 0 {
		c.MemoryMinChars = 12
	}
	if c.MemoryTopK <= 0 {
		c.MemoryTopK = 2
	}
	if c.MemorySnippetChars <= 0 {
		c.MemorySnippetChars = 240
	}
	if c.VisionSnippetChars <= 0 {
		c.VisionSnippetChars = 280
	}
	if c.ContextMaxChars <= 0 {
		c.ContextMaxChars = 520
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// Builder gathers memory and vision context for a user turn.
// Any of store, camera or describer may be nil, which disables that signal.
type Builder struct {
	store     memory.Store
	camera    Camera
	describer FrameDescriber
	cfg       Config
}

// NewBuilder creates a Builder. A nil store disables memory recall; a nil
// camera or describer disables vision.
func NewBuilder(store memory.Store, camera Camera, describer FrameDescriber, cfg Config) *Builder {
	return &Builder{
		store:     store,
		camera:    camera,
		describer: describer,
		cfg:       cfg.withDefaults(),
	}
}

// NeedsVision reports whether userText asks about the surroundings.
func NeedsVision(userText string) bool {
	lowered := strings.ToLower(userText)
	for _, trigger := range visionTriggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}

// BuildContext assembles the extra context for userText. It returns the
// context block (possibly empty) and the path of the captured frame when a
// vision lookup ran, for the turn log.
func (b *Builder) BuildContext(ctx context.Context, userText string) (contextText string, imageRef string) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	var (
		memoryPart string
		visionPart string
		framePath  string
	)

	g, gctx := errgroup.WithContext(ctx)

	if b.store != nil && len(strings.TrimSpace(userText)) >= b.cfg.MemoryMinChars {
		g.Go(func() error {
			memories, err := b.store.Search(gctx, userText, b.cfg.MemoryTopK)
			if err != nil {
				slog.Debug("enrich: memory recall failed", "error", err)
				return nil
			}
			if len(memories) == 0 {
				return nil
			}
			snippets := make([]string, 0, len(memories))
			for _, m := range memories {
				snippets = append(snippets, truncate(m.Text, b.cfg.MemorySnippetChars))
			}
			memoryPart = "Relevant memory:\n- " + strings.Join(snippets, "\n- ")
			return nil
		})
	}

	if b.camera != nil && b.describer != nil && NeedsVision(userText) {
		g.Go(func() error {
			frame, err := b.camera.Capture(gctx)
			if err != nil {
				slog.Warn("enrich: image capture failed", "error", err)
				visionPart = "Image capture failed."
				return nil
			}
			framePath = frame.Path

			description, err := b.describer.Describe(gctx, frame.JPEG, userText)
			if err != nil || description == "" {
				slog.Warn("enrich: vision analysis failed", "error", err)
				visionPart = "Vision analysis failed."
				return nil
			}
			visionPart = "Vision analysis: " + truncate(description, b.cfg.VisionSnippetChars)
			return nil
		})
	}

	// Lookups swallow their own errors, so Wait only reflects ctx cancellation.
	_ = g.Wait()

	var parts []string
	if memoryPart != "" {
		parts = append(parts, memoryPart)
	}
	if visionPart != "" {
		parts = append(parts, visionPart)
	}
	return truncate(strings.Join(parts, "\n\n"), b.cfg.ContextMaxChars), framePath
}

// truncate trims text to maxChars, appending an ellipsis when cut.
func truncate(text string, maxChars int) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= maxChars {
		return trimmed
	}
	return strings.TrimRight(trimmed[:maxChars], " ") + "..."
}
