package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
	memmock "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory/mock"
)

// fakeCamera implements Camera with canned results.
type fakeCamera struct {
	frame Frame
	err   error
	calls int
}

func (c *fakeCamera) Capture(context.Context) (Frame, error) {
	c.calls++
	return c.frame, c.err
}

// fakeDescriber implements FrameDescriber with canned results.
type fakeDescriber struct {
	text    string
	err     error
	prompts []string
}

func (d *fakeDescriber) Describe(_ context.Context, _ []byte, prompt string) (string, error) {
	d.prompts = append(d.prompts, prompt)
	return d.text, d.err
}

func TestNeedsVision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"what's in front of me", true},
		{"describe the room", true},
		{"can you read this label", true},
		{"what do you see around me", true},
		{"remind me to call mom", false},
		{"what time is it", false},
	}
	for _, tt := range tests {
		if got := NeedsVision(tt.text); got != tt.want {
			t.Errorf("NeedsVision(%q) = %v; want %v", tt.text, got, tt.want)
		}
	}
}

func TestBuildContext_MemoryOnly(t *testing.T) {
	t.Parallel()

	store := &memmock.Store{SearchResult: []memory.Memory{
		{Text: "the spare key is under the blue pot"},
		{Text: "pharmacy closes at six"},
	}}
	b := NewBuilder(store, nil, nil, Config{})

	got, imageRef := b.BuildContext(context.Background(), "remind me where my key is")
	if imageRef != "" {
		t.Errorf("imageRef = %q; want empty", imageRef)
	}
	if !strings.Contains(got, "Relevant memory:") {
		t.Fatalf("context missing memory header: %q", got)
	}
	if !strings.Contains(got, "blue pot") || !strings.Contains(got, "pharmacy") {
		t.Errorf("context missing recalled snippets: %q", got)
	}
}

func TestBuildContext_ShortQuerySkipsMemory(t *testing.T) {
	t.Parallel()

	store := &memmock.Store{SearchResult: []memory.Memory{{Text: "unused"}}}
	b := NewBuilder(store, nil, nil, Config{})

	got, _ := b.BuildContext(context.Background(), "hi there")
	if got != "" {
		t.Errorf("context = %q; want empty for short query", got)
	}
	if len(store.SearchQueries) != 0 {
		t.Errorf("Search called %d times; want 0", len(store.SearchQueries))
	}
}

func TestBuildContext_VisionQuery(t *testing.T) {
	t.Parallel()

	cam := &fakeCamera{frame: Frame{Path: "/tmp/img_1.jpg", JPEG: []byte{0xFF, 0xD8}}}
	desc := &fakeDescriber{text: "A doorway ahead with two steps down."}
	b := NewBuilder(nil, cam, desc, Config{})

	got, imageRef := b.BuildContext(context.Background(), "what is in front of me")
	if imageRef != "/tmp/img_1.jpg" {
		t.Errorf("imageRef = %q; want /tmp/img_1.jpg", imageRef)
	}
	if !strings.Contains(got, "Vision analysis: A doorway ahead") {
		t.Errorf("context = %q; want vision analysis", got)
	}
	if cam.calls != 1 {
		t.Errorf("camera called %d times; want 1", cam.calls)
	}
	if len(desc.prompts) != 1 || desc.prompts[0] != "what is in front of me" {
		t.Errorf("describer prompts = %v", desc.prompts)
	}
}

func TestBuildContext_NonVisionQuerySkipsCamera(t *testing.T) {
	t.Parallel()

	cam := &fakeCamera{frame: Frame{Path: "/tmp/img.jpg", JPEG: []byte{1}}}
	desc := &fakeDescriber{text: "unused"}
	b := NewBuilder(nil, cam, desc, Config{})

	if got, _ := b.BuildContext(context.Background(), "remind me to water the plants tomorrow"); got != "" {
		t.Errorf("context = %q; want empty", got)
	}
	if cam.calls != 0 {
		t.Errorf("camera called %d times; want 0", cam.calls)
	}
}

func TestBuildContext_CaptureFailureDegrades(t *testing.T) {
	t.Parallel()

	cam := &fakeCamera{err: errors.New("device busy")}
	desc := &fakeDescriber{text: "unused"}
	b := NewBuilder(nil, cam, desc, Config{})

	got, imageRef := b.BuildContext(context.Background(), "what do you see")
	if imageRef != "" {
		t.Errorf("imageRef = %q; want empty on capture failure", imageRef)
	}
	if got != "Image capture failed." {
		t.Errorf("context = %q; want capture failure notice", got)
	}
}

func TestBuildContext_MemoryErrorDegrades(t *testing.T) {
	t.Parallel()

	store := &memmock.Store{SearchErr: errors.New("connection refused")}
	b := NewBuilder(store, nil, nil, Config{})

	if got, _ := b.BuildContext(context.Background(), "where did I leave my glasses"); got != "" {
		t.Errorf("context = %q; want empty on store error", got)
	}
}

func TestBuildContext_Clamped(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("the pharmacy on main street closes at six. ", 40)
	store := &memmock.Store{SearchResult: []memory.Memory{{Text: long}, {Text: long}}}
	b := NewBuilder(store, nil, nil, Config{})

	got, _ := b.BuildContext(context.Background(), "when does the pharmacy close")
	if len(got) > 520+len("...") {
		t.Errorf("context length = %d; want ≤ %d", len(got), 520+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("clamped context should end with ellipsis: %q", got[len(got)-10:])
	}
}

func TestBuildContext_BothSignals(t *testing.T) {
	t.Parallel()

	store := &memmock.Store{SearchResult: []memory.Memory{{Text: "the hallway rug slips"}}}
	cam := &fakeCamera{frame: Frame{Path: "/tmp/img_2.jpg", JPEG: []byte{1}}}
	desc := &fakeDescriber{text: "A rug on a wooden floor."}
	b := NewBuilder(store, cam, desc, Config{Timeout: 2 * time.Second})

	got, imageRef := b.BuildContext(context.Background(), "is there anything in front of me")
	if imageRef == "" {
		t.Error("expected imageRef for vision query")
	}
	memIdx := strings.Index(got, "Relevant memory:")
	visIdx := strings.Index(got, "Vision analysis:")
	if memIdx < 0 || visIdx < 0 {
		t.Fatalf("context missing a section: %q", got)
	}
	if memIdx > visIdx {
		t.Errorf("memory section should precede vision section: %q", got)
	}
}
