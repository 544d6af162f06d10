package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/app"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/config"
	audiomock "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio/mock"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
	memorymock "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory/mock"
	llmmock "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/llm/mock"
	rtmock "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/realtime/mock"
)

// testConfig returns the defaults with everything external switched off.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Memory.PostgresDSN = ""
	cfg.Observability.ListenAddr = ""
	return &cfg
}

// testProviders wires a mock realtime provider around a fresh mock session.
func testProviders() (*app.Providers, *rtmock.Session) {
	sess := rtmock.NewSession()
	return &app.Providers{
		Realtime: &rtmock.Provider{StartResult: sess},
	}, sess
}

// newTestApp builds an App with mock audio and the given extra options.
func newTestApp(t *testing.T, cfg *config.Config, providers *app.Providers, opts ...app.Option) *app.App {
	t.Helper()

	capture := &audiomock.Capture{}
	playback := &audiomock.Playback{}
	opts = append([]app.Option{app.WithAudioDevices(capture, playback)}, opts...)

	a, err := app.New(context.Background(), cfg, providers, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return a
}

func TestNew_RequiresRealtimeProvider(t *testing.T) {
	t.Parallel()

	if _, err := app.New(context.Background(), testConfig(), nil); err == nil {
		t.Fatal("New accepted nil providers")
	}
	if _, err := app.New(context.Background(), testConfig(), &app.Providers{}); err == nil {
		t.Fatal("New accepted providers without a realtime provider")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	providers, _ := testProviders()
	a := newTestApp(t, testConfig(), providers)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_SessionUsesConfiguredModel(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Realtime.Model = "gpt-4o-realtime-preview"
	cfg.Realtime.Voice = "verse"

	sess := rtmock.NewSession()
	provider := &rtmock.Provider{StartResult: sess}
	a := newTestApp(t, cfg, &app.Providers{Realtime: provider})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()
	<-done

	if len(provider.StartCalls) != 1 {
		t.Fatalf("StartSession called %d times, want 1", len(provider.StartCalls))
	}
	sc := provider.StartCalls[0].Config
	if sc.Model != "gpt-4o-realtime-preview" {
		t.Errorf("session model = %q", sc.Model)
	}
	if sc.Voice != "verse" {
		t.Errorf("session voice = %q", sc.Voice)
	}
	if sc.InputSampleRate != cfg.Audio.SampleRate {
		t.Errorf("session sample rate = %d, want %d", sc.InputSampleRate, cfg.Audio.SampleRate)
	}
}

func TestRun_DefaultPersonaWhenInstructionsUnset(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Realtime.Instructions = ""

	sess := rtmock.NewSession()
	provider := &rtmock.Provider{StartResult: sess}
	a := newTestApp(t, cfg, &app.Providers{Realtime: provider})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()
	<-done

	if len(provider.StartCalls) != 1 {
		t.Fatalf("StartSession called %d times, want 1", len(provider.StartCalls))
	}
	instr := provider.StartCalls[0].Config.Instructions
	if !strings.Contains(instr, "VisionAid") {
		t.Errorf("session instructions missing built-in persona: %q", instr)
	}
	if !strings.Contains(instr, "English") {
		t.Errorf("session instructions missing language constraint: %q", instr)
	}
}

func TestNew_SummariesFoldRecentIntoInstructions(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Summaries.Enabled = true
	cfg.Summaries.Recent = 2

	store := &memorymock.Store{}
	for _, s := range []string{"Walked the park loop twice.", "Grocery store was crowded."} {
		if err := store.SaveSummary(context.Background(), memory.DailySummary{Summary: s}); err != nil {
			t.Fatalf("SaveSummary: %v", err)
		}
	}

	sess := rtmock.NewSession()
	provider := &rtmock.Provider{StartResult: sess}
	a := newTestApp(t, cfg,
		&app.Providers{Realtime: provider, LLM: &llmmock.Provider{Result: "Summary: ok\nKey_Tags: park"}},
		app.WithMemoryStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()
	<-done

	instr := provider.StartCalls[0].Config.Instructions
	if !strings.Contains(instr, "What you remember from recent days:") {
		t.Fatalf("instructions missing summary supplement: %q", instr)
	}
	if !strings.Contains(instr, "Grocery store was crowded.") {
		t.Errorf("instructions missing recent summary: %q", instr)
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	t.Parallel()

	providers, _ := testProviders()
	a := newTestApp(t, testConfig(), providers)

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
