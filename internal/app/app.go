// Package app wires all VisionAid subsystems into a running assistant.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the conversation loop until the context is
// cancelled, and Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithAudioDevices, WithMemoryStore, etc.). When an option is not provided,
// New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/command"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/config"
	enginert "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/engine/realtime"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/enrich"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/health"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/observe"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/resilience"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/summary"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio/miniaudio"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/memory/postgres"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/embeddings"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/llm"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/realtime"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/stt"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/vad"
)

// defaultInstructions is the built-in persona when realtime.instructions is
// not configured.
const defaultInstructions = "You are VisionAid, a voice assistant for a blind user. " +
	"Always respond in English. Keep answers short, concrete, and easy to follow by ear. " +
	"When describing surroundings, mention obstacles and their direction first."

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	// Realtime opens the duplex voice session. Required.
	Realtime realtime.Provider

	// Transcriber is the local fallback chain for transcript timeouts.
	Transcriber stt.Transcriber

	// LLM writes the daily summaries.
	LLM llm.Provider

	// Embeddings vectorises memories for semantic recall.
	Embeddings embeddings.Provider
}

// App owns all subsystem lifetimes and orchestrates the assistant pipeline.
type App struct {
	cfg       *config.Config
	providers *Providers
	metrics   *observe.Metrics

	engine     *enginert.Engine
	summariser *summary.Summariser
	wake       *command.WakeWord
	httpSrv    *http.Server

	memStore memory.Store
	sumStore memory.SummaryStore

	// closers are called in reverse order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once

	// test injection points, set by options before wiring.
	capture  audio.Capture
	playback audio.Playback
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithAudioDevices injects capture and playback devices instead of opening
// the native audio backend.
func WithAudioDevices(capture audio.Capture, playback audio.Playback) Option {
	return func(a *App) {
		a.capture = capture
		a.playback = playback
	}
}

// WithMemoryStore injects a memory store instead of connecting to Postgres.
// st may also implement [memory.SummaryStore] to enable summaries.
func WithMemoryStore(st memory.Store) Option {
	return func(a *App) {
		a.memStore = st
		if ss, ok := st.(memory.SummaryStore); ok {
			a.sumStore = ss
		}
	}
}

// WithMetrics injects a metrics instance instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// New wires the assistant from cfg and providers. providers.Realtime is
// required; everything else degrades gracefully when absent.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.Realtime == nil {
		return nil, fmt.Errorf("app: a realtime provider is required")
	}

	a := &App{cfg: cfg, providers: providers}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initMemory(ctx); err != nil {
		a.closeAll()
		return nil, err
	}
	if err := a.initAudio(); err != nil {
		a.closeAll()
		return nil, err
	}
	if err := a.initEngine(ctx); err != nil {
		a.closeAll()
		return nil, err
	}
	a.initHTTP()

	return a, nil
}

// initMemory connects the Postgres store when configured and not injected.
func (a *App) initMemory(ctx context.Context) error {
	if a.memStore != nil || a.cfg.Memory.PostgresDSN == "" {
		return nil
	}
	if a.providers.Embeddings == nil {
		slog.Warn("memory.postgres_dsn is set but no embeddings provider is configured; memory disabled")
		return nil
	}

	st, err := postgres.NewStore(ctx, a.cfg.Memory.PostgresDSN, a.providers.Embeddings)
	if err != nil {
		return fmt.Errorf("app: connect memory store: %w", err)
	}
	a.memStore = st
	a.sumStore = st
	a.closers = append(a.closers, func() error {
		st.Close()
		return nil
	})
	slog.Info("memory store connected")
	return nil
}

// initAudio opens the native capture/playback devices unless injected.
func (a *App) initAudio() error {
	if a.capture != nil && a.playback != nil {
		return nil
	}

	maCtx, err := miniaudio.NewContext()
	if err != nil {
		return fmt.Errorf("app: audio backend: %w", err)
	}
	a.closers = append(a.closers, maCtx.Close)

	frameSize := time.Duration(a.cfg.Audio.FrameMs) * time.Millisecond
	capture := miniaudio.NewCapture(maCtx, a.cfg.Audio.SampleRate, frameSize)
	playback := miniaudio.NewPlayback(maCtx, a.cfg.Audio.SampleRate)
	a.closers = append(a.closers, playback.Stop)

	a.capture = capture
	a.playback = playback
	return nil
}

// initEngine builds the segmenter, enrichment, summariser, and conversation
// engine.
func (a *App) initEngine(ctx context.Context) error {
	seg, err := vad.NewSegmenter(vad.Config{
		SampleRate:        a.cfg.Audio.SampleRate,
		FrameSizeMs:       a.cfg.Audio.FrameMs,
		SilenceThreshold:  a.cfg.VAD.SilenceThreshold,
		SilenceDuration:   a.cfg.VAD.SilenceDuration(),
		MinSpeechDuration: a.cfg.VAD.MinSpeechDuration(),
		MaxBufferDuration: a.cfg.VAD.MaxBufferDuration(),
	})
	if err != nil {
		return fmt.Errorf("app: segmenter: %w", err)
	}

	builder, err := a.buildEnrichment()
	if err != nil {
		return err
	}
	var ctxBuilder enginert.ContextBuilder
	if builder != nil {
		ctxBuilder = builder
	}

	instructions := a.cfg.Realtime.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}

	if a.cfg.Summaries.Enabled && a.sumStore != nil && a.providers.LLM != nil {
		a.summariser = summary.New(a.sumStore, a.providers.LLM)
		if sup := a.summariser.InstructionSupplement(ctx, a.cfg.Summaries.Recent); sup != "" {
			instructions += "\n\n" + sup
		}
	}

	if a.cfg.Wake.Word != "" {
		a.wake = command.NewWakeWord(a.cfg.Wake.Word, a.cfg.Wake.Require)
	}

	a.engine, err = enginert.New(
		enginert.Deps{
			Provider:  a.providers.Realtime,
			Capture:   a.capture,
			Output:    audio.NewDuplex(a.playback),
			Segmenter: seg,
			Fallback:  a.providers.Transcriber,
			Context:   ctxBuilder,
			Store:     a.memStore,
			Wake:      a.wake,
			Recorder:  a.metrics,
		},
		enginert.Config{
			Session: realtime.SessionConfig{
				Model:              a.cfg.Realtime.Model,
				Voice:              a.cfg.Realtime.Voice,
				Instructions:       instructions,
				InputSampleRate:    a.cfg.Audio.SampleRate,
				TranscriptionModel: a.cfg.Realtime.TranscriptionModel,
				MaxOutputTokens:    a.cfg.Realtime.MaxOutputTokens,
			},
			Instructions:      instructions,
			MaxOutputTokens:   a.cfg.Realtime.MaxOutputTokens,
			TranscriptTimeout: a.cfg.Realtime.TranscriptTimeout(),
			SuppressWindow:    a.cfg.Realtime.SuppressWindow(),
		},
	)
	if err != nil {
		return fmt.Errorf("app: engine: %w", err)
	}
	return nil
}

// buildEnrichment assembles the context builder from the memory and vision
// config. Returns nil when neither signal is available.
func (a *App) buildEnrichment() (*enrich.Builder, error) {
	var (
		camera    enrich.Camera
		describer enrich.FrameDescriber
	)
	if a.cfg.Vision.Enabled {
		cam, err := enrich.NewExecCamera(a.cfg.Vision.CaptureCommand, a.cfg.Vision.CaptureArgs, a.cfg.Vision.ImageDir)
		if err != nil {
			return nil, fmt.Errorf("app: camera: %w", err)
		}
		desc, err := enrich.NewDescriber(a.cfg.Vision.APIKey, a.cfg.Vision.Model, a.cfg.Vision.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("app: vision describer: %w", err)
		}
		camera = cam
		describer = desc
	}

	if a.memStore == nil && camera == nil {
		return nil, nil
	}
	return enrich.NewBuilder(a.memStore, camera, describer, enrich.Config{
		MemoryMinChars:     a.cfg.Memory.MinQueryChars,
		MemoryTopK:         a.cfg.Memory.TopK,
		MemorySnippetChars: a.cfg.Memory.SnippetChars,
		VisionSnippetChars: a.cfg.Vision.SnippetChars,
		ContextMaxChars:    a.cfg.Memory.ContextMaxChars,
	}), nil
}

// initHTTP builds the metrics/health listener when configured.
func (a *App) initHTTP() {
	if a.cfg.Observability.ListenAddr == "" {
		return
	}

	checkers := []health.Checker{}
	if st, ok := a.memStore.(interface{ Ping(context.Context) error }); ok && st != nil {
		checkers = append(checkers, health.Checker{Name: "database", Check: st.Ping})
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.httpSrv = &http.Server{
		Addr:              a.cfg.Observability.ListenAddr,
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run executes the assistant until ctx is cancelled or the session fails.
// It blocks; Shutdown must still be called afterwards to release resources.
func (a *App) Run(ctx context.Context) error {
	if a.httpSrv != nil {
		go func() {
			slog.Info("observability listener started", "addr", a.httpSrv.Addr)
			if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("observability listener failed", "err", err)
			}
		}()
	}

	if a.summariser != nil {
		go a.summariser.Start(ctx, a.cfg.Summaries.Interval())
	}

	a.metrics.ActiveSessions.Add(ctx, 1)
	defer a.metrics.ActiveSessions.Add(context.Background(), -1)

	// The realtime session dies with the network; supervise the conversation
	// loop so a dropped WebSocket reconnects instead of exiting.
	sup := resilience.NewSupervisor(resilience.SupervisorConfig{Name: "realtime session"})
	return sup.Run(ctx, a.engine.Run)
}

// ApplyDiff applies hot-reloadable config changes to the running assistant.
// Log level changes are handled by the caller; this covers the wake word and
// the response persona.
func (a *App) ApplyDiff(d config.ConfigDiff) {
	if d.WakeChanged && a.wake != nil {
		a.wake.Set(d.NewWake.Word, d.NewWake.Require)
		slog.Info("wake word updated", "word", d.NewWake.Word, "require", d.NewWake.Require)
	}
	if d.InstructionsChanged {
		instructions := d.NewInstructions
		if instructions == "" {
			instructions = defaultInstructions
		}
		a.engine.SetInstructions(instructions)
		slog.Info("response persona updated")
	}
}

// Shutdown releases all resources. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		var errs []error
		if a.httpSrv != nil {
			if e := a.httpSrv.Shutdown(ctx); e != nil {
				errs = append(errs, fmt.Errorf("http listener: %w", e))
			}
		}
		errs = append(errs, a.closeAll())
		err = errors.Join(errs...)
	})
	return err
}

// closeAll runs the registered closers in reverse order.
func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if e := a.closers[i](); e != nil {
			errs = append(errs, e)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
