// Command visionaid is the voice assistant daemon for visually impaired
// users: microphone in, realtime model, speaker out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/app"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/config"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/observe"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/resilience"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/embeddings"
	oaembed "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/embeddings/openai"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/llm"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/llm/anyllm"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/realtime"
	rtopenai "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/realtime/openai"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/stt"
	sttopenai "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/stt/openai"
	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/provider/stt/whisper"
)

// logLevel is the runtime-adjustable level behind the default logger. The
// config watcher updates it on hot reload.
var logLevel = new(slog.LevelVar)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "visionaid: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "visionaid: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Log.Level))

	slog.Info("visionaid starting",
		"config", *configPath,
		"log_level", cfg.Log.Level,
		"sample_rate", cfg.Audio.SampleRate,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceName: "visionaid",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(ctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if !d.Any() {
			return
		}
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "level", d.NewLogLevel)
		}
		application.ApplyDiff(d)
	})
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("assistant ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		_ = application.Shutdown(context.Background())
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives its config block and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Realtime ──────────────────────────────────────────────────────────────

	reg.RegisterRealtime("openai-realtime", func(cfg config.RealtimeConfig) (realtime.Provider, error) {
		var opts []rtopenai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, rtopenai.WithBaseURL(cfg.BaseURL))
		}
		return rtopenai.New(cfg.APIKey, opts...)
	})

	// ── STT (local fallback transcription) ────────────────────────────────────

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []sttopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, sttopenai.WithLanguage(lang))
		}
		return sttopenai.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	// ── LLM (daily summaries) ─────────────────────────────────────────────────
	// openai, anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile
	// all share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── Embeddings ────────────────────────────────────────────────────────────

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in an [app.Providers] struct for the application to consume.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	rt, err := reg.CreateRealtime("openai-realtime", cfg.Realtime)
	if err != nil {
		return nil, fmt.Errorf("create realtime provider: %w", err)
	}
	ps.Realtime = rt
	slog.Info("provider created", "kind", "realtime", "name", "openai-realtime", "model", cfg.Realtime.Model)

	if name := cfg.Fallback.Primary.Name; name != "" {
		chain, err := buildTranscriberChain(cfg, reg)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "stt", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create stt fallback chain: %w", err)
		} else {
			ps.Transcriber = chain
			slog.Info("provider created", "kind", "stt", "name", name, "backups", len(cfg.Fallback.Backups))
		}
	}

	if name := cfg.Summaries.LLM.Name; cfg.Summaries.Enabled && name != "" {
		p, err := reg.CreateLLM(cfg.Summaries.LLM)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "llm", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		} else {
			ps.LLM = p
			slog.Info("provider created", "kind", "llm", "name", name)
		}
	}

	if name := cfg.Memory.Embeddings.Name; cfg.Memory.PostgresDSN != "" && name != "" {
		p, err := reg.CreateEmbeddings(cfg.Memory.Embeddings)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "embeddings", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create embeddings provider %q: %w", name, err)
		} else {
			ps.Embeddings = p
			slog.Info("provider created", "kind", "embeddings", "name", name)
		}
	}

	return ps, nil
}

// buildTranscriberChain assembles the primary transcriber plus backups behind
// per-backend circuit breakers.
func buildTranscriberChain(cfg *config.Config, reg *config.Registry) (stt.Transcriber, error) {
	primary, err := reg.CreateSTT(cfg.Fallback.Primary)
	if err != nil {
		return nil, err
	}

	chain := resilience.NewTranscriberFallback(primary, cfg.Fallback.Primary.Name, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Name:         "stt",
			MaxFailures:  cfg.Fallback.BreakerMaxFailures,
			ResetTimeout: time.Duration(cfg.Fallback.BreakerResetSec) * time.Second,
		},
	})

	for _, entry := range cfg.Fallback.Backups {
		t, err := reg.CreateSTT(entry)
		if err != nil {
			return nil, fmt.Errorf("backup %q: %w", entry.Name, err)
		}
		chain.AddFallback(entry.Name, t)
	}
	return chain, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        VisionAid — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Realtime", cfg.Realtime.Model+" / "+cfg.Realtime.Voice)
	printRow("Fallback STT", providerLabel(cfg.Fallback.Primary))
	if cfg.Memory.PostgresDSN != "" {
		printRow("Memory", providerLabel(cfg.Memory.Embeddings))
	} else {
		printRow("Memory", "(disabled)")
	}
	if cfg.Vision.Enabled {
		printRow("Vision", cfg.Vision.Model)
	} else {
		printRow("Vision", "(disabled)")
	}
	if cfg.Summaries.Enabled {
		printRow("Summaries", providerLabel(cfg.Summaries.LLM))
	} else {
		printRow("Summaries", "(disabled)")
	}
	if cfg.Wake.Require {
		printRow("Wake word", cfg.Wake.Word)
	} else {
		printRow("Wake word", "(not required)")
	}
	if cfg.Observability.ListenAddr != "" {
		printRow("Listen addr", cfg.Observability.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func providerLabel(entry config.ProviderEntry) string {
	if entry.Name == "" {
		return "(not configured)"
	}
	if entry.Model != "" {
		return entry.Name + " / " + entry.Model
	}
	return entry.Name
}

func printRow(kind, value string) {
	if len([]rune(value)) > 19 {
		value = string([]rune(value)[:16]) + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	logLevel.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
