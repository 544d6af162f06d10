package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"realtime":   {"openai-realtime"},
	"stt":        {"openai", "whisper", "whisper-native"},
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"embeddings": {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. Unset fields keep the values from [Default]. Values of the form
// ${NAME} are expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, expands ${NAME} environment
// references, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	expanded := os.Expand(string(data), func(name string) string {
		return os.Getenv(name)
	})

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Log.Level != "" && !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}

	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameMs <= 0 {
		errs = append(errs, fmt.Errorf("audio.frame_ms must be positive, got %d", cfg.Audio.FrameMs))
	}

	if cfg.VAD.SilenceThreshold < 0 || cfg.VAD.SilenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("vad.silence_threshold %g is out of range [0, 1]", cfg.VAD.SilenceThreshold))
	}
	if cfg.VAD.SilenceMs <= 0 {
		errs = append(errs, fmt.Errorf("vad.silence_ms must be positive, got %d", cfg.VAD.SilenceMs))
	}
	if cfg.VAD.MinSpeechMs <= 0 {
		errs = append(errs, fmt.Errorf("vad.min_speech_ms must be positive, got %d", cfg.VAD.MinSpeechMs))
	}
	if cfg.VAD.MaxBufferSec*1000 <= cfg.VAD.SilenceMs {
		errs = append(errs, fmt.Errorf("vad.max_buffer_sec (%ds) must exceed vad.silence_ms (%dms)", cfg.VAD.MaxBufferSec, cfg.VAD.SilenceMs))
	}

	if cfg.Realtime.Model == "" {
		errs = append(errs, fmt.Errorf("realtime.model is required"))
	}
	if cfg.Realtime.APIKey == "" {
		slog.Warn("realtime.api_key is empty; the session will fail to authenticate unless the backend allows anonymous access")
	}
	if cfg.Realtime.TranscriptTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("realtime.transcript_timeout_ms must be positive, got %d", cfg.Realtime.TranscriptTimeoutMs))
	}
	if cfg.Realtime.SuppressMs < 0 {
		errs = append(errs, fmt.Errorf("realtime.suppress_ms must not be negative, got %d", cfg.Realtime.SuppressMs))
	}

	validateProviderName("stt", cfg.Fallback.Primary.Name)
	for _, b := range cfg.Fallback.Backups {
		validateProviderName("stt", b.Name)
	}
	if cfg.Fallback.BreakerMaxFailures <= 0 {
		errs = append(errs, fmt.Errorf("fallback.breaker_max_failures must be positive, got %d", cfg.Fallback.BreakerMaxFailures))
	}

	validateProviderName("embeddings", cfg.Memory.Embeddings.Name)
	if cfg.Memory.PostgresDSN == "" {
		slog.Warn("memory.postgres_dsn is empty; conversations will not be remembered across runs")
	}
	if cfg.Memory.TopK <= 0 {
		errs = append(errs, fmt.Errorf("memory.top_k must be positive, got %d", cfg.Memory.TopK))
	}

	if cfg.Vision.Enabled {
		if cfg.Vision.CaptureCommand == "" {
			errs = append(errs, fmt.Errorf("vision.capture_command is required when vision is enabled"))
		}
		if cfg.Vision.Model == "" {
			errs = append(errs, fmt.Errorf("vision.model is required when vision is enabled"))
		}
	}

	if cfg.Summaries.Enabled {
		validateProviderName("llm", cfg.Summaries.LLM.Name)
		if cfg.Summaries.LLM.Name == "" {
			errs = append(errs, fmt.Errorf("summaries.llm.name is required when summaries are enabled"))
		}
		if cfg.Memory.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("summaries require memory.postgres_dsn"))
		}
		if cfg.Summaries.IntervalMin <= 0 {
			errs = append(errs, fmt.Errorf("summaries.interval_min must be positive, got %d", cfg.Summaries.IntervalMin))
		}
	}

	if cfg.Wake.Require && cfg.Wake.Word == "" {
		errs = append(errs, fmt.Errorf("wake.word is required when wake.require is true"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
