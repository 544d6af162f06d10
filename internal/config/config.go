// Package config provides the configuration schema, loader, provider
// registry, and hot-reload watcher for the VisionAid assistant.
package config

import "time"

// LogLevel controls log verbosity for the assistant.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for VisionAid.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader];
// unset fields keep the values from [Default].
type Config struct {
	Log           LogConfig           `yaml:"log"`
	Audio         AudioConfig         `yaml:"audio"`
	VAD           VADConfig           `yaml:"vad"`
	Realtime      RealtimeConfig      `yaml:"realtime"`
	Fallback      FallbackConfig      `yaml:"fallback"`
	Memory        MemoryConfig        `yaml:"memory"`
	Vision        VisionConfig        `yaml:"vision"`
	Summaries     SummariesConfig     `yaml:"summaries"`
	Wake          WakeConfig          `yaml:"wake"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level controls verbosity.
	Level LogLevel `yaml:"level"`
}

// AudioConfig holds the shared microphone/speaker stream parameters. The
// pipeline is mono PCM16 end to end.
type AudioConfig struct {
	// SampleRate in Hz for both capture and playback.
	SampleRate int `yaml:"sample_rate"`

	// FrameMs is the capture frame duration in milliseconds.
	FrameMs int `yaml:"frame_ms"`
}

// VADConfig tunes the peak-amplitude utterance segmenter.
type VADConfig struct {
	// SilenceThreshold is the normalised peak amplitude (0.0-1.0) below which
	// a frame counts as silence.
	SilenceThreshold float64 `yaml:"silence_threshold"`

	// SilenceMs is how much trailing silence ends an utterance.
	SilenceMs int `yaml:"silence_ms"`

	// MinSpeechMs is the least accumulated speech an utterance must contain.
	MinSpeechMs int `yaml:"min_speech_ms"`

	// MaxBufferSec caps the utterance buffer.
	MaxBufferSec int `yaml:"max_buffer_sec"`
}

// RealtimeConfig configures the duplex voice session.
type RealtimeConfig struct {
	// APIKey authenticates with the realtime backend. Supports ${ENV}
	// expansion, e.g. "${OPENAI_API_KEY}".
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default endpoint. Empty means default.
	BaseURL string `yaml:"base_url"`

	// Model is the realtime model identifier.
	Model string `yaml:"model"`

	// Voice selects the synthesised output voice.
	Voice string `yaml:"voice"`

	// TranscriptionModel enables server-side input transcription.
	TranscriptionModel string `yaml:"transcription_model"`

	// Instructions is the assistant persona sent with the session and every
	// response. Empty means the built-in accessibility persona.
	Instructions string `yaml:"instructions"`

	// MaxOutputTokens caps each model response.
	MaxOutputTokens int `yaml:"max_output_tokens"`

	// TranscriptTimeoutMs is how long to wait for the session's transcript
	// of a committed utterance before transcribing locally.
	TranscriptTimeoutMs int `yaml:"transcript_timeout_ms"`

	// SuppressMs is the echo suppression window after speaker output.
	SuppressMs int `yaml:"suppress_ms"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g. "openai",
	// "whisper-native").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	// Supports ${ENV} expansion.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// FallbackConfig configures the local transcription fallback chain used when
// the realtime session fails to deliver a transcript in time.
type FallbackConfig struct {
	// Primary is the first transcriber tried.
	Primary ProviderEntry `yaml:"primary"`

	// Backups are tried in order when the primary fails or its circuit
	// breaker is open.
	Backups []ProviderEntry `yaml:"backups"`

	// BreakerMaxFailures is how many consecutive failures open a
	// transcriber's circuit breaker.
	BreakerMaxFailures int `yaml:"breaker_max_failures"`

	// BreakerResetSec is how long an open breaker waits before probing the
	// transcriber again.
	BreakerResetSec int `yaml:"breaker_reset_sec"`
}

// MemoryConfig holds settings for the pgvector-backed long-term memory.
type MemoryConfig struct {
	// PostgresDSN is the PostgreSQL connection string for the memory store.
	// Empty disables persistence (the assistant still works, it just forgets).
	PostgresDSN string `yaml:"postgres_dsn"`

	// Embeddings selects the embedding provider for semantic recall.
	Embeddings ProviderEntry `yaml:"embeddings"`

	// MinQueryChars is the shortest command that triggers memory recall.
	MinQueryChars int `yaml:"min_query_chars"`

	// TopK is how many memories are recalled per command.
	TopK int `yaml:"top_k"`

	// SnippetChars truncates each recalled memory.
	SnippetChars int `yaml:"snippet_chars"`

	// ContextMaxChars caps the combined memory+vision context block.
	ContextMaxChars int `yaml:"context_max_chars"`
}

// VisionConfig configures camera capture and scene description.
type VisionConfig struct {
	// Enabled turns the vision path on.
	Enabled bool `yaml:"enabled"`

	// CaptureCommand is the executable that grabs a camera frame. The output
	// file path is appended as the final argument.
	CaptureCommand string `yaml:"capture_command"`

	// CaptureArgs are extra arguments for CaptureCommand.
	CaptureArgs []string `yaml:"capture_args"`

	// ImageDir is where captured frames are written.
	ImageDir string `yaml:"image_dir"`

	// APIKey authenticates with the vision model. Supports ${ENV} expansion.
	APIKey string `yaml:"api_key"`

	// Model is the vision-capable chat model.
	Model string `yaml:"model"`

	// MaxTokens caps the scene description.
	MaxTokens int `yaml:"max_tokens"`

	// SnippetChars truncates the description before it enters the context.
	SnippetChars int `yaml:"snippet_chars"`
}

// SummariesConfig configures the daily conversation recaps.
type SummariesConfig struct {
	// Enabled turns the summariser on. Requires memory.postgres_dsn.
	Enabled bool `yaml:"enabled"`

	// LLM selects the chat provider that writes the summaries.
	LLM ProviderEntry `yaml:"llm"`

	// IntervalMin is how often pending days are summarised, in minutes.
	IntervalMin int `yaml:"interval_min"`

	// Recent is how many recent summaries are folded into the session
	// instructions at startup.
	Recent int `yaml:"recent"`
}

// WakeConfig configures wake-word gating of recognised commands.
type WakeConfig struct {
	// Word is the wake word.
	Word string `yaml:"word"`

	// Require drops commands that do not contain the wake word.
	Require bool `yaml:"require"`
}

// ObservabilityConfig holds the metrics/health listener settings.
type ObservabilityConfig struct {
	// ListenAddr is the TCP address serving /metrics and /healthz.
	// Empty disables the listener.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the assistant's built-in configuration: a 24 kHz mono
// pipeline with 20 ms frames, the tuned segmenter thresholds, and the
// standard OpenAI realtime models.
func Default() Config {
	return Config{
		Log: LogConfig{Level: LogInfo},
		Audio: AudioConfig{
			SampleRate: 24000,
			FrameMs:    20,
		},
		VAD: VADConfig{
			SilenceThreshold: 0.01,
			SilenceMs:        800,
			MinSpeechMs:      300,
			MaxBufferSec:     6,
		},
		Realtime: RealtimeConfig{
			APIKey:              "${OPENAI_API_KEY}",
			Model:               "gpt-4o-realtime-preview",
			Voice:               "alloy",
			TranscriptionModel:  "gpt-4o-mini-transcribe",
			MaxOutputTokens:     140,
			TranscriptTimeoutMs: 3000,
			SuppressMs:          600,
		},
		Fallback: FallbackConfig{
			Primary: ProviderEntry{
				Name:   "openai",
				APIKey: "${OPENAI_API_KEY}",
				Model:  "gpt-4o-mini-transcribe",
			},
			BreakerMaxFailures: 3,
			BreakerResetSec:    30,
		},
		Memory: MemoryConfig{
			Embeddings: ProviderEntry{
				Name:   "openai",
				APIKey: "${OPENAI_API_KEY}",
				Model:  "text-embedding-3-small",
			},
			MinQueryChars:   12,
			TopK:            2,
			SnippetChars:    240,
			ContextMaxChars: 520,
		},
		Vision: VisionConfig{
			ImageDir:     "captures",
			APIKey:       "${OPENAI_API_KEY}",
			Model:        "gpt-4o-mini",
			MaxTokens:    100,
			SnippetChars: 280,
		},
		Summaries: SummariesConfig{
			LLM: ProviderEntry{
				Name:   "openai",
				APIKey: "${OPENAI_API_KEY}",
				Model:  "gpt-4o-mini",
			},
			IntervalMin: 60,
			Recent:      3,
		},
		Wake: WakeConfig{
			Word:    "vision",
			Require: true,
		},
		Observability: ObservabilityConfig{
			ListenAddr: ":9090",
		},
	}
}

// TranscriptTimeout returns the transcript deadline as a duration.
func (r RealtimeConfig) TranscriptTimeout() time.Duration {
	return time.Duration(r.TranscriptTimeoutMs) * time.Millisecond
}

// SuppressWindow returns the echo suppression window as a duration.
func (r RealtimeConfig) SuppressWindow() time.Duration {
	return time.Duration(r.SuppressMs) * time.Millisecond
}

// SilenceDuration returns the end-of-utterance silence as a duration.
func (v VADConfig) SilenceDuration() time.Duration {
	return time.Duration(v.SilenceMs) * time.Millisecond
}

// MinSpeechDuration returns the minimum speech requirement as a duration.
func (v VADConfig) MinSpeechDuration() time.Duration {
	return time.Duration(v.MinSpeechMs) * time.Millisecond
}

// MaxBufferDuration returns the utterance buffer cap as a duration.
func (v VADConfig) MaxBufferDuration() time.Duration {
	return time.Duration(v.MaxBufferSec) * time.Second
}

// Interval returns the summariser interval as a duration.
func (s SummariesConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMin) * time.Minute
}
