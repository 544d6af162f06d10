package config_test

import (
	"strings"
	"testing"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/config"
)

func TestLoad_EmptyConfigUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.SampleRate != 24000 {
		t.Errorf("audio.sample_rate: got %d, want 24000", cfg.Audio.SampleRate)
	}
	if cfg.VAD.SilenceThreshold != 0.01 {
		t.Errorf("vad.silence_threshold: got %g, want 0.01", cfg.VAD.SilenceThreshold)
	}
	if cfg.Realtime.Model != "gpt-4o-realtime-preview" {
		t.Errorf("realtime.model: got %q", cfg.Realtime.Model)
	}
	if cfg.Realtime.TranscriptTimeoutMs != 3000 {
		t.Errorf("realtime.transcript_timeout_ms: got %d, want 3000", cfg.Realtime.TranscriptTimeoutMs)
	}
	if cfg.Wake.Word != "vision" || !cfg.Wake.Require {
		t.Errorf("wake defaults: got %+v", cfg.Wake)
	}
}

func TestLoad_OverridesKeepOtherDefaults(t *testing.T) {
	t.Parallel()
	yaml := `
log:
  level: debug
realtime:
  model: gpt-4o-realtime-preview-2024-12-17
  max_output_tokens: 200
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != config.LogDebug {
		t.Errorf("log.level: got %q", cfg.Log.Level)
	}
	if cfg.Realtime.MaxOutputTokens != 200 {
		t.Errorf("max_output_tokens: got %d, want 200", cfg.Realtime.MaxOutputTokens)
	}
	// Untouched sections stay at their defaults.
	if cfg.Realtime.Voice != "alloy" {
		t.Errorf("realtime.voice: got %q, want alloy", cfg.Realtime.Voice)
	}
	if cfg.VAD.SilenceMs != 800 {
		t.Errorf("vad.silence_ms: got %d, want 800", cfg.VAD.SilenceMs)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("VISIONAID_TEST_KEY", "sk-from-env")
	yaml := `
realtime:
  api_key: ${VISIONAID_TEST_KEY}
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Realtime.APIKey != "sk-from-env" {
		t.Errorf("api_key: got %q, want value from environment", cfg.Realtime.APIKey)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	yaml := `
realtime:
  modle: gpt-4o-realtime-preview
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
log:
  level: bananas
vad:
  silence_threshold: 3.0
  silence_ms: 0
realtime:
  transcript_timeout_ms: 0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	for _, want := range []string{"log.level", "silence_threshold", "silence_ms", "transcript_timeout_ms"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_VisionRequiresCaptureCommand(t *testing.T) {
	t.Parallel()
	yaml := `
vision:
  enabled: true
  capture_command: ""
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "capture_command") {
		t.Errorf("error should mention capture_command, got: %v", err)
	}
}

func TestValidate_SummariesRequireMemory(t *testing.T) {
	t.Parallel()
	yaml := `
summaries:
  enabled: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("error should mention postgres_dsn, got: %v", err)
	}
}

func TestValidate_WakeRequireNeedsWord(t *testing.T) {
	t.Parallel()
	yaml := `
wake:
  word: ""
  require: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "wake.word") {
		t.Errorf("error should mention wake.word, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	// Sanity-check that the map is populated.
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	sttNames := config.ValidProviderNames["stt"]
	if len(sttNames) == 0 {
		t.Fatal("ValidProviderNames[\"stt\"] should not be empty")
	}
	found := false
	for _, n := range sttNames {
		if n == "whisper-native" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"stt\"] should contain \"whisper-native\"")
	}
}

func TestDurationHelpers(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	if got := cfg.Realtime.TranscriptTimeout().Milliseconds(); got != 3000 {
		t.Errorf("TranscriptTimeout: got %dms", got)
	}
	if got := cfg.VAD.MaxBufferDuration().Seconds(); got != 6 {
		t.Errorf("MaxBufferDuration: got %gs", got)
	}
}
