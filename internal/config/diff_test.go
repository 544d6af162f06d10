package config_test

import (
	"testing"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	a := config.Default()
	b := config.Default()
	if d := config.Diff(&a, &b); d.Any() {
		t.Errorf("identical configs should produce an empty diff, got %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	a := config.Default()
	b := config.Default()
	b.Log.Level = config.LogDebug

	d := config.Diff(&a, &b)
	if !d.LogLevelChanged {
		t.Fatal("LogLevelChanged should be true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel: got %q", d.NewLogLevel)
	}
}

func TestDiff_Wake(t *testing.T) {
	t.Parallel()
	a := config.Default()
	b := config.Default()
	b.Wake.Word = "assistant"

	d := config.Diff(&a, &b)
	if !d.WakeChanged {
		t.Fatal("WakeChanged should be true")
	}
	if d.NewWake.Word != "assistant" {
		t.Errorf("NewWake: got %+v", d.NewWake)
	}
}

func TestDiff_Instructions(t *testing.T) {
	t.Parallel()
	a := config.Default()
	b := config.Default()
	b.Realtime.Instructions = "Answer in two short sentences."

	d := config.Diff(&a, &b)
	if !d.InstructionsChanged {
		t.Fatal("InstructionsChanged should be true")
	}
	if d.NewInstructions != "Answer in two short sentences." {
		t.Errorf("NewInstructions: got %q", d.NewInstructions)
	}
}

func TestDiff_RestartOnlyFieldsIgnored(t *testing.T) {
	t.Parallel()
	a := config.Default()
	b := config.Default()
	b.Audio.SampleRate = 16000
	b.Memory.PostgresDSN = "postgres://localhost/other"

	if d := config.Diff(&a, &b); d.Any() {
		t.Errorf("restart-only fields should not appear in the diff, got %+v", d)
	}
}
