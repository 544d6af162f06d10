package vad

import (
	"testing"
	"time"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio"
)

// testConfig matches the scenario used throughout: 24 kHz, 20 ms frames,
// peak threshold 0.05, 800 ms end silence, 300 ms min speech, 6 s cap.
func testConfig() Config {
	return Config{
		SampleRate:        24000,
		FrameSizeMs:       20,
		SilenceThreshold:  0.05,
		SilenceDuration:   800 * time.Millisecond,
		MinSpeechDuration: 300 * time.Millisecond,
		MaxBufferDuration: 6 * time.Second,
	}
}

// frameWithPeak builds a 20 ms mono frame at 24 kHz whose normalised peak
// amplitude equals peak.
func frameWithPeak(peak float64) audio.AudioFrame {
	samples := make([]int16, 480)
	samples[0] = int16(peak * 32768)
	return audio.AudioFrame{
		Data:       audio.Int16ToBytes(samples),
		SampleRate: 24000,
		Channels:   1,
		Timestamp:  time.Now(),
	}
}

// feedRun feeds n identical frames, failing the test on any error, and
// returns the first non-Continue decision with its utterance, or Continue.
func feedRun(t *testing.T, s *Segmenter, n int, peak float64) (Decision, []byte) {
	t.Helper()
	for range n {
		d, utt, err := s.Feed(frameWithPeak(peak))
		if err != nil {
			t.Fatalf("Feed() error = %v", err)
		}
		if d != Continue {
			return d, utt
		}
	}
	return Continue, nil
}

// ─── TestSegmenterSingleUtterance ─────────────────────────────────────────────

func TestSegmenterSingleUtterance(t *testing.T) {
	t.Parallel()

	s, err := NewSegmenter(testConfig())
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	// 0.5 s leading silence: nothing buffered, no decision.
	if d, _ := feedRun(t, s, 25, 0.0); d != Continue {
		t.Fatalf("leading silence produced %v, want CONTINUE", d)
	}
	if got := s.BufferedDuration(); got != 0 {
		t.Fatalf("leading silence buffered %v, want 0", got)
	}

	// 1.0 s of speech at peak 0.3: accumulates, no early emission.
	if d, _ := feedRun(t, s, 50, 0.3); d != Continue {
		t.Fatalf("speech produced %v before any silence, want CONTINUE", d)
	}

	// 1.0 s trailing silence: the utterance must emit exactly once, at the
	// 0.8 s silence mark, and the remaining frames must stay silent.
	var (
		emissions int
		utterance []byte
		frames    int
	)
	for i := range 50 {
		d, utt, err := s.Feed(frameWithPeak(0.0))
		if err != nil {
			t.Fatalf("Feed() error = %v", err)
		}
		if d == UtteranceReady {
			emissions++
			utterance = utt
			frames = i + 1
		}
		if d == Reset {
			t.Fatalf("unexpected RESET after sufficient speech")
		}
	}
	if emissions != 1 {
		t.Fatalf("got %d utterances, want exactly 1", emissions)
	}
	if frames != 40 {
		t.Errorf("utterance emitted after %d silence frames, want 40 (0.8s)", frames)
	}

	// Speech (1.0 s) plus buffered trailing silence (0.8 s).
	got := audio.DurationOf(utterance, 24000, 1)
	if want := 1800 * time.Millisecond; got != want {
		t.Errorf("utterance duration = %v, want %v", got, want)
	}
}

// ─── TestSegmenterShortBurstReset ─────────────────────────────────────────────

func TestSegmenterShortBurstReset(t *testing.T) {
	t.Parallel()

	s, err := NewSegmenter(testConfig())
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	// 100 ms of speech, below the 300 ms minimum.
	if d, _ := feedRun(t, s, 5, 0.3); d != Continue {
		t.Fatalf("short burst produced %v, want CONTINUE", d)
	}

	// Silence until the 800 ms mark: buffer discarded, not emitted.
	d, utt := feedRun(t, s, 40, 0.0)
	if d != Reset {
		t.Fatalf("short burst + silence produced %v, want RESET", d)
	}
	if utt != nil {
		t.Error("RESET must not carry an utterance")
	}
	if got := s.BufferedDuration(); got != 0 {
		t.Errorf("buffer after RESET = %v, want 0", got)
	}
}

// ─── TestSegmenterBufferCap ───────────────────────────────────────────────────

func TestSegmenterBufferCap(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxBufferDuration = 2 * time.Second
	s, err := NewSegmenter(cfg)
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	// Continuous speech with no pause: the cap must force emission.
	d, utt := feedRun(t, s, 200, 0.3)
	if d != UtteranceReady {
		t.Fatalf("continuous speech produced %v, want UTTERANCE_READY at cap", d)
	}
	if got := audio.DurationOf(utt, 24000, 1); got != 2*time.Second {
		t.Errorf("capped utterance duration = %v, want 2s", got)
	}
}

// ─── TestSegmenterReset ───────────────────────────────────────────────────────

func TestSegmenterReset(t *testing.T) {
	t.Parallel()

	s, err := NewSegmenter(testConfig())
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	feedRun(t, s, 20, 0.3)
	s.Reset()
	if got := s.BufferedDuration(); got != 0 {
		t.Fatalf("buffer after Reset = %v, want 0", got)
	}

	// Silence straight after Reset is leading silence again.
	if d, _ := feedRun(t, s, 45, 0.0); d != Continue {
		t.Errorf("silence after Reset produced %v, want CONTINUE", d)
	}
}

// ─── TestSegmenterFrameRateMismatch ───────────────────────────────────────────

func TestSegmenterFrameRateMismatch(t *testing.T) {
	t.Parallel()

	s, err := NewSegmenter(testConfig())
	if err != nil {
		t.Fatalf("NewSegmenter() error = %v", err)
	}

	frame := frameWithPeak(0.3)
	frame.SampleRate = 16000
	if _, _, err := s.Feed(frame); err == nil {
		t.Error("Feed() with mismatched sample rate should error")
	}
}

// ─── TestConfigValidate ───────────────────────────────────────────────────────

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should validate, got %v", err)
	}

	bad := DefaultConfig()
	bad.SampleRate = 0
	bad.SilenceThreshold = 2
	err := bad.Validate()
	if err == nil {
		t.Fatal("invalid config should not validate")
	}
}
