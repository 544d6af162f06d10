package audio

import (
	"testing"
	"time"
)

// ─── TestFormatConverter ──────────────────────────────────────────────────────

func TestFormatConverterFastPath(t *testing.T) {
	t.Parallel()

	conv := FormatConverter{Target: Format{SampleRate: 24000, Channels: 1}}
	in := AudioFrame{Data: pcmOf(1, 2, 3), SampleRate: 24000, Channels: 1, Timestamp: time.Now()}
	out := conv.Convert(in)
	if &out.Data[0] != &in.Data[0] {
		t.Error("matching format should return the frame unchanged")
	}
}

func TestFormatConverterDropsCorruptPCM(t *testing.T) {
	t.Parallel()

	conv := FormatConverter{Target: Format{SampleRate: 24000, Channels: 1}}
	out := conv.Convert(AudioFrame{Data: []byte{1, 2, 3}, SampleRate: 24000, Channels: 1})
	if len(out.Data) != 0 {
		t.Errorf("odd byte count should be dropped, got %d bytes", len(out.Data))
	}
}

func TestFormatConverterStereoDownmix(t *testing.T) {
	t.Parallel()

	conv := FormatConverter{Target: Format{SampleRate: 24000, Channels: 1}}
	// Two stereo frames: (100, 300) and (-200, -400).
	in := AudioFrame{Data: pcmOf(100, 300, -200, -400), SampleRate: 24000, Channels: 2}
	out := conv.Convert(in)

	got := BytesToInt16(out.Data)
	want := []int16{200, -300}
	if len(got) != len(want) {
		t.Fatalf("downmix produced %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

// ─── TestResampleMono16 ───────────────────────────────────────────────────────

func TestResampleMono16(t *testing.T) {
	t.Parallel()

	// 48 kHz → 24 kHz halves the sample count.
	src := make([]int16, 960)
	for i := range src {
		src[i] = int16(i)
	}
	out := ResampleMono16(Int16ToBytes(src), 48000, 24000)
	if got := len(out) / 2; got != 480 {
		t.Errorf("resampled sample count = %d, want 480", got)
	}

	same := Int16ToBytes(src)
	if got := ResampleMono16(same, 24000, 24000); &got[0] != &same[0] {
		t.Error("equal rates should return input unchanged")
	}
}

func TestStereoToMonoClamps(t *testing.T) {
	t.Parallel()

	got := BytesToInt16(StereoToMono(pcmOf(32767, 32767)))
	if len(got) != 1 || got[0] != 32767 {
		t.Errorf("StereoToMono full-scale = %v, want [32767]", got)
	}
}
