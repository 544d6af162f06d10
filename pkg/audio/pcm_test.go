package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

// pcmOf builds little-endian PCM from int16 samples.
func pcmOf(samples ...int16) []byte {
	return Int16ToBytes(samples)
}

// ─── TestPeakAmplitude ────────────────────────────────────────────────────────

func TestPeakAmplitude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pcm  []byte
		want float64
	}{
		{name: "empty", pcm: nil, want: 0},
		{name: "silence", pcm: pcmOf(0, 0, 0, 0), want: 0},
		{name: "positive peak", pcm: pcmOf(100, 16384, 20), want: 0.5},
		{name: "negative peak", pcm: pcmOf(-16384, 100), want: 0.5},
		{name: "full scale negative", pcm: pcmOf(-32768), want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := PeakAmplitude(tt.pcm)
			if got != tt.want {
				t.Errorf("PeakAmplitude() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ─── TestDurationOf ───────────────────────────────────────────────────────────

func TestDurationOf(t *testing.T) {
	t.Parallel()

	// 480 mono samples at 24 kHz = 20 ms.
	pcm := make([]byte, 480*2)
	if got := DurationOf(pcm, 24000, 1); got != 20*time.Millisecond {
		t.Errorf("DurationOf() = %v, want 20ms", got)
	}
	if got := DurationOf(pcm, 0, 1); got != 0 {
		t.Errorf("DurationOf() with zero rate = %v, want 0", got)
	}
}

// ─── TestInt16RoundTrip ───────────────────────────────────────────────────────

func TestInt16RoundTrip(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 1, -1, 32767, -32768, 1234}
	got := BytesToInt16(Int16ToBytes(samples))
	if len(got) != len(samples) {
		t.Fatalf("round trip length = %d, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

// ─── TestEncodeWAV ────────────────────────────────────────────────────────────

func TestEncodeWAV(t *testing.T) {
	t.Parallel()

	pcm := pcmOf(1, 2, 3, 4)
	wav := EncodeWAV(pcm, 24000)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Errorf("missing RIFF/WAVE markers: %q %q", wav[0:4], wav[8:12])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if channels := binary.LittleEndian.Uint16(wav[22:24]); channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}
	if dataLen := binary.LittleEndian.Uint32(wav[40:44]); int(dataLen) != len(pcm) {
		t.Errorf("data length = %d, want %d", dataLen, len(pcm))
	}
}

// ─── TestDuplexEchoClock ──────────────────────────────────────────────────────

func TestDuplexEchoClock(t *testing.T) {
	t.Parallel()

	d := NewDuplex(nil)
	if !d.LastOutput().IsZero() {
		t.Fatal("LastOutput should be zero before any write")
	}

	before := time.Now()
	if err := d.Write(pcmOf(1, 2)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := d.LastOutput()
	if got.Before(before) || got.After(time.Now()) {
		t.Errorf("LastOutput = %v, want between %v and now", got, before)
	}

	mark := time.Now().Add(-time.Second)
	d.MarkOutput(mark)
	if !d.LastOutput().Equal(mark) {
		t.Errorf("LastOutput after MarkOutput = %v, want %v", d.LastOutput(), mark)
	}
}
