package audio

import (
	"sync/atomic"
	"time"
)

// Duplex couples a [Playback] sink with an echo clock. Every write records the
// wall time at which speaker output was last produced; the engine drops
// microphone frames captured within its suppression window of that instant.
//
// Safe for concurrent use.
type Duplex struct {
	sink       Playback
	lastOutput atomic.Int64 // unix nanos of the last Write
}

// NewDuplex wraps sink. A nil sink yields a Duplex that discards audio, which
// is useful in tests that only exercise the echo clock.
func NewDuplex(sink Playback) *Duplex {
	return &Duplex{sink: sink}
}

// Write enqueues pcm on the underlying sink and stamps the echo clock.
func (d *Duplex) Write(pcm []byte) error {
	d.lastOutput.Store(time.Now().UnixNano())
	if d.sink == nil {
		return nil
	}
	return d.sink.Write(pcm)
}

// Flush discards queued audio without touching the echo clock.
func (d *Duplex) Flush() {
	if d.sink != nil {
		d.sink.Flush()
	}
}

// Stop stops the underlying sink.
func (d *Duplex) Stop() error {
	if d.sink == nil {
		return nil
	}
	return d.sink.Stop()
}

// LastOutput returns the wall time of the most recent Write, or the zero time
// if nothing has been played yet.
func (d *Duplex) LastOutput() time.Time {
	n := d.lastOutput.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// MarkOutput stamps the echo clock without writing audio. Tests use this to
// simulate playback at a precise instant.
func (d *Duplex) MarkOutput(t time.Time) {
	d.lastOutput.Store(t.UnixNano())
}
