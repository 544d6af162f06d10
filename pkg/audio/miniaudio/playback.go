package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio"
)

// Ensure Playback implements the audio.Playback interface.
var _ audio.Playback = (*Playback)(nil)

// Playback writes mono 16-bit PCM to the default output device. Written audio
// is queued in an internal buffer that the device callback drains; gaps are
// filled with silence so the device never underruns audibly.
type Playback struct {
	audioCtx   *Context
	sampleRate int

	mu     sync.Mutex
	device *malgo.Device

	bufMu  sync.Mutex
	queued []byte
}

// NewPlayback creates a playback device on ctx at sampleRate Hz.
func NewPlayback(ctx *Context, sampleRate int) *Playback {
	return &Playback{audioCtx: ctx, sampleRate: sampleRate}
}

// Start opens the default output device and begins draining the queue.
func (p *Playback) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.device != nil {
		return fmt.Errorf("miniaudio playback: already started")
	}

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format)

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.SampleRate = uint32(p.sampleRate)
	cfg.Playback.Format = format
	cfg.Playback.Channels = 1
	cfg.Alsa.NoMMap = 1
	cfg.PeriodSizeInFrames = uint32(p.sampleRate) / 10 // ~100ms
	cfg.Periods = 4

	device, err := malgo.InitDevice(p.audioCtx.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			need := int(frameCount) * bytesPerFrame
			p.bufMu.Lock()
			defer p.bufMu.Unlock()
			if len(p.queued) == 0 {
				return
			}
			n := copy(pOutput, p.queued)
			if n < need {
				p.queued = nil
				return
			}
			p.queued = p.queued[need:]
		},
	})
	if err != nil {
		return fmt.Errorf("miniaudio playback: init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("miniaudio playback: start device: %w", err)
	}
	p.device = device
	return nil
}

// Write enqueues pcm for playback. Returns an error if the device is not
// running.
func (p *Playback) Write(pcm []byte) error {
	p.mu.Lock()
	running := p.device != nil && p.device.IsStarted()
	p.mu.Unlock()
	if !running {
		return fmt.Errorf("miniaudio playback: device not started")
	}

	p.bufMu.Lock()
	p.queued = append(p.queued, pcm...)
	p.bufMu.Unlock()
	return nil
}

// Flush discards any audio that has not reached the device yet.
func (p *Playback) Flush() {
	p.bufMu.Lock()
	p.queued = nil
	p.bufMu.Unlock()
}

// Stop flushes the queue and releases the output device. Safe to call more
// than once.
func (p *Playback) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.device == nil {
		return nil
	}
	p.Flush()
	if p.device.IsStarted() {
		if err := p.device.Stop(); err != nil {
			return fmt.Errorf("miniaudio playback: stop device: %w", err)
		}
	}
	p.device.Uninit()
	p.device = nil
	return nil
}
