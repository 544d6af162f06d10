package miniaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio"
)

// Ensure Capture implements the audio.Capture interface.
var _ audio.Capture = (*Capture)(nil)

// Capture reads mono 16-bit PCM from the default microphone and delivers it
// in fixed-size frames through the callback passed to [Capture.Start].
type Capture struct {
	audioCtx   *Context
	sampleRate int
	frameSize  time.Duration

	mu     sync.Mutex
	device *malgo.Device
}

// NewCapture creates a capture device on ctx producing frames of frameSize
// duration at sampleRate Hz.
func NewCapture(ctx *Context, sampleRate int, frameSize time.Duration) *Capture {
	return &Capture{audioCtx: ctx, sampleRate: sampleRate, frameSize: frameSize}
}

// Start opens the default input device and begins delivering frames to
// onFrame from the device callback. onFrame must not block. Start returns
// once the device is running; cancelling ctx stops the device.
func (c *Capture) Start(ctx context.Context, onFrame func(audio.AudioFrame)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		return fmt.Errorf("miniaudio capture: already started")
	}

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format)

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.SampleRate = uint32(c.sampleRate)
	cfg.Capture.Format = format
	cfg.Capture.Channels = 1
	cfg.Alsa.NoMMap = 1
	cfg.PerformanceProfile = malgo.LowLatency
	cfg.PeriodSizeInFrames = uint32(c.sampleRate) * uint32(c.frameSize.Milliseconds()) / 1000
	cfg.Periods = 3

	device, err := malgo.InitDevice(c.audioCtx.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if n == 0 || len(pInput) < n {
				return
			}
			pcm := make([]byte, n)
			copy(pcm, pInput[:n])
			onFrame(audio.AudioFrame{
				Data:       pcm,
				SampleRate: c.sampleRate,
				Channels:   1,
				Timestamp:  time.Now(),
			})
		},
	})
	if err != nil {
		return fmt.Errorf("miniaudio capture: init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("miniaudio capture: start device: %w", err)
	}
	c.device = device

	context.AfterFunc(ctx, func() {
		_ = c.Stop()
	})
	return nil
}

// Stop stops and releases the input device. Safe to call more than once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return nil
	}
	if c.device.IsStarted() {
		if err := c.device.Stop(); err != nil {
			return fmt.Errorf("miniaudio capture: stop device: %w", err)
		}
	}
	c.device.Uninit()
	c.device = nil
	return nil
}
