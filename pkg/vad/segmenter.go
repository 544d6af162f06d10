package vad

import (
	"fmt"
	"time"

	"github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired/pkg/audio"
)

// Segmenter accumulates microphone frames into utterances. Not safe for
// concurrent use; feed it from the capture loop only.
type Segmenter struct {
	cfg       Config
	frameSize time.Duration

	buffer    []byte
	speech    time.Duration
	silence   time.Duration
	hadSpeech bool
}

// NewSegmenter creates a Segmenter with cfg. Returns an error if cfg is
// invalid.
func NewSegmenter(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{
		cfg:       cfg,
		frameSize: time.Duration(cfg.FrameSizeMs) * time.Millisecond,
	}, nil
}

// Feed scores one frame and returns the segmentation decision. When the
// decision is [UtteranceReady], the returned slice holds the complete
// utterance (speech plus buffered trailing silence) and the segmenter is
// idle again. For [Continue] and [Reset] the slice is nil.
func (s *Segmenter) Feed(frame audio.AudioFrame) (Decision, []byte, error) {
	if frame.SampleRate != s.cfg.SampleRate {
		return Continue, nil, fmt.Errorf("vad: frame rate %d does not match configured %d", frame.SampleRate, s.cfg.SampleRate)
	}

	peak := audio.PeakAmplitude(frame.Data)
	speaking := peak >= s.cfg.SilenceThreshold

	if speaking {
		s.buffer = append(s.buffer, frame.Data...)
		s.speech += s.frameSize
		s.silence = 0
		s.hadSpeech = true
	} else {
		if !s.hadSpeech {
			// Leading silence is never buffered.
			return Continue, nil, nil
		}
		s.buffer = append(s.buffer, frame.Data...)
		s.silence += s.frameSize

		if s.silence >= s.cfg.SilenceDuration {
			if s.speech >= s.cfg.MinSpeechDuration {
				utterance := s.take()
				return UtteranceReady, utterance, nil
			}
			s.Reset()
			return Reset, nil, nil
		}
	}

	if s.BufferedDuration() >= s.cfg.MaxBufferDuration {
		// Cap reached mid-speech: emit what we have rather than discard it.
		utterance := s.take()
		return UtteranceReady, utterance, nil
	}

	return Continue, nil, nil
}

// BufferedDuration returns the play time of the currently buffered audio.
func (s *Segmenter) BufferedDuration() time.Duration {
	return audio.DurationOf(s.buffer, s.cfg.SampleRate, 1)
}

// Reset discards all buffered audio and accumulated state, returning the
// segmenter to idle. The engine calls this when playback echo invalidates
// the current buffer.
func (s *Segmenter) Reset() {
	s.buffer = nil
	s.speech = 0
	s.silence = 0
	s.hadSpeech = false
}

// take returns the buffer and resets state.
func (s *Segmenter) take() []byte {
	utterance := s.buffer
	s.buffer = nil
	s.speech = 0
	s.silence = 0
	s.hadSpeech = false
	return utterance
}
