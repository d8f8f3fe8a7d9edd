package media

import "time"

// SilenceThreshold is the inactivity window required before an utterance is
// considered complete. Conservative to avoid cutting the caller mid-sentence.
const SilenceThreshold = 700 * time.Millisecond

// MaxUtterance bounds a single utterance; beyond this the buffer is flushed
// even while the caller is still talking.
const MaxUtterance = 30 * time.Second

// energyFloor is the mean absolute PCM amplitude above which a μ-law frame
// counts as voice rather than line noise.
const energyFloor = 300

// minVoicedBytes drops blips shorter than ~200ms at 8kHz μ-law.
const minVoicedBytes = 1600

// DecodeULawSample expands one G.711 μ-law byte to a 16-bit PCM sample.
func DecodeULawSample(u byte) int16 {
	u = ^u
	t := (int16(u&0x0F)<<3 + 0x84) << ((u & 0x70) >> 4)
	if u&0x80 != 0 {
		return 0x84 - t
	}
	return t - 0x84
}

// frameEnergy returns the mean absolute amplitude of a μ-law frame.
func frameEnergy(frame []byte) int {
	if len(frame) == 0 {
		return 0
	}
	var sum int64
	for _, b := range frame {
		v := int64(DecodeULawSample(b))
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return int(sum / int64(len(frame)))
}

// Segmenter accumulates μ-law media frames and emits one buffer per caller
// utterance, delimited by sustained silence. It is not safe for concurrent
// use; each call's media reader owns one instance.
type Segmenter struct {
	buf       []byte
	voiced    int
	started   bool
	startedAt time.Time
	lastVoice time.Time
}

// NewSegmenter returns an empty segmenter.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Push adds one media frame. When the frame completes an utterance the
// accumulated audio is returned with ok=true and the segmenter resets.
// now is injected so the silence window is testable.
func (s *Segmenter) Push(frame []byte, now time.Time) ([]byte, bool) {
	voice := frameEnergy(frame) >= energyFloor
	if voice {
		if !s.started {
			s.started = true
			s.startedAt = now
		}
		s.lastVoice = now
		s.voiced += len(frame)
	}
	if s.started {
		s.buf = append(s.buf, frame...)
	}
	if !s.started {
		return nil, false
	}

	silentFor := now.Sub(s.lastVoice)
	tooLong := now.Sub(s.startedAt) >= MaxUtterance
	if silentFor < SilenceThreshold && !tooLong {
		return nil, false
	}

	out := s.flush()
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// flush returns the buffered utterance if it carried enough voice, and
// resets the segmenter either way.
func (s *Segmenter) flush() []byte {
	defer func() {
		s.buf = nil
		s.voiced = 0
		s.started = false
	}()
	if s.voiced < minVoicedBytes {
		return nil
	}
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}
