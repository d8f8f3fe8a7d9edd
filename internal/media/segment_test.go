package media

import (
	"testing"
	"time"
)

// μ-law 0xFF decodes to near-zero amplitude; 0x10 is loud.
func silentFrame(n int) []byte {
	f := make([]byte, n)
	for i := range f {
		f[i] = 0xFF
	}
	return f
}

func loudFrame(n int) []byte {
	f := make([]byte, n)
	for i := range f {
		f[i] = 0x10
	}
	return f
}

func TestDecodeULawSample(t *testing.T) {
	if v := DecodeULawSample(0xFF); v != 0 {
		t.Fatalf("0xFF should decode to 0, got %d", v)
	}
	if v := DecodeULawSample(0x7F); v != 0 {
		t.Fatalf("0x7F should decode to -0 magnitude, got %d", v)
	}
	pos := DecodeULawSample(0x90)
	neg := DecodeULawSample(0x10)
	if pos <= 0 || neg >= 0 {
		t.Fatalf("expected opposite signs, got %d and %d", pos, neg)
	}
	if pos != -neg {
		t.Fatalf("expected symmetric magnitudes, got %d and %d", pos, neg)
	}
}

func TestSegmenter_EmitsAfterSilence(t *testing.T) {
	s := NewSegmenter()
	now := time.Unix(0, 0)

	// one second of speech in 20ms frames (160 bytes at 8kHz)
	for i := 0; i < 50; i++ {
		if _, ok := s.Push(loudFrame(160), now); ok {
			t.Fatalf("should not emit mid-speech")
		}
		now = now.Add(20 * time.Millisecond)
	}
	// 600ms of silence stays under the threshold
	for i := 0; i < 30; i++ {
		if _, ok := s.Push(silentFrame(160), now); ok {
			t.Fatalf("emitted before silence threshold")
		}
		now = now.Add(20 * time.Millisecond)
	}
	// push past the threshold
	now = now.Add(SilenceThreshold)
	utt, ok := s.Push(silentFrame(160), now)
	if !ok {
		t.Fatalf("expected utterance after sustained silence")
	}
	if len(utt) < 50*160 {
		t.Fatalf("utterance shorter than the speech fed in: %d", len(utt))
	}

	// segmenter reset: pure silence afterwards emits nothing
	for i := 0; i < 100; i++ {
		if _, ok := s.Push(silentFrame(160), now); ok {
			t.Fatalf("emitted from silence after reset")
		}
		now = now.Add(20 * time.Millisecond)
	}
}

func TestSegmenter_DropsShortBlips(t *testing.T) {
	s := NewSegmenter()
	now := time.Unix(0, 0)

	// 60ms blip, far below minVoicedBytes
	for i := 0; i < 3; i++ {
		s.Push(loudFrame(160), now)
		now = now.Add(20 * time.Millisecond)
	}
	now = now.Add(SilenceThreshold + 50*time.Millisecond)
	if _, ok := s.Push(silentFrame(160), now); ok {
		t.Fatalf("expected blip to be dropped")
	}
}

func TestSegmenter_ForcesFlushOnMaxUtterance(t *testing.T) {
	s := NewSegmenter()
	now := time.Unix(0, 0)
	var emitted bool
	for i := 0; i < 2000 && !emitted; i++ {
		_, emitted = s.Push(loudFrame(160), now)
		now = now.Add(20 * time.Millisecond)
	}
	if !emitted {
		t.Fatalf("expected forced flush on an endless utterance")
	}
}
