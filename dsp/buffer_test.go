package dsp

import (
	"math"
	"testing"
)

func TestAudioBufferMixWithSilence(t *testing.T) {
	a := NewAudioBuffer(2, 64)
	zero := NewAudioBuffer(2, 64)
	for ch := 0; ch < 2; ch++ {
		for i := 0; i < 64; i++ {
			a.Channel(ch)[i] = float32(ch*64 + i)
		}
	}
	want := append([]float32(nil), a.Flat()...)

	a.Mix(zero)

	for i, v := range a.Flat() {
		if v != want[i] {
			t.Fatalf("mix with silence changed sample %d: %v != %v", i, v, want[i])
		}
	}
}

func TestAudioBufferMixChannelCounts(t *testing.T) {
	stereo := NewAudioBuffer(2, 8)
	mono := NewAudioBuffer(1, 8)
	for i := 0; i < 8; i++ {
		mono.Channel(0)[i] = 1
	}

	stereo.Mix(mono)

	for i := 0; i < 8; i++ {
		if stereo.Channel(0)[i] != 1 {
			t.Errorf("channel 0 sample %d = %v, want 1", i, stereo.Channel(0)[i])
		}
		if stereo.Channel(1)[i] != 0 {
			t.Errorf("channel 1 sample %d = %v, want 0", i, stereo.Channel(1)[i])
		}
	}
}

func TestAudioBufferDownmix(t *testing.T) {
	b := NewAudioBuffer(4, 16)
	for ch := 0; ch < 4; ch++ {
		for i := 0; i < 16; i++ {
			b.Channel(ch)[i] = float32(ch + 1)
		}
	}

	mono := NewAudioBuffer(1, 16)
	b.Downmix(mono)

	for i := 0; i < 16; i++ {
		if got := mono.Channel(0)[i]; math.Abs(float64(got)-2.5) > 1e-6 {
			t.Fatalf("downmix sample %d = %v, want 2.5", i, got)
		}
	}
}

func TestAudioBufferInterleaveRoundTrip(t *testing.T) {
	b := NewAudioBuffer(2, 32)
	for ch := 0; ch < 2; ch++ {
		for i := 0; i < 32; i++ {
			b.Channel(ch)[i] = float32(ch)*100 + float32(i)
		}
	}

	packed := make([]float32, 64)
	b.Interleave(packed)

	if packed[0] != 0 || packed[1] != 100 || packed[2] != 1 || packed[3] != 101 {
		t.Fatalf("unexpected interleaved head: %v", packed[:4])
	}

	other := NewAudioBuffer(2, 32)
	other.Deinterleave(packed)
	for ch := 0; ch < 2; ch++ {
		for i := 0; i < 32; i++ {
			if other.Channel(ch)[i] != b.Channel(ch)[i] {
				t.Fatalf("roundtrip mismatch at channel %d sample %d", ch, i)
			}
		}
	}
}

func TestChannelViewShares(t *testing.T) {
	b := NewAudioBuffer(3, 8)
	view := b.ChannelView(1)
	view.Channel(0)[3] = 42

	if b.Channel(1)[3] != 42 {
		t.Error("channel view does not share storage with parent")
	}
	if view.NumChannels() != 1 || view.NumSamples() != 8 {
		t.Errorf("view shape = %dx%d, want 1x8", view.NumChannels(), view.NumSamples())
	}
}
