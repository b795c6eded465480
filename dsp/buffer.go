package dsp

// AudioBuffer is a deinterleaved multichannel frame of float32 samples. All
// channels share one flat backing array, so a buffer is a single allocation
// regardless of channel count. Buffers are created once at effect
// construction and reused across callbacks; none of the methods allocate.
type AudioBuffer struct {
	numChannels int
	numSamples  int
	flat        []float32
	channels    [][]float32
}

// NewAudioBuffer allocates a numChannels x numSamples buffer of silence.
func NewAudioBuffer(numChannels, numSamples int) *AudioBuffer {
	b := &AudioBuffer{
		numChannels: numChannels,
		numSamples:  numSamples,
		flat:        make([]float32, numChannels*numSamples),
		channels:    make([][]float32, numChannels),
	}
	for i := 0; i < numChannels; i++ {
		b.channels[i] = b.flat[i*numSamples : (i+1)*numSamples]
	}
	return b
}

// ChannelView returns a single-channel buffer sharing channel i's samples
// with b. Mutations through the view are visible in b.
func (b *AudioBuffer) ChannelView(i int) *AudioBuffer {
	ch := b.channels[i]
	return &AudioBuffer{
		numChannels: 1,
		numSamples:  b.numSamples,
		flat:        ch,
		channels:    [][]float32{ch},
	}
}

// NumChannels returns the channel count.
func (b *AudioBuffer) NumChannels() int { return b.numChannels }

// NumSamples returns the per-channel sample count.
func (b *AudioBuffer) NumSamples() int { return b.numSamples }

// Channel returns the sample slice for channel i.
func (b *AudioBuffer) Channel(i int) []float32 { return b.channels[i] }

// Flat returns the backing array, channel-major.
func (b *AudioBuffer) Flat() []float32 { return b.flat }

// MakeSilent zeroes every sample.
func (b *AudioBuffer) MakeSilent() {
	for i := range b.flat {
		b.flat[i] = 0
	}
}

// IsSilent reports whether every sample is exactly zero.
func (b *AudioBuffer) IsSilent() bool {
	for _, s := range b.flat {
		if s != 0 {
			return false
		}
	}
	return true
}

// CopyFrom copies as many channels and samples as both buffers have in
// common.
func (b *AudioBuffer) CopyFrom(src *AudioBuffer) {
	numChannels := min(b.numChannels, src.numChannels)
	numSamples := min(b.numSamples, src.numSamples)
	for i := 0; i < numChannels; i++ {
		copy(b.channels[i][:numSamples], src.channels[i][:numSamples])
	}
}

// Mix adds src into b over the shorter of the two channel counts.
func (b *AudioBuffer) Mix(src *AudioBuffer) {
	numChannels := min(b.numChannels, src.numChannels)
	numSamples := min(b.numSamples, src.numSamples)
	for i := 0; i < numChannels; i++ {
		Add(numSamples, b.channels[i], src.channels[i], b.channels[i])
	}
}

// Downmix averages all of b's channels into the mono buffer out.
func (b *AudioBuffer) Downmix(out *AudioBuffer) {
	numSamples := min(b.numSamples, out.numSamples)
	mono := out.channels[0]
	copy(mono[:numSamples], b.channels[0][:numSamples])
	for i := 1; i < b.numChannels; i++ {
		Add(numSamples, mono, b.channels[i], mono)
	}
	Scale(numSamples, mono, 1/float32(b.numChannels), mono)
}

// Interleave packs the buffer into dst as frame-major samples
// (s0c0, s0c1, ..., s1c0, ...). dst must hold NumChannels*NumSamples values.
func (b *AudioBuffer) Interleave(dst []float32) {
	idx := 0
	for j := 0; j < b.numSamples; j++ {
		for i := 0; i < b.numChannels; i++ {
			dst[idx] = b.channels[i][j]
			idx++
		}
	}
}

// Deinterleave unpacks frame-major samples from src into the buffer. src must
// hold NumChannels*NumSamples values.
func (b *AudioBuffer) Deinterleave(src []float32) {
	idx := 0
	for j := 0; j < b.numSamples; j++ {
		for i := 0; i < b.numChannels; i++ {
			b.channels[i][j] = src[idx]
			idx++
		}
	}
}
