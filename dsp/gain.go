package dsp

// GainEffect applies a scalar gain to a mono buffer, ramping linearly across
// each frame from the previously applied value so gain changes never click.
type GainEffect struct {
	frameSize  int
	prevGain   float32
	firstFrame bool
}

// NewGainEffect constructs a gain effect for the given settings.
func NewGainEffect(settings AudioSettings) *GainEffect {
	return &GainEffect{frameSize: settings.FrameSize, firstFrame: true}
}

// Reset forgets the previous gain; the next frame applies its gain without a
// ramp.
func (e *GainEffect) Reset() {
	e.prevGain = 0
	e.firstFrame = true
}

// Apply writes gain * in to out, ramping from the previous frame's gain.
func (e *GainEffect) Apply(gain float32, in, out *AudioBuffer) EffectState {
	e.apply(gain, in.Channel(0), out.Channel(0), false)
	return TailComplete
}

// ApplyAccumulate adds gain * in into out, ramping from the previous frame's
// gain.
func (e *GainEffect) ApplyAccumulate(gain float32, in, out *AudioBuffer) EffectState {
	e.apply(gain, in.Channel(0), out.Channel(0), true)
	return TailComplete
}

func (e *GainEffect) apply(gain float32, in, out []float32, accumulate bool) {
	n := e.frameSize
	start := e.prevGain
	if e.firstFrame {
		start = gain
		e.firstFrame = false
	}
	step := (gain - start) / float32(n)
	g := start
	in, out = in[:n], out[:n]
	if accumulate {
		for i := 0; i < n; i++ {
			g += step
			out[i] += g * in[i]
		}
	} else {
		for i := 0; i < n; i++ {
			g += step
			out[i] = g * in[i]
		}
	}
	e.prevGain = gain
}

// Tail produces silence; a gain effect has no tail.
func (e *GainEffect) Tail(out *AudioBuffer) EffectState {
	out.MakeSilent()
	return TailComplete
}
