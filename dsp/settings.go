// Package dsp provides the frame-based audio plumbing shared by every effect:
// audio settings, deinterleaved buffers, vector math over sample arrays,
// frequency bands, IIR filters, and the gain and EQ building blocks.
package dsp

// AudioSettings describes the fixed per-connection DSP configuration. It is
// immutable after an effect is constructed; every effect wired into the same
// graph must use the same frame size.
type AudioSettings struct {
	SamplingRate int // Hz
	FrameSize    int // samples per frame
}

// Valid reports whether the settings describe a usable configuration.
func (s AudioSettings) Valid() bool {
	return s.SamplingRate > 0 && s.FrameSize > 0
}

// EffectState is returned by every effect's Apply and Tail calls.
type EffectState int

const (
	// TailComplete indicates the effect has no residual output pending.
	TailComplete EffectState = iota

	// TailRemaining indicates the effect still has decaying output that must
	// be drained with Tail calls before the source can go idle.
	TailRemaining
)

func (s EffectState) String() string {
	switch s {
	case TailComplete:
		return "TailComplete"
	case TailRemaining:
		return "TailRemaining"
	default:
		return "unknown"
	}
}

// SpeakerLayoutType discriminates the supported speaker layouts.
type SpeakerLayoutType int

const (
	SpeakerLayoutMono SpeakerLayoutType = iota
	SpeakerLayoutStereo
	SpeakerLayoutQuad
	SpeakerLayoutSurround5_1
	SpeakerLayoutSurround7_1
	SpeakerLayoutCustom
)

// SpeakerDirection is a unit direction to a speaker, in the listener frame
// (+x right, +y up, -z ahead).
type SpeakerDirection struct {
	X, Y, Z float64
}

// SpeakerLayout describes the playback speaker configuration. NumSpeakers and
// Speakers are fixed at construction.
type SpeakerLayout struct {
	Type        SpeakerLayoutType
	NumSpeakers int
	Speakers    []SpeakerDirection
}

const invSqrt2 = 0.7071067811865476

// Standard layout speaker positions. Elevation is zero for all standard
// layouts; surround positions follow common cinema placement.
var (
	monoSpeakers   = []SpeakerDirection{{0, 0, -1}}
	stereoSpeakers = []SpeakerDirection{
		{-invSqrt2, 0, -invSqrt2},
		{invSqrt2, 0, -invSqrt2},
	}
	quadSpeakers = []SpeakerDirection{
		{-invSqrt2, 0, -invSqrt2},
		{invSqrt2, 0, -invSqrt2},
		{-invSqrt2, 0, invSqrt2},
		{invSqrt2, 0, invSqrt2},
	}
	surround5_1Speakers = []SpeakerDirection{
		{-invSqrt2, 0, -invSqrt2},
		{invSqrt2, 0, -invSqrt2},
		{0, 0, -1},
		{0, 0, 1},
		{-invSqrt2, 0, invSqrt2},
		{invSqrt2, 0, invSqrt2},
	}
	surround7_1Speakers = []SpeakerDirection{
		{-invSqrt2, 0, -invSqrt2},
		{invSqrt2, 0, -invSqrt2},
		{0, 0, -1},
		{0, 0, 1},
		{-invSqrt2, 0, invSqrt2},
		{invSqrt2, 0, invSqrt2},
		{-1, 0, 0},
		{1, 0, 0},
	}
)

// NewSpeakerLayout returns one of the standard layouts.
func NewSpeakerLayout(layoutType SpeakerLayoutType) SpeakerLayout {
	switch layoutType {
	case SpeakerLayoutMono:
		return SpeakerLayout{Type: layoutType, NumSpeakers: 1, Speakers: monoSpeakers}
	case SpeakerLayoutStereo:
		return SpeakerLayout{Type: layoutType, NumSpeakers: 2, Speakers: stereoSpeakers}
	case SpeakerLayoutQuad:
		return SpeakerLayout{Type: layoutType, NumSpeakers: 4, Speakers: quadSpeakers}
	case SpeakerLayoutSurround5_1:
		return SpeakerLayout{Type: layoutType, NumSpeakers: 6, Speakers: surround5_1Speakers}
	case SpeakerLayoutSurround7_1:
		return SpeakerLayout{Type: layoutType, NumSpeakers: 8, Speakers: surround7_1Speakers}
	default:
		return SpeakerLayout{Type: SpeakerLayoutMono, NumSpeakers: 1, Speakers: monoSpeakers}
	}
}

// NewCustomSpeakerLayout builds a layout from explicit speaker directions.
func NewCustomSpeakerLayout(speakers []SpeakerDirection) SpeakerLayout {
	copied := make([]SpeakerDirection, len(speakers))
	copy(copied, speakers)
	return SpeakerLayout{Type: SpeakerLayoutCustom, NumSpeakers: len(copied), Speakers: copied}
}
