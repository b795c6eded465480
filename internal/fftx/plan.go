package fftx

// Plan describes the uniform partitioning shared by the overlap-add
// convolution engine and anything that precomputes frequency-domain impulse
// responses for it (notably the HRTF database). The IR is split into
// NumPartitions blocks of FrameSize samples; each block is transformed with a
// size-FFTSize FFT, giving BlockBins complex bins per partition. A full
// frequency-domain IR is the concatenation of its partition spectra,
// NumSpectrumSamples bins in total.
type Plan struct {
	FrameSize          int
	IRSize             int
	FFTSize            int
	NumPartitions      int
	BlockBins          int
	NumSpectrumSamples int
}

// NewPlan computes the partitioning for a frame size and IR length.
func NewPlan(frameSize, irSize int) Plan {
	fftSize := NextPow2(2 * frameSize)
	numPartitions := (irSize + frameSize - 1) / frameSize
	if numPartitions < 1 {
		numPartitions = 1
	}
	blockBins := fftSize/2 + 1
	return Plan{
		FrameSize:          frameSize,
		IRSize:             irSize,
		FFTSize:            fftSize,
		NumPartitions:      numPartitions,
		BlockBins:          blockBins,
		NumSpectrumSamples: numPartitions * blockBins,
	}
}

// PartitionSpectra transforms a time-domain IR into its concatenated
// partition spectra using fft, which must have size Plan.FFTSize. dst must
// hold NumSpectrumSamples bins.
func (p Plan) PartitionSpectra(fft *FFT, ir []float32, dst []complex64) {
	for part := 0; part < p.NumPartitions; part++ {
		start := part * p.FrameSize
		end := start + p.FrameSize
		if start > len(ir) {
			start = len(ir)
		}
		if end > len(ir) {
			end = len(ir)
		}
		fft.Forward(ir[start:end], dst[part*p.BlockBins:(part+1)*p.BlockBins])
	}
}

// TailSamples returns the number of samples the convolution keeps ringing
// after its input goes silent: the partitioned IR length plus the overlap
// carried by the final inverse transform.
func (p Plan) TailSamples() int {
	return p.NumPartitions*p.FrameSize + (p.FFTSize - p.FrameSize)
}
