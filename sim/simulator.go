package sim

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/effects"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/internal/sampling"
	"github.com/auralab/aural/job"
	"github.com/auralab/aural/scene"
	"github.com/auralab/aural/sh"
)

// rayBatchSize is the number of rays traced per job.
const rayBatchSize = 64

// imageBlockSize is the pixel tile rendered per job by the image variant.
const imageBlockSize = 8

// SimulationInputs are the per-run parameters of a reflection simulation.
type SimulationInputs struct {
	NumRays               int
	NumBounces            int
	Duration              float64
	Order                 int
	IrradianceMinDistance float64
}

// ReflectionSimulator runs listener-centric Monte-Carlo reflection
// simulation: rays are traced outward from the listener, and at every
// surface hit each audible source deposits energy into a time-binned,
// SH-projected histogram. The simulator owns per-thread scratch fields;
// batches of rays become jobs on a job graph, and the final job reduces the
// per-thread fields into the caller's output fields.
type ReflectionSimulator struct {
	maxNumRays        int
	numDiffuseSamples int
	maxDuration       float64
	maxOrder          int
	maxNumSources     int
	numThreads        int

	logger *log.Logger

	listenerSamples []geom.Vector3
	listenerCoeffs  []float32 // numCoeffs x maxNumRays, channel-major
	diffuseSamples  []geom.Vector3

	// threadFields[thread*maxNumSources+source] is that worker's scratch.
	threadFields []*EnergyField

	// Per-run state, written by Simulate before jobs are enqueued.
	inputs        SimulationInputs
	numSources    int
	sources       []geom.CoordinateSpace
	directivities []effects.Directivity
	listener      geom.CoordinateSpace
	scene         scene.IScene
	jobsRemaining atomic.Int64
}

// NewReflectionSimulator constructs a simulator sized for its worst case.
func NewReflectionSimulator(maxNumRays, numDiffuseSamples int, maxDuration float64, maxOrder, maxNumSources, numThreads int, logger *log.Logger) *ReflectionSimulator {
	if logger == nil {
		logger = log.Default()
	}

	s := &ReflectionSimulator{
		maxNumRays:        maxNumRays,
		numDiffuseSamples: numDiffuseSamples,
		maxDuration:       maxDuration,
		maxOrder:          maxOrder,
		maxNumSources:     maxNumSources,
		numThreads:        numThreads,
		logger:            logger,
		listenerSamples:   make([]geom.Vector3, maxNumRays),
		listenerCoeffs:    make([]float32, sh.NumCoeffs(maxOrder)*maxNumRays),
		diffuseSamples:    make([]geom.Vector3, numDiffuseSamples),
		threadFields:      make([]*EnergyField, numThreads*maxNumSources),
		sources:           make([]geom.CoordinateSpace, maxNumSources),
		directivities:     make([]effects.Directivity, maxNumSources),
	}

	sampling.SphereSamples(s.listenerSamples)
	sampling.HemisphereSamples(s.diffuseSamples)

	for i, dir := range s.listenerSamples {
		for l, j := 0, 0; l <= maxOrder; l++ {
			for m := -l; m <= l; m, j = m+1, j+1 {
				s.listenerCoeffs[j*maxNumRays+i] = sh.Evaluate(l, m, dir)
			}
		}
	}

	for t := 0; t < numThreads; t++ {
		for src := 0; src < maxNumSources; src++ {
			s.threadFields[t*maxNumSources+src] = NewEnergyField(maxDuration, maxOrder)
		}
	}

	return s
}

// Simulate enqueues one simulation run onto jobGraph. energyFields must hold
// one output field per source; the fields are reset here and filled in by
// the final job. If more sources are passed than the simulator was built
// for, the excess is dropped with a warning.
func (s *ReflectionSimulator) Simulate(sc scene.IScene, sources []geom.CoordinateSpace, listener geom.CoordinateSpace,
	directivities []effects.Directivity, inputs SimulationInputs, energyFields []*EnergyField, jobGraph *job.Graph) {

	numSources := len(sources)
	if numSources > s.maxNumSources {
		s.logger.Warn("simulating reflections for more sources than the simulator was created for; extra sources will be ignored",
			"numSources", numSources, "maxNumSources", s.maxNumSources)
		numSources = s.maxNumSources
	}

	if inputs.NumRays > s.maxNumRays {
		inputs.NumRays = s.maxNumRays
	}
	if inputs.Duration > s.maxDuration {
		inputs.Duration = s.maxDuration
	}
	if inputs.Order > s.maxOrder {
		inputs.Order = s.maxOrder
	}

	s.inputs = inputs
	s.numSources = numSources
	copy(s.sources, sources[:numSources])
	copy(s.directivities, directivities[:numSources])
	s.listener = listener
	s.scene = sc

	for i := 0; i < numSources; i++ {
		energyFields[i].Reset()
		for t := 0; t < s.numThreads; t++ {
			s.threadFields[t*s.maxNumSources+i].Reset()
		}
	}

	numJobs := (inputs.NumRays + rayBatchSize - 1) / rayBatchSize
	s.jobsRemaining.Store(int64(numJobs))

	for start := 0; start < inputs.NumRays; start += rayBatchSize {
		start := start
		end := start + rayBatchSize
		if end > inputs.NumRays {
			end = inputs.NumRays
		}

		jobGraph.AddJob(func(threadID int, cancel *atomic.Bool) {
			if !cancel.Load() {
				s.simulateBatch(start, end, threadID)
			}

			if s.jobsRemaining.Add(-1) == 0 && !cancel.Load() {
				s.reduce(energyFields)
			}
		})
	}
}

// reduce sums the per-thread scratch fields into the output fields. The
// reduction order is fixed (thread 0, 1, ...), so results are reproducible
// for a given thread count.
func (s *ReflectionSimulator) reduce(energyFields []*EnergyField) {
	for src := 0; src < s.numSources; src++ {
		out := energyFields[src]
		for t := 0; t < s.numThreads; t++ {
			AddEnergyFields(out, s.threadFields[t*s.maxNumSources+src], out)
		}
	}
}

// simulateBatch traces rays [start, end) and accumulates energy into the
// worker's scratch fields.
func (s *ReflectionSimulator) simulateBatch(start, end, threadID int) {
	for ray := start; ray < end; ray++ {
		s.traceRay(ray, threadID)
	}
}

func (s *ReflectionSimulator) traceRay(rayIndex, threadID int) {
	// Scattering decisions use a per-ray stream so a run's bounce paths do
	// not depend on batch boundaries or thread assignment.
	rng := rand.New(rand.NewSource(int64(rayIndex) + 1))

	origin := s.listener.Origin
	direction := s.listenerSamples[rayIndex]

	var throughput [dsp.NumBands]float32
	for b := range throughput {
		throughput[b] = 1
	}

	pathTime := 0.0

	for bounce := 0; bounce < s.inputs.NumBounces; bounce++ {
		hit := s.scene.ClosestHit(geom.Ray{Origin: origin, Direction: direction}, 0, math.Inf(1))
		if !hit.Valid() {
			return
		}

		pathTime += hit.T / dsp.SpeedOfSound

		for b := range throughput {
			throughput[b] *= 1 - hit.Material.Absorption[b]
		}

		s.depositEnergy(rayIndex, threadID, hit.Point, pathTime, throughput)

		// Next segment: diffuse with probability equal to the material's
		// scattering coefficient, else mirror reflection.
		if float32(rng.Float64()) < hit.Material.Scattering {
			sample := s.diffuseSamples[rng.Intn(len(s.diffuseSamples))]
			direction = sampling.HemisphereToNormal(sample, hit.Normal)
		} else {
			direction = direction.Sub(hit.Normal.Mul(2 * direction.Dot(hit.Normal)))
		}
		origin = hit.Point.Add(hit.Normal.Mul(1e-4))
	}
}

// depositEnergy casts a shadow ray from a surface point to every source and
// records the unoccluded contributions.
func (s *ReflectionSimulator) depositEnergy(rayIndex, threadID int, point geom.Vector3, pathTime float64, throughput [dsp.NumBands]float32) {
	invNumRays := 1 / float32(s.inputs.NumRays)

	for src := 0; src < s.numSources; src++ {
		sourcePos := s.sources[src].Origin

		delta := sourcePos.Sub(point)
		distance := delta.Norm()

		if s.scene.IsOccluded(point, sourcePos) {
			continue
		}

		// Irradiance falls off with the square of the source distance,
		// floored to keep sources on the surface finite.
		r := math.Max(distance, s.inputs.IrradianceMinDistance)
		falloff := float32(1 / (4 * math.Pi * r * r))

		directivity := s.directivities[src].Evaluate(s.sources[src], point)

		totalTime := pathTime + distance/dsp.SpeedOfSound
		bin := int(totalTime / BinDuration)
		field := s.threadFields[threadID*s.maxNumSources+src]
		if bin >= field.NumBins() {
			bin = field.NumBins() - 1
		}

		numCoeffs := sh.NumCoeffs(s.inputs.Order)
		for b := 0; b < dsp.NumBands; b++ {
			energy := throughput[b] * directivity * falloff * invNumRays
			if energy == 0 {
				continue
			}
			for ch := 0; ch < numCoeffs; ch++ {
				basis := s.listenerCoeffs[ch*s.maxNumRays+rayIndex]
				field.Bins(ch, b)[bin] += energy * basis
			}
		}
	}
}

// SimulateImage enqueues an image-rendering run: a square image of
// imageSize^2 pixels (imageSize = floor(sqrt(numRays))) is rendered in 8x8
// tiles, one job per tile. Each pixel traces a single first-bounce ray and
// records the irradiance arriving at the hit from the sources. image must
// hold imageSize*imageSize values, row-major.
func (s *ReflectionSimulator) SimulateImage(sc scene.IScene, sources []geom.CoordinateSpace, listener geom.CoordinateSpace,
	directivities []effects.Directivity, inputs SimulationInputs, image []float32, jobGraph *job.Graph) {

	numSources := len(sources)
	if numSources > s.maxNumSources {
		s.logger.Warn("simulating reflections for more sources than the simulator was created for; extra sources will be ignored",
			"numSources", numSources, "maxNumSources", s.maxNumSources)
		numSources = s.maxNumSources
	}

	s.inputs = inputs
	s.numSources = numSources
	copy(s.sources, sources[:numSources])
	copy(s.directivities, directivities[:numSources])
	s.listener = listener
	s.scene = sc

	for i := range image {
		image[i] = 0
	}

	imageSize := int(math.Floor(math.Sqrt(float64(inputs.NumRays))))

	for x := 0; x < imageSize; x += imageBlockSize {
		for y := 0; y < imageSize; y += imageBlockSize {
			x, y := x, y
			jobGraph.AddJob(func(threadID int, cancel *atomic.Bool) {
				if cancel.Load() {
					return
				}
				s.renderBlock(x, y, imageSize, image)
			})
		}
	}
}

func (s *ReflectionSimulator) renderBlock(xStart, yStart, imageSize int, image []float32) {
	for y := yStart; y < yStart+imageBlockSize && y < imageSize; y++ {
		for x := xStart; x < xStart+imageBlockSize && x < imageSize; x++ {
			u := 2*(float64(x)+0.5)/float64(imageSize) - 1
			v := 2*(float64(y)+0.5)/float64(imageSize) - 1

			direction := s.listener.Ahead.Add(s.listener.Right.Mul(u)).Add(s.listener.Up.Mul(-v)).Normalize()
			hit := s.scene.ClosestHit(geom.Ray{Origin: s.listener.Origin, Direction: direction}, 0, math.Inf(1))
			if !hit.Valid() {
				continue
			}

			var value float32
			for src := 0; src < s.numSources; src++ {
				sourcePos := s.sources[src].Origin
				if s.scene.IsOccluded(hit.Point, sourcePos) {
					continue
				}
				r := math.Max(sourcePos.Sub(hit.Point).Norm(), s.inputs.IrradianceMinDistance)
				value += s.directivities[src].Evaluate(s.sources[src], hit.Point) / float32(4*math.Pi*r*r)
			}
			image[y*imageSize+x] = value
		}
	}
}
