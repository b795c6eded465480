// Command auralrender renders the reflections of a scene description to an
// impulse-response WAV file. It is an offline driver for the simulation
// layer: it loads a YAML scene, traces reflections on a worker pool,
// reconstructs the spherical-harmonic impulse response, and writes the
// result.
//
// Usage:
//
//	auralrender --config room.yaml --output ir.wav --rays 8192 --bounces 16
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/auralab/aural/effects"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/job"
	"github.com/auralab/aural/scene"
	"github.com/auralab/aural/sim"
)

type vectorConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v vectorConfig) vector() geom.Vector3 {
	return geom.V(v.X, v.Y, v.Z)
}

type materialConfig struct {
	Name         string     `yaml:"name"`
	Absorption   [3]float32 `yaml:"absorption"`
	Scattering   float32    `yaml:"scattering"`
	Transmission [3]float32 `yaml:"transmission"`
}

type boxConfig struct {
	Min      vectorConfig `yaml:"min"`
	Max      vectorConfig `yaml:"max"`
	Material string       `yaml:"material"`
}

type sourceConfig struct {
	Position     vectorConfig `yaml:"position"`
	DipoleWeight float64      `yaml:"dipoleWeight"`
	DipolePower  float64      `yaml:"dipolePower"`
}

type sceneConfig struct {
	Listener  vectorConfig     `yaml:"listener"`
	Sources   []sourceConfig   `yaml:"sources"`
	Materials []materialConfig `yaml:"materials"`
	Boxes     []boxConfig      `yaml:"boxes"`
}

func main() {
	var (
		configPath   = pflag.String("config", "", "scene description YAML (required)")
		outputPath   = pflag.String("output", "ir.wav", "output WAV path")
		numRays      = pflag.Int("rays", 8192, "number of rays")
		numBounces   = pflag.Int("bounces", 16, "number of bounces per ray")
		duration     = pflag.Float64("duration", 2.0, "impulse response duration in seconds")
		order        = pflag.Int("order", 1, "ambisonic order")
		numThreads   = pflag.Int("threads", 4, "simulation worker count")
		samplingRate = pflag.Int("sample-rate", 48000, "output sampling rate in Hz")
		verbose      = pflag.Bool("verbose", false, "enable debug logging")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "auralrender"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *configPath == "" {
		logger.Error("--config is required")
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(logger, *configPath, *outputPath, *numRays, *numBounces, *duration, *order, *numThreads, *samplingRate); err != nil {
		logger.Error("render failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, configPath, outputPath string, numRays, numBounces int, duration float64, order, numThreads, samplingRate int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	world, err := buildScene(cfg)
	if err != nil {
		return err
	}

	sources := make([]geom.CoordinateSpace, len(cfg.Sources))
	directivities := make([]effects.Directivity, len(cfg.Sources))
	for i, src := range cfg.Sources {
		sources[i] = geom.CanonicalSpace(src.Position.vector())
		directivities[i] = effects.Directivity{
			DipoleWeight: src.DipoleWeight,
			DipolePower:  src.DipolePower,
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("scene has no sources")
	}

	listener := geom.CanonicalSpace(cfg.Listener.vector())

	logger.Info("simulating reflections",
		"sources", len(sources), "rays", numRays, "bounces", numBounces,
		"duration", duration, "order", order, "threads", numThreads)

	simulator := sim.NewReflectionSimulator(numRays, 512, duration, order, len(sources), numThreads, logger)

	fields := make([]*sim.EnergyField, len(sources))
	for i := range fields {
		fields[i] = sim.NewEnergyField(duration, order)
	}

	graph := job.NewGraph()
	simulator.Simulate(world, sources, listener, directivities, sim.SimulationInputs{
		NumRays:               numRays,
		NumBounces:            numBounces,
		Duration:              duration,
		Order:                 order,
		IrradianceMinDistance: 1,
	}, fields, graph)

	pool := job.NewPool(numThreads)
	if err := pool.Process(context.Background(), graph); err != nil {
		return err
	}

	logger.Info("reconstructing impulse response", "samplingRate", samplingRate)

	reconstructor := sim.NewReconstructor(duration, order, samplingRate)
	ir := sim.NewImpulseResponse(duration, order, samplingRate)
	reconstructor.Reconstruct(fields[0], order, ir)

	if err := writeWAV(outputPath, ir, samplingRate); err != nil {
		return err
	}

	logger.Info("wrote impulse response", "path", outputPath,
		"channels", ir.NumChannels(), "samples", ir.NumSamples())
	return nil
}

func loadConfig(path string) (*sceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg sceneConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func buildScene(cfg *sceneConfig) (*scene.Scene, error) {
	materials := make([]scene.Material, len(cfg.Materials))
	materialIndex := make(map[string]int32, len(cfg.Materials))
	for i, m := range cfg.Materials {
		materials[i] = scene.Material{
			Absorption:   m.Absorption,
			Scattering:   m.Scattering,
			Transmission: m.Transmission,
		}
		materialIndex[m.Name] = int32(i)
	}

	world := scene.NewScene()
	for _, box := range cfg.Boxes {
		idx, ok := materialIndex[box.Material]
		if !ok {
			return nil, fmt.Errorf("box references unknown material %q", box.Material)
		}
		world.AddStaticMesh(boxMesh(box.Min.vector(), box.Max.vector(), idx, materials))
	}
	world.Commit()
	return world, nil
}

// boxMesh triangulates an axis-aligned box: 8 vertices, 12 triangles, all
// with the same material.
func boxMesh(boxMin, boxMax geom.Vector3, materialIdx int32, materials []scene.Material) *scene.StaticMesh {
	vertices := []geom.Vector3{
		geom.V(boxMin.X, boxMin.Y, boxMin.Z),
		geom.V(boxMax.X, boxMin.Y, boxMin.Z),
		geom.V(boxMax.X, boxMax.Y, boxMin.Z),
		geom.V(boxMin.X, boxMax.Y, boxMin.Z),
		geom.V(boxMin.X, boxMin.Y, boxMax.Z),
		geom.V(boxMax.X, boxMin.Y, boxMax.Z),
		geom.V(boxMax.X, boxMax.Y, boxMax.Z),
		geom.V(boxMin.X, boxMax.Y, boxMax.Z),
	}

	faces := [][4]int32{
		{0, 1, 2, 3}, // back
		{5, 4, 7, 6}, // front
		{4, 0, 3, 7}, // left
		{1, 5, 6, 2}, // right
		{3, 2, 6, 7}, // top
		{4, 5, 1, 0}, // bottom
	}

	var triangles []scene.Triangle
	var indices []int32
	for _, f := range faces {
		triangles = append(triangles,
			scene.Triangle{Indices: [3]int32{f[0], f[1], f[2]}},
			scene.Triangle{Indices: [3]int32{f[0], f[2], f[3]}})
		indices = append(indices, materialIdx, materialIdx)
	}

	return scene.NewStaticMesh(vertices, triangles, indices, materials)
}

// writeWAV writes the IR channels as interleaved 32-bit float PCM.
func writeWAV(path string, ir *sim.ImpulseResponse, samplingRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	numChannels := ir.NumChannels()
	numSamples := ir.NumSamples()

	interleaved := make([]float32, numChannels*numSamples)
	for s := 0; s < numSamples; s++ {
		for ch := 0; ch < numChannels; ch++ {
			interleaved[s*numChannels+ch] = ir.Channel(ch)[s]
		}
	}

	enc := wav.NewEncoder(f, samplingRate, 32, numChannels, 3)
	if err := enc.Write(&audio.Float32Buffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  samplingRate,
		},
		Data: interleaved,
	}); err != nil {
		return err
	}
	return enc.Close()
}
