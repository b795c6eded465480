// Package aural is the core of a real-time spatial audio engine: HRTF-based
// binaural rendering of sound sources, plus simulation of how sound
// interacts with a virtual environment (attenuation, occlusion,
// transmission, reflections, and diffraction-aware pathing).
//
// The package is organized as a frame-based effect graph. Hosts create a
// Context, register Sources, and run one Spatializer per source from their
// audio callback. Simulation runs on worker goroutines and publishes
// immutable results through lock-free handoff slots that the audio thread
// samples at frame boundaries.
//
// # Threads
//
// Two thread classes exist. The audio thread runs Spatializer.Apply once per
// frame; it never allocates, blocks, or logs on the steady-state path. The
// simulation workers drain job graphs built by the reflection simulator (see
// the sim package) and publish results with Source.SetOutputs,
// Context.PublishHRTF, and friends.
//
// # Subpackages
//
//   - dsp: audio buffers, array math, bands, IIR filters, gain and EQ
//   - sh: spherical harmonics and their rotation
//   - geom: vectors, coordinate spaces, quaternions, rays
//   - hrtf: HRTF databases and the bundled default set
//   - effects: convolution, binaural, Ambisonic, direct, and path effects
//   - scene: ray-traceable world geometry
//   - sim: reflection simulation, IR reconstruction, probe visibility
//   - job: the job graph and worker pool
package aural
