package aural

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/hrtf"
	"github.com/auralab/aural/job"
)

// ContextSettings configures an engine context.
type ContextSettings struct {
	AudioSettings dsp.AudioSettings

	// NumWorkers sets the simulation worker count; defaults to 1.
	NumWorkers int

	// Logger receives engine diagnostics; defaults to a stderr logger.
	Logger *log.Logger

	// HRTFData optionally supplies a serialized HRIR set; when nil the
	// bundled default set is used.
	HRTFData []byte
}

// Context is the process-wide engine handle: it owns the logger, the default
// HRTF, the source registry, the simulation worker pool, and the publication
// slots shared between the simulation and audio threads. Create one with
// Init and release it with Close; there are no package-level globals.
type Context struct {
	settings dsp.AudioSettings
	logger   *log.Logger

	sourceManager *SourceManager
	workers       *job.Pool

	defaultHRTF *hrtf.Database

	publishedHRTF   Handoff[hrtf.Database]
	publishedReverb Handoff[Source]
	publishedMixer  Handoff[ReflectionMixer]

	closed bool
}

// Init creates a context. Construction either succeeds fully or returns an
// error and leaks nothing.
func Init(settings ContextSettings) (*Context, error) {
	if !settings.AudioSettings.Valid() {
		return nil, ErrInvalidSettings
	}

	logger := settings.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "aural"})
	}

	numWorkers := settings.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}

	var set *hrtf.HRIRSet
	if settings.HRTFData != nil {
		loaded, err := hrtf.LoadHRIRSet(settings.HRTFData)
		if err != nil {
			return nil, ErrHRTFLoad
		}
		set = loaded
	} else {
		set = hrtf.DefaultHRIRSet(settings.AudioSettings.SamplingRate)
	}

	c := &Context{
		settings:      settings.AudioSettings,
		logger:        logger,
		sourceManager: NewSourceManager(),
		workers:       job.NewPool(numWorkers),
		defaultHRTF:   hrtf.NewDatabase(settings.AudioSettings, set),
	}
	c.publishedHRTF.Publish(c.defaultHRTF)
	return c, nil
}

// Close cancels in-flight simulation work and marks the context unusable.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.workers.Cancel()
	c.closed = true
}

// AudioSettings returns the context's immutable audio settings.
func (c *Context) AudioSettings() dsp.AudioSettings { return c.settings }

// Logger returns the context logger.
func (c *Context) Logger() *log.Logger { return c.logger }

// Workers returns the simulation worker pool.
func (c *Context) Workers() *job.Pool { return c.workers }

// DefaultHRTF returns the bundled HRTF database.
func (c *Context) DefaultHRTF() *hrtf.Database { return c.defaultHRTF }

// SourceManager returns the source registry.
func (c *Context) SourceManager() *SourceManager { return c.sourceManager }

// AddSource registers a new simulation source.
func (c *Context) AddSource() *Source { return c.sourceManager.AddSource() }

// RemoveSource unregisters a source handle.
func (c *Context) RemoveSource(handle SourceHandle) error {
	return c.sourceManager.RemoveSource(handle)
}

// GetSource resolves a source handle, returning nil when unregistered.
func (c *Context) GetSource(handle SourceHandle) *Source {
	return c.sourceManager.GetSource(handle)
}

// PublishHRTF stages a new HRTF database for the audio thread. The database
// must not be mutated after publication.
func (c *Context) PublishHRTF(db *hrtf.Database) {
	c.publishedHRTF.Publish(db)
}

// SnapshotHRTF promotes and returns the audio-thread-visible HRTF. Audio
// thread only.
func (c *Context) SnapshotHRTF() *hrtf.Database {
	return c.publishedHRTF.Snapshot()
}

// PublishReverbSource stages the source whose reflections drive listener-
// centric reverb.
func (c *Context) PublishReverbSource(source *Source) {
	c.publishedReverb.Publish(source)
}

// SnapshotReverbSource promotes and returns the reverb source. Audio thread
// only.
func (c *Context) SnapshotReverbSource() *Source {
	return c.publishedReverb.Snapshot()
}

// PublishReflectionMixer stages a shared reflection mixer; orchestrators
// feed their reflection inputs to it instead of decoding locally.
func (c *Context) PublishReflectionMixer(mixer *ReflectionMixer) {
	c.publishedMixer.Publish(mixer)
}

// SnapshotReflectionMixer promotes and returns the shared mixer, or nil when
// none is published. Audio thread only.
func (c *Context) SnapshotReflectionMixer() *ReflectionMixer {
	return c.publishedMixer.Snapshot()
}
