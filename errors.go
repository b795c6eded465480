// errors.go defines public error types for the aural package.

package aural

import "errors"

// Public error types for engine construction and resource loading.
var (
	// ErrInvalidSettings indicates unusable audio settings.
	// The sampling rate and frame size must both be positive.
	ErrInvalidSettings = errors.New("aural: invalid audio settings (sampling rate and frame size must be positive)")

	// ErrInvalidOrder indicates an unsupported Ambisonic order.
	// Orders 0 through 3 are supported.
	ErrInvalidOrder = errors.New("aural: invalid ambisonic order (must be 0-3)")

	// ErrHRTFLoad indicates a source-provided HRTF could not be parsed.
	ErrHRTFLoad = errors.New("aural: failed to load HRTF data")

	// ErrSerializedDataFormat indicates a serialized blob failed its magic,
	// type, or version check.
	ErrSerializedDataFormat = errors.New("aural: unrecognized serialized data")

	// ErrContextClosed indicates use of a context after Close.
	ErrContextClosed = errors.New("aural: context is closed")

	// ErrInvalidHandle indicates a source handle that is not registered.
	ErrInvalidHandle = errors.New("aural: invalid source handle")
)
