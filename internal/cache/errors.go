package cache

import "errors"

var (
	// ErrConnection indicates the backing store could not be reached or the
	// connection manager could not produce a usable client.
	ErrConnection = errors.New("cache backend connection failed")

	// ErrSerialization indicates an entity could not be encoded. Well-formed
	// entities always encode, so hitting this is a programming error.
	ErrSerialization = errors.New("entity serialization failed")

	// ErrDeserialization indicates a stored buffer could not be decoded.
	// Read paths treat this as a cache miss since stale or foreign-format
	// entries must never take the process down.
	ErrDeserialization = errors.New("entity deserialization failed")

	// ErrColdResumeMissing indicates no cold resume snapshot exists under the
	// well-known keys, either because none was written or it expired.
	ErrColdResumeMissing = errors.New("no cold resume data available")

	// ErrColdResumeIncomplete indicates a snapshot exists but one or more of
	// its chunks could not be read back. Partial restores are not attempted;
	// the caller falls back to a full gateway sync.
	ErrColdResumeIncomplete = errors.New("cold resume data incomplete")
)
