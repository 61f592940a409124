package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// EntityKind identifies which entity type a buffer holds. Used for error
// context and codec instrumentation, never written to the wire.
type EntityKind string

const (
	KindChannel     EntityKind = "channel"
	KindCurrentUser EntityKind = "current_user"
	KindGuild       EntityKind = "guild"
	KindMember      EntityKind = "member"
	KindRole        EntityKind = "role"
	KindUser        EntityKind = "user"
)

// Pre-allocation hints for encode buffers, in bytes. These are tuning
// constants, not limits; the instrumented codec warns when the observed
// average encoded size of a kind grows past its hint.
var preallocSizes = map[EntityKind]int{
	KindChannel:     256,
	KindCurrentUser: 64,
	KindGuild:       128,
	KindMember:      192,
	KindRole:        64,
	KindUser:        64,
}

// observeWindow is how many recent encodes feed each kind's running average.
const observeWindow = 64

// Codec converts entities to and from the compact binary storage format.
// Values are encoded positionally (msgpack array encoding), so the format is
// not self-describing and is only guaranteed stable within one process
// version; decode failures on old buffers are expected after an upgrade and
// surface as cache misses, never as crashes.
type Codec struct {
	observer *sizeObserver
	logger   *zap.Logger
}

// NewCodec creates a codec. With instrument set, every encode feeds a
// per-kind size average and undersized pre-allocation hints are reported
// through the logger; the flag costs a mutex per encode and is meant for
// development configs.
func NewCodec(logger *zap.Logger, instrument bool) *Codec {
	c := &Codec{logger: logger.Named("codec")}
	if instrument {
		c.observer = newSizeObserver()
	}

	return c
}

// Encode serializes an entity into its storage buffer.
func (c *Codec) Encode(kind EntityKind, value any) ([]byte, error) {
	buf, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, errors.Join(ErrSerialization, err))
	}

	if c.observer != nil {
		if avg, exceeded := c.observer.record(kind, len(buf)); exceeded {
			c.logger.Warn("Encoded size average exceeds pre-allocation hint",
				zap.String("kind", string(kind)),
				zap.Int("hint", preallocSizes[kind]),
				zap.Int("observedAvg", avg))
		}
	}

	return buf, nil
}

// Decode deserializes a storage buffer into value, which must be a pointer.
func (c *Codec) Decode(kind EntityKind, data []byte, value any) error {
	if err := msgpack.Unmarshal(data, value); err != nil {
		return fmt.Errorf("decode %s: %w", kind, errors.Join(ErrDeserialization, err))
	}

	return nil
}

// sizeObserver keeps a ring of recent encoded sizes per entity kind and
// reports when a kind's running average crosses its pre-allocation hint.
// Each crossing is reported once until the average drops back below.
type sizeObserver struct {
	mu    sync.Mutex
	rings map[EntityKind]*sizeRing
}

type sizeRing struct {
	sizes    [observeWindow]int
	next     int
	count    int
	total    int
	reported bool
}

func newSizeObserver() *sizeObserver {
	return &sizeObserver{rings: make(map[EntityKind]*sizeRing)}
}

// record adds one encoded size and returns the current average plus whether
// the average newly exceeded the kind's hint.
func (o *sizeObserver) record(kind EntityKind, size int) (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ring := o.rings[kind]
	if ring == nil {
		ring = &sizeRing{}
		o.rings[kind] = ring
	}

	if ring.count == observeWindow {
		ring.total -= ring.sizes[ring.next]
	} else {
		ring.count++
	}

	ring.sizes[ring.next] = size
	ring.total += size
	ring.next = (ring.next + 1) % observeWindow

	avg := ring.total / ring.count
	if avg > preallocSizes[kind] {
		if !ring.reported {
			ring.reported = true
			return avg, true
		}
	} else {
		ring.reported = false
	}

	return avg, false
}
