package reactive

import "sync/atomic"

// globalIDCounter is the source of unique IDs for all reactive primitives.
// IDs are process-wide even across runtimes so that registry snapshots and
// devtools streams from different runtimes never collide.
var globalIDCounter uint64

// nextID returns the next unique ID for a reactive primitive.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
