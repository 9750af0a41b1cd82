package fake

import (
	"bytes"

	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/store/mem"
)

// InMemorySnapshot is a fake implementation of a store snapshot.
//
// - implements store.Snapshot
type InMemorySnapshot struct {
	*mem.Snapshot

	ErrRead   error
	ErrWrite  error
	ErrDelete error
	ErrScan   error

	// WritePrefix limits ErrWrite to the keys starting with the prefix.
	WritePrefix []byte

	// Writes counts the successful calls to Set.
	Writes int
}

// NewSnapshot creates a new empty snapshot.
func NewSnapshot() *InMemorySnapshot {
	return &InMemorySnapshot{
		Snapshot: mem.NewSnapshot(),
	}
}

// NewBadSnapshot creates a new empty snapshot that will always return an error.
func NewBadSnapshot() *InMemorySnapshot {
	return &InMemorySnapshot{
		Snapshot:  mem.NewSnapshot(),
		ErrRead:   fakeErr,
		ErrWrite:  fakeErr,
		ErrDelete: fakeErr,
		ErrScan:   fakeErr,
	}
}

// Get implements store.Readable.
func (snap *InMemorySnapshot) Get(key []byte) ([]byte, error) {
	if snap.ErrRead != nil {
		return nil, snap.ErrRead
	}

	return snap.Snapshot.Get(key)
}

// Set implements store.Writable.
func (snap *InMemorySnapshot) Set(key, value []byte) error {
	if snap.ErrWrite != nil && bytes.HasPrefix(key, snap.WritePrefix) {
		return snap.ErrWrite
	}

	snap.Writes++

	return snap.Snapshot.Set(key, value)
}

// Delete implements store.Writable.
func (snap *InMemorySnapshot) Delete(key []byte) error {
	if snap.ErrDelete != nil {
		return snap.ErrDelete
	}

	return snap.Snapshot.Delete(key)
}

// Scan implements store.Iterable.
func (snap *InMemorySnapshot) Scan(prefix []byte, fn func(k, v []byte) error) error {
	if snap.ErrScan != nil {
		return snap.ErrScan
	}

	return snap.Snapshot.Scan(prefix, fn)
}

// Dump returns a copy of every pair of the snapshot.
func (snap *InMemorySnapshot) Dump() map[string][]byte {
	pairs := map[string][]byte{}

	snap.Snapshot.Scan(nil, func(k, v []byte) error {
		pairs[string(k)] = v
		return nil
	})

	return pairs
}

var _ store.Snapshot = (*InMemorySnapshot)(nil)
