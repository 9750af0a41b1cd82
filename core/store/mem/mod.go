// Package mem implements an in-memory store. Writes can be staged on a child
// snapshot over any other snapshot, and they are flushed into the parent only
// when the staging function succeeds.
package mem

import (
	"bytes"
	"sort"
	"sync"

	"go.missionstake.io/stake/core/store"
	"golang.org/x/xerrors"
)

type item struct {
	value   []byte
	deleted bool
}

// Snapshot is an in-memory implementation of a store snapshot. It saves the
// updates in an internal store and only keep the updates of the current
// snapshot. When reading, it'll look up by following the parent if the key is
// not found.
//
// - implements store.Snapshot
type Snapshot struct {
	sync.Mutex
	parent store.Snapshot
	store  map[string]item
}

// NewSnapshot returns a new empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		store: make(map[string]item),
	}
}

// NewOverlay returns an empty snapshot that reads through to the parent.
// Nothing is written to the parent until Flush is called.
func NewOverlay(parent store.Snapshot) *Snapshot {
	return &Snapshot{
		parent: parent,
		store:  make(map[string]item),
	}
}

// Get implements store.Readable. It returns nil when the key is not set or was
// deleted.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	s.Lock()
	it, found := s.store[string(key)]
	s.Unlock()

	if found {
		if it.deleted {
			return nil, nil
		}

		return append([]byte{}, it.value...), nil
	}

	if s.parent == nil {
		return nil, nil
	}

	return s.parent.Get(key)
}

// Set implements store.Writable.
func (s *Snapshot) Set(key, value []byte) error {
	s.Lock()
	s.store[string(key)] = item{value: append([]byte{}, value...)}
	s.Unlock()

	return nil
}

// Delete implements store.Writable. Without a parent the key is dropped,
// otherwise it is marked as deleted so that the parent value is hidden.
func (s *Snapshot) Delete(key []byte) error {
	s.Lock()
	if s.parent == nil {
		delete(s.store, string(key))
	} else {
		s.store[string(key)] = item{deleted: true}
	}
	s.Unlock()

	return nil
}

// Scan implements store.Iterable. It visits the keys of the snapshot and of
// its parent in ascending order.
func (s *Snapshot) Scan(prefix []byte, fn func(key, value []byte) error) error {
	pairs := map[string][]byte{}
	hidden := map[string]struct{}{}

	s.Lock()
	for key, it := range s.store {
		if !bytes.HasPrefix([]byte(key), prefix) {
			continue
		}

		if it.deleted {
			hidden[key] = struct{}{}
		} else {
			pairs[key] = append([]byte{}, it.value...)
		}
	}
	s.Unlock()

	if s.parent != nil {
		err := s.parent.Scan(prefix, func(key, value []byte) error {
			_, seen := pairs[string(key)]
			_, masked := hidden[string(key)]
			if !seen && !masked {
				pairs[string(key)] = append([]byte{}, value...)
			}

			return nil
		})
		if err != nil {
			return xerrors.Errorf("failed to scan parent: %v", err)
		}
	}

	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		err := fn([]byte(key), pairs[key])
		if err != nil {
			return err
		}
	}

	return nil
}

// Flush writes the updates of the snapshot into its parent in key order and
// resets the snapshot. When a write fails, the keys already written are
// restored to their previous value in the parent.
func (s *Snapshot) Flush() error {
	if s.parent == nil {
		return nil
	}

	s.Lock()
	defer s.Unlock()

	keys := make([]string, 0, len(s.store))
	for key := range s.store {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	previous := make([][]byte, 0, len(keys))

	for _, key := range keys {
		prev, err := s.flushKey(key)
		if err != nil {
			err = xerrors.Errorf("failed to flush key '%x': %v", key, err)

			rerr := s.restore(keys[:len(previous)], previous)
			if rerr != nil {
				return xerrors.Errorf("%v (restore: %v)", err, rerr)
			}

			return err
		}

		previous = append(previous, prev)
	}

	s.store = make(map[string]item)

	return nil
}

// flushKey writes the update of the key into the parent and returns the value
// it replaced.
func (s *Snapshot) flushKey(key string) ([]byte, error) {
	prev, err := s.parent.Get([]byte(key))
	if err != nil {
		return nil, err
	}

	it := s.store[key]
	if it.deleted {
		err = s.parent.Delete([]byte(key))
	} else {
		err = s.parent.Set([]byte(key), it.value)
	}

	return prev, err
}

// restore writes back the previous values of the keys in reverse order. A nil
// value means the key was not set.
func (s *Snapshot) restore(keys []string, values [][]byte) error {
	for i := len(keys) - 1; i >= 0; i-- {
		var err error

		if values[i] == nil {
			err = s.parent.Delete([]byte(keys[i]))
		} else {
			err = s.parent.Set([]byte(keys[i]), values[i])
		}

		if err != nil {
			return xerrors.Errorf("failed to restore key '%x': %v", keys[i], err)
		}
	}

	return nil
}

// Stage runs the function on a child snapshot. The updates are merged into
// this snapshot only if the function returns without error.
func (s *Snapshot) Stage(fn func(store.Snapshot) error) error {
	return Stage(s, fn)
}

// Stage runs the function on an overlay of the parent snapshot. The updates of
// the function are written to the parent only if it returns without error.
func Stage(parent store.Snapshot, fn func(store.Snapshot) error) error {
	child := NewOverlay(parent)

	err := fn(child)
	if err != nil {
		return err
	}

	return child.Flush()
}

// Len returns the number of live keys visible from the snapshot.
func (s *Snapshot) Len() int {
	count := 0

	s.Scan(nil, func(key, value []byte) error {
		count++
		return nil
	})

	return count
}
