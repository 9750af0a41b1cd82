package kv

import (
	"go.missionstake.io/stake/core/store"
	"golang.org/x/xerrors"
)

// bucketSnapshot exposes a bucket as a store snapshot. Values read from the
// database are copied because bbolt only guarantees them for the lifetime of
// the transaction.
//
// - implements store.Snapshot
type bucketSnapshot struct {
	bucket Bucket
}

// NewSnapshot returns a snapshot that reads and writes in the bucket. A nil
// bucket is a valid empty read-only snapshot.
func NewSnapshot(bucket Bucket) store.Snapshot {
	return bucketSnapshot{bucket: bucket}
}

// Get implements store.Readable. It returns a copy of the value, or nil if the
// key is not set.
func (s bucketSnapshot) Get(key []byte) ([]byte, error) {
	if s.bucket == nil {
		return nil, nil
	}

	return clone(s.bucket.Get(key)), nil
}

// Set implements store.Writable.
func (s bucketSnapshot) Set(key, value []byte) error {
	if s.bucket == nil {
		return xerrors.New("read-only snapshot")
	}

	err := s.bucket.Set(key, value)
	if err != nil {
		return xerrors.Errorf("failed to set key '%x': %v", key, err)
	}

	return nil
}

// Delete implements store.Writable.
func (s bucketSnapshot) Delete(key []byte) error {
	if s.bucket == nil {
		return xerrors.New("read-only snapshot")
	}

	err := s.bucket.Delete(key)
	if err != nil {
		return xerrors.Errorf("failed to delete key '%x': %v", key, err)
	}

	return nil
}

// Scan implements store.Iterable. The callback receives copies of the pairs.
func (s bucketSnapshot) Scan(prefix []byte, fn func(key, value []byte) error) error {
	if s.bucket == nil {
		return nil
	}

	return s.bucket.Scan(prefix, func(k, v []byte) error {
		return fn(clone(k), clone(v))
	})
}

func clone(data []byte) []byte {
	if data == nil {
		return nil
	}

	buffer := make([]byte, len(data))
	copy(buffer, data)

	return buffer
}
