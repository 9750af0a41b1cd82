package serial

import (
	"sync"

	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/store/kv"
	"go.missionstake.io/stake/core/store/mem"
	"golang.org/x/xerrors"
)

// Backend is the storage the service applies the transactions to. Update must
// discard every write of the function when it returns an error.
type Backend interface {
	Update(fn func(store.Snapshot) error) error
	View(fn func(store.Snapshot) error) error
	Close() error
}

// kvBackend stores the state in one bucket of a key/value database. Each
// update is a database transaction.
//
// - implements serial.Backend
type kvBackend struct {
	db     kv.DB
	bucket []byte
}

// NewKVBackend returns a backend storing the state in the bucket of the
// database.
func NewKVBackend(db kv.DB, bucket []byte) Backend {
	return kvBackend{
		db:     db,
		bucket: bucket,
	}
}

// Update implements serial.Backend.
func (b kvBackend) Update(fn func(store.Snapshot) error) error {
	return b.db.Update(func(txn kv.WritableTx) error {
		bucket, err := txn.GetBucketOrCreate(b.bucket)
		if err != nil {
			return xerrors.Errorf("failed to get bucket: %v", err)
		}

		return fn(kv.NewSnapshot(bucket))
	})
}

// View implements serial.Backend. The snapshot is empty until the first
// update creates the bucket.
func (b kvBackend) View(fn func(store.Snapshot) error) error {
	return b.db.View(func(txn kv.ReadableTx) error {
		return fn(readOnly{Snapshot: kv.NewSnapshot(txn.GetBucket(b.bucket))})
	})
}

// Close implements serial.Backend.
func (b kvBackend) Close() error {
	return b.db.Close()
}

// memBackend stores the state in memory.
//
// - implements serial.Backend
type memBackend struct {
	sync.RWMutex
	snap *mem.Snapshot
}

// NewMemBackend returns a backend storing the state in memory.
func NewMemBackend() Backend {
	return &memBackend{snap: mem.NewSnapshot()}
}

// Update implements serial.Backend.
func (b *memBackend) Update(fn func(store.Snapshot) error) error {
	b.Lock()
	defer b.Unlock()

	return b.snap.Stage(fn)
}

// View implements serial.Backend.
func (b *memBackend) View(fn func(store.Snapshot) error) error {
	b.RLock()
	defer b.RUnlock()

	return fn(readOnly{Snapshot: b.snap})
}

// Close implements serial.Backend.
func (b *memBackend) Close() error {
	return nil
}

// readOnly is a snapshot that refuses the writes.
//
// - implements store.Snapshot
type readOnly struct {
	store.Snapshot
}

// Set implements store.Writable. It always returns an error.
func (readOnly) Set(key, value []byte) error {
	return xerrors.New("read-only snapshot")
}

// Delete implements store.Writable. It always returns an error.
func (readOnly) Delete(key []byte) error {
	return xerrors.New("read-only snapshot")
}
