// Package kv is the durable storage of the ledger. The serial ordering service
// keeps the whole ledger state in one bucket of the database, and each
// transaction is committed in a single writable transaction so that a crash
// never leaves a mission half written.
//
// New opens the database backed by bbolt (https://github.com/etcd-io/bbolt),
// and NewSnapshot exposes a bucket to the contracts as a store.Snapshot.
package kv

import "go.missionstake.io/stake/core/store"

// Bucket is a namespace of keys in the database.
type Bucket interface {
	// Get returns the value of the key, or nil when the key is not set. The
	// slice is only valid for the duration of the transaction.
	Get(key []byte) []byte

	Set(key, value []byte) error

	Delete(key []byte) error

	// ForEach visits every pair of the bucket until the callback returns an
	// error.
	ForEach(func(k, v []byte) error) error

	// Scan visits the pairs whose key starts with the prefix in ascending key
	// order. It stops at the first error of the callback.
	Scan(prefix []byte, fn func(k, v []byte) error) error
}

// ReadableTx is a read-only transaction used by the queries.
type ReadableTx interface {
	// GetBucket returns nil when the bucket was never created.
	GetBucket(name []byte) Bucket
}

// WritableTx is the transaction a ledger block is committed in. Its changes
// are discarded when the update function returns an error.
type WritableTx interface {
	store.Transaction

	ReadableTx

	GetBucketOrCreate(name []byte) (Bucket, error)
}

// DB is the database of a node.
type DB interface {
	// View runs the function in a read-only transaction. Views can run in
	// parallel to each other and to an update.
	View(fn func(ReadableTx) error) error

	// Update runs the function in a writable transaction that is committed
	// when it returns nil. Concurrent updates are applied one after the other.
	Update(fn func(WritableTx) error) error

	// Close releases the file lock of the database.
	Close() error
}
