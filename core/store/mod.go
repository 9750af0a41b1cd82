// Package store defines the primitives of a simple key/value storage.
//
// A snapshot is the view of the store a single ledger transaction operates
// on. Values returned for a missing key are nil without error.
package store

// Readable is the interface for a readable store.
type Readable interface {
	Get(key []byte) ([]byte, error)
}

// Writable is the interface for a writable store.
type Writable interface {
	Set(key []byte, value []byte) error

	Delete(key []byte) error
}

// Iterable is the interface for a store that can enumerate its keys by
// prefix. The keys are visited in ascending byte order and the iteration stops
// at the first error returned by the callback.
type Iterable interface {
	Scan(prefix []byte, fn func(key, value []byte) error) error
}

// Snapshot is a state of the store that can be read and write independently. A
// write is applied only to the snapshot reference.
type Snapshot interface {
	Readable
	Writable
	Iterable
}

// Transaction is a generic interface that store implementations can use to
// provide atomicity.
type Transaction interface {
	// OnCommit adds a callback to be executed after the transaction
	// successfully commits.
	OnCommit(func())
}
