// Package execution defines the service to execute a step of a transaction.
package execution

import (
	"time"

	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/txn"
)

// Step is a context of execution. It contains the transaction to execute and
// the ledger time of the block it belongs to.
type Step struct {
	// Previous contains the transactions already executed in the same block.
	Previous []txn.Transaction

	// Current is the transaction to execute.
	Current txn.Transaction

	// Timestamp is the ledger time of the execution. Contracts must use it
	// instead of the local clock.
	Timestamp time.Time
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a change to the execution to explain why a transaction has
	// failed.
	Message string

	// Output is the data returned by the contract, if any.
	Output []byte
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the result
	// of it.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
