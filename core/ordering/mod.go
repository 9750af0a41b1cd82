// Package ordering defines the interface of the ordering service. The
// high-level purpose of this service is to apply the transactions to the
// state in a single total order.
//
// Depending on the implementation, the service can be composed of multiple
// sub-components. The serial implementation orders the transactions of a
// single node by applying them one after the other.
package ordering

import (
	"context"

	"go.missionstake.io/stake/core/execution"
	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/txn"
)

// Event is the notification of a transaction applied to the state.
type Event struct {
	// Index is the position of the transaction in the order.
	Index uint64

	// TxID is the identifier of the transaction.
	TxID []byte

	// Result is the outcome of the execution.
	Result execution.Result
}

// Service is the interface of an ordering service.
type Service interface {
	// Execute orders the transaction after every transaction submitted
	// before and applies it. An error returned by the execution aborts the
	// transaction and none of its writes is applied.
	Execute(ctx context.Context, tx txn.Transaction) (execution.Result, error)

	// View runs the function on a read-only snapshot of the latest state.
	View(fn func(store.Snapshot) error) error

	// Watch returns a channel populated with the events of the transactions
	// applied until the context is done.
	Watch(ctx context.Context) <-chan Event

	// Close releases the resources of the service.
	Close() error
}
