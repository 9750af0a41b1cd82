// Package txn defines the abstraction of transactions.
//
// A transaction is a smart contract input. It is uniquely identifiable via a
// digest and it can be sorted with the nonce that acts as a sequence number.
// The transaction carries the addresses that the hosting ledger attested as
// signers, which the contracts use for authentication.
package txn

import (
	"go.missionstake.io/stake/core/access"
)

// Transaction is what triggers a smart contract execution by passing it as part
// of the input.
type Transaction interface {
	// GetID returns the unique identifier for the transaction.
	GetID() []byte

	// GetNonce returns the nonce of the transaction which corresponds to the
	// sequence number of the ledger.
	GetNonce() uint64

	// GetWitnesses returns the addresses that signed the transaction.
	GetWitnesses() []access.Address

	// GetArg is a getter for the arguments of the transaction.
	GetArg(key string) []byte
}

// Arg is a generic argument that can be stored in a transaction.
type Arg struct {
	Key   string
	Value []byte
}

// Manager creates the transactions of a client. The witnesses are the
// addresses the host attests as signers.
type Manager interface {
	Make(witnesses []access.Address, args ...Arg) (Transaction, error)
}
