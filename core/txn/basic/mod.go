// Package basic implements a transaction made of arguments and witnesses.
package basic

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"sort"
	"sync"

	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/txn"
	"golang.org/x/xerrors"
)

// Transaction is a transaction whose signers are attested by the host that
// submits it.
//
// - implements txn.Transaction
type Transaction struct {
	nonce     uint64
	args      map[string][]byte
	witnesses []access.Address
	hash      []byte
}

// TransactionOption is the type of options to create a transaction.
type TransactionOption func(*Transaction)

// WithArg is an option to set an argument with the key and the value.
func WithArg(key string, value []byte) TransactionOption {
	return func(tx *Transaction) {
		tx.args[key] = value
	}
}

// WithWitness is an option to add a signer to the transaction.
func WithWitness(addr access.Address) TransactionOption {
	return func(tx *Transaction) {
		tx.witnesses = append(tx.witnesses, addr)
	}
}

// NewTransaction creates a new transaction with the provided nonce.
func NewTransaction(nonce uint64, opts ...TransactionOption) (Transaction, error) {
	tx := Transaction{
		nonce: nonce,
		args:  make(map[string][]byte),
	}

	for _, opt := range opts {
		opt(&tx)
	}

	h := sha256.New()
	err := tx.Fingerprint(h)
	if err != nil {
		return tx, xerrors.Errorf("couldn't fingerprint tx: %v", err)
	}

	tx.hash = h.Sum(nil)

	return tx, nil
}

// GetID implements txn.Transaction. It returns the ID of the transaction.
func (t Transaction) GetID() []byte {
	return t.hash
}

// GetNonce implements txn.Transaction. It returns the nonce of the
// transaction.
func (t Transaction) GetNonce() uint64 {
	return t.nonce
}

// GetWitnesses implements txn.Transaction. It returns the signers.
func (t Transaction) GetWitnesses() []access.Address {
	return append([]access.Address{}, t.witnesses...)
}

// GetArgs returns the sorted list of arguments available.
func (t Transaction) GetArgs() []string {
	args := make([]string, 0, len(t.args))
	for key := range t.args {
		args = append(args, key)
	}

	sort.Strings(args)

	return args
}

// GetArg implements txn.Transaction. It returns the value of the argument if it
// is set, otherwise nil.
func (t Transaction) GetArg(key string) []byte {
	return t.args[key]
}

// Fingerprint writes a deterministic binary representation of the
// transaction.
func (t Transaction) Fingerprint(w io.Writer) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, t.nonce)

	_, err := w.Write(buffer)
	if err != nil {
		return xerrors.Errorf("couldn't write nonce: %v", err)
	}

	for _, key := range t.GetArgs() {
		err = writeField(w, []byte(key))
		if err != nil {
			return xerrors.Errorf("couldn't write arg key: %v", err)
		}

		err = writeField(w, t.args[key])
		if err != nil {
			return xerrors.Errorf("couldn't write arg value: %v", err)
		}
	}

	for _, addr := range t.witnesses {
		_, err = w.Write(addr[:])
		if err != nil {
			return xerrors.Errorf("couldn't write witness: %v", err)
		}
	}

	return nil
}

func writeField(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(len(data)))

	_, err := w.Write(length)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// Manager creates transactions with increasing nonces. It is safe for
// concurrent use.
//
// - implements txn.Manager
type Manager struct {
	sync.Mutex
	nonce uint64
}

// NewManager creates a new transaction manager starting at the nonce.
func NewManager(nonce uint64) *Manager {
	return &Manager{nonce: nonce}
}

// Make implements txn.Manager. It creates a transaction populated with the
// arguments and signed by the witnesses.
func (mgr *Manager) Make(witnesses []access.Address, args ...txn.Arg) (txn.Transaction, error) {
	opts := make([]TransactionOption, 0, len(args)+len(witnesses))
	for _, arg := range args {
		opts = append(opts, WithArg(arg.Key, arg.Value))
	}

	for _, addr := range witnesses {
		opts = append(opts, WithWitness(addr))
	}

	mgr.Lock()
	defer mgr.Unlock()

	tx, err := NewTransaction(mgr.nonce, opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create tx: %v", err)
	}

	mgr.nonce++

	return tx, nil
}
