// Package access defines the account addresses and the caller authentication
// primitive the ledger supplies to the contracts.
//
// A contract never trusts an address argument by itself. It asks the
// authenticator of the current invocation whether the address is one of the
// genuine signers of the transaction.
package access

import (
	"encoding/hex"

	"golang.org/x/xerrors"
)

// AddressSize is the size in bytes of an account address.
const AddressSize = 20

// Address is the hash identifying an account on the ledger.
type Address [AddressSize]byte

// ParseAddress returns the address of the hexadecimal representation. The
// string can be prefixed once with 0x or 0X.
func ParseAddress(text string) (Address, error) {
	var addr Address

	if len(text) >= 2 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X') {
		text = text[2:]
	}

	if len(text) != hex.EncodedLen(AddressSize) {
		return addr, xerrors.Errorf("invalid address length %d", len(text))
	}

	_, err := hex.Decode(addr[:], []byte(text))
	if err != nil {
		return addr, xerrors.Errorf("malformed address: %v", err)
	}

	return addr, nil
}

// MustParseAddress is like ParseAddress but panics when the text is not a
// valid address.
func MustParseAddress(text string) Address {
	addr, err := ParseAddress(text)
	if err != nil {
		panic(err)
	}

	return addr
}

// IsZero returns true when the address is not set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String implements fmt.Stringer. It returns the hexadecimal form.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the same forms
// as ParseAddress.
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}

// Authenticator is provided by the hosting ledger for each invocation. It
// tells if the address is the actual caller.
type Authenticator interface {
	IsAuthenticated(addr Address) bool
}

// Witness is an authenticator backed by the set of addresses that signed the
// current transaction.
//
// - implements access.Authenticator
type Witness struct {
	signers map[Address]struct{}
}

// NewWitness returns a witness for the given signers. The zero address is
// never accepted as a signer.
func NewWitness(signers ...Address) Witness {
	w := Witness{signers: make(map[Address]struct{}, len(signers))}

	for _, signer := range signers {
		if signer.IsZero() {
			continue
		}

		w.signers[signer] = struct{}{}
	}

	return w
}

// IsAuthenticated implements access.Authenticator.
func (w Witness) IsAuthenticated(addr Address) bool {
	_, found := w.signers[addr]
	return found
}

// Signers returns the number of signers of the witness.
func (w Witness) Signers() int {
	return len(w.signers)
}
