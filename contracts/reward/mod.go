// Package reward implements the distribution of the mission rewards.
//
// The ledger keeps one token balance per address in the snapshot. Rewards are
// paid out of a pool account that is credited by the FUND command of the
// reward contract.
package reward

import (
	"encoding/binary"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.missionstake.io/stake"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/store/mem"
	"golang.org/x/xerrors"
)

const balancePrefix = "reward_balance:"

// ErrInsufficientFunds is returned when the pool cannot cover a transfer.
var ErrInsufficientFunds = xerrors.New("insufficient funds")

var transfers = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "stake_reward_transfers_total",
	Help: "number of reward transfers by outcome",
}, []string{"outcome"})

func init() {
	stake.PromCollectors = append(stake.PromCollectors, transfers)
}

// Distributor is the interface to implement to pay the reward of a verified
// mission. A transfer that returns an error must not leave any write in the
// snapshot.
type Distributor interface {
	Transfer(snap store.Snapshot, to access.Address, amount uint64) error
}

// Ledger is a token ledger stored alongside the missions.
//
// - implements reward.Distributor
type Ledger struct {
	pool access.Address
}

// NewLedger returns a ledger paying the rewards from the pool address.
func NewLedger(pool access.Address) Ledger {
	return Ledger{pool: pool}
}

// Pool returns the address of the account paying the rewards.
func (l Ledger) Pool() access.Address {
	return l.pool
}

func balanceKey(addr access.Address) []byte {
	return append([]byte(balancePrefix), addr[:]...)
}

// Balance returns the number of tokens the address owns.
func (l Ledger) Balance(snap store.Readable, addr access.Address) (uint64, error) {
	data, err := snap.Get(balanceKey(addr))
	if err != nil {
		return 0, xerrors.Errorf("failed to read balance: %v", err)
	}

	if len(data) == 0 {
		return 0, nil
	}

	if len(data) != 8 {
		return 0, xerrors.Errorf("invalid balance length %d", len(data))
	}

	return binary.BigEndian.Uint64(data), nil
}

// Fund credits the address with new tokens.
func (l Ledger) Fund(snap store.Snapshot, addr access.Address, amount uint64) error {
	if amount == 0 {
		return xerrors.New("amount must be positive")
	}

	err := l.credit(snap, addr, amount)
	if err != nil {
		return xerrors.Errorf("failed to fund %v: %v", addr, err)
	}

	stake.Logger.Info().
		Str("contract", "reward").
		Stringer("to", addr).
		Uint64("amount", amount).
		Msg("account funded")

	return nil
}

// Transfer implements reward.Distributor. It moves the amount from the pool
// to the address. Both balances are updated or none of them.
func (l Ledger) Transfer(snap store.Snapshot, to access.Address, amount uint64) error {
	if amount == 0 {
		return xerrors.New("amount must be positive")
	}

	err := mem.Stage(snap, func(child store.Snapshot) error {
		balance, err := l.Balance(child, l.pool)
		if err != nil {
			return err
		}

		if balance < amount {
			return xerrors.Errorf("pool has %d, needs %d: %w", balance, amount, ErrInsufficientFunds)
		}

		err = setBalance(child, l.pool, balance-amount)
		if err != nil {
			return err
		}

		return l.credit(child, to, amount)
	})
	if err != nil {
		transfers.WithLabelValues("failed").Inc()
		return xerrors.Errorf("failed to transfer to %v: %w", to, err)
	}

	transfers.WithLabelValues("done").Inc()

	stake.Logger.Info().
		Str("contract", "reward").
		Stringer("to", to).
		Uint64("amount", amount).
		Msg("reward transferred")

	return nil
}

func (l Ledger) credit(snap store.Snapshot, addr access.Address, amount uint64) error {
	balance, err := l.Balance(snap, addr)
	if err != nil {
		return err
	}

	if balance > math.MaxUint64-amount {
		return xerrors.New("balance overflow")
	}

	return setBalance(snap, addr, balance+amount)
}

func setBalance(snap store.Snapshot, addr access.Address, value uint64) error {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)

	err := snap.Set(balanceKey(addr), buffer)
	if err != nil {
		return xerrors.Errorf("failed to write balance: %v", err)
	}

	return nil
}
