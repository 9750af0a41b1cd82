package reward

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/internal/testing/fake"
	"golang.org/x/xerrors"
)

var (
	pool = access.Address{0xaa}
	user = access.Address{0xbb}
)

func TestLedger_Balance(t *testing.T) {
	ledger := NewLedger(pool)
	require.Equal(t, pool, ledger.Pool())

	snap := fake.NewSnapshot()

	balance, err := ledger.Balance(snap, user)
	require.NoError(t, err)
	require.Equal(t, uint64(0), balance)

	snap.Set(balanceKey(user), []byte{1, 2})
	_, err = ledger.Balance(snap, user)
	require.EqualError(t, err, "invalid balance length 2")

	_, err = ledger.Balance(fake.NewBadSnapshot(), user)
	require.EqualError(t, err, fake.Err("failed to read balance"))
}

func TestLedger_Fund(t *testing.T) {
	ledger := NewLedger(pool)
	snap := fake.NewSnapshot()

	require.NoError(t, ledger.Fund(snap, user, 5))
	require.NoError(t, ledger.Fund(snap, user, 7))

	balance, err := ledger.Balance(snap, user)
	require.NoError(t, err)
	require.Equal(t, uint64(12), balance)

	err = ledger.Fund(snap, user, 0)
	require.EqualError(t, err, "amount must be positive")

	err = ledger.Fund(snap, user, math.MaxUint64)
	require.EqualError(t, err, "failed to fund "+user.String()+": balance overflow")

	bad := fake.NewSnapshot()
	bad.ErrWrite = fake.GetError()
	err = ledger.Fund(bad, user, 1)
	require.EqualError(t, err, "failed to fund "+user.String()+": "+fake.Err("failed to write balance"))
}

func TestLedger_Transfer(t *testing.T) {
	ledger := NewLedger(pool)
	snap := fake.NewSnapshot()

	require.NoError(t, ledger.Fund(snap, pool, 15))

	require.NoError(t, ledger.Transfer(snap, user, 10))

	balance, err := ledger.Balance(snap, pool)
	require.NoError(t, err)
	require.Equal(t, uint64(5), balance)

	balance, err = ledger.Balance(snap, user)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance)

	before := snap.Dump()

	err = ledger.Transfer(snap, user, 10)
	require.True(t, xerrors.Is(err, ErrInsufficientFunds))
	require.EqualError(t, err,
		"failed to transfer to "+user.String()+": pool has 5, needs 10: insufficient funds")
	require.Equal(t, before, snap.Dump())

	err = ledger.Transfer(snap, user, 0)
	require.EqualError(t, err, "amount must be positive")
}

func TestLedger_TransferToPool(t *testing.T) {
	ledger := NewLedger(pool)
	snap := fake.NewSnapshot()

	require.NoError(t, ledger.Fund(snap, pool, 3))
	require.NoError(t, ledger.Transfer(snap, pool, 3))

	balance, err := ledger.Balance(snap, pool)
	require.NoError(t, err)
	require.Equal(t, uint64(3), balance)
}

func TestLedger_Transfer_Overflow(t *testing.T) {
	ledger := NewLedger(pool)
	snap := fake.NewSnapshot()

	require.NoError(t, ledger.Fund(snap, pool, 1))
	require.NoError(t, ledger.Fund(snap, user, math.MaxUint64))

	before := snap.Dump()

	err := ledger.Transfer(snap, user, 1)
	require.EqualError(t, err, "failed to transfer to "+user.String()+": balance overflow")
	require.Equal(t, before, snap.Dump())
}

func TestLedger_Transfer_StoreFailure(t *testing.T) {
	ledger := NewLedger(pool)

	snap := fake.NewSnapshot()
	require.NoError(t, ledger.Fund(snap, pool, 15))

	snap.ErrWrite = fake.GetError()

	err := ledger.Transfer(snap, user, 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), fake.GetError().Error())

	snap.ErrWrite = nil

	balance, err := ledger.Balance(snap, pool)
	require.NoError(t, err)
	require.Equal(t, uint64(15), balance)
}
