package mission

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/execution"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/core/txn/basic"
	"go.missionstake.io/stake/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestRegisterContract(t *testing.T) {
	exec := native.NewExecution()
	RegisterContract(exec, NewContract(NewRegistry(nil)))

	require.Panics(t, func() {
		RegisterContract(exec, NewContract(NewRegistry(nil)))
	})
}

func TestContract_Execute(t *testing.T) {
	dist := newFakeDistributor()
	contract := NewContract(NewRegistry(dist))
	require.Equal(t, ContractUID, contract.UID())

	snap := fake.NewSnapshot()

	res, err := contract.Execute(snap, makeStep(t, alice, CmdArg, "DEPLOY"))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	res, err = contract.Execute(snap, makeStep(t, alice, CmdArg, "DEPLOY"))
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "already_deployed", res.Message)

	res, err = contract.Execute(snap, makeStep(t, alice,
		CmdArg, "CREATE",
		ActorArg, alice.String(),
		TitleArg, "T",
		DescriptionArg, "D",
		CategoryArg, "fitness",
		RewardArg, "10",
		DeadlineArg, "1700000000"))
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, uint64(1), binary.BigEndian.Uint64(res.Output))

	res, err = contract.Execute(snap, makeStep(t, bob, CmdArg, "ACCEPT", IDArg, "1", ActorArg, bob.String()))
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Empty(t, res.Message)

	res, err = contract.Execute(snap, makeStep(t, carol, CmdArg, "ACCEPT", IDArg, "1", ActorArg, carol.String()))
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "not_pending", res.Message)

	res, err = contract.Execute(snap, makeStep(t, carol, CmdArg, "ACCEPT", IDArg, "1", ActorArg, bob.String()))
	require.NoError(t, err)
	require.Equal(t, "not_authenticated", res.Message)

	res, err = contract.Execute(snap, makeStep(t, bob,
		CmdArg, "COMPLETE", IDArg, "1", ActorArg, bob.String(), ProofArg, "proof-1"))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	res, err = contract.Execute(snap, makeStep(t, alice,
		CmdArg, "VERIFY", IDArg, "1", ActorArg, alice.String(), ApprovedArg, "true"))
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, 1, dist.calls.Len())

	res, err = contract.Execute(snap, makeStep(t, carol, CmdArg, "SETTLE", IDArg, "1"))
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "no_pending_payout", res.Message)

	m, err := contract.registry.Get(snap, 1)
	require.NoError(t, err)
	require.Equal(t, types.StatusVerified, m.Status)
	require.Equal(t, time.Unix(1700000200, 0).Unix(), m.CompletedAt)
}

func TestContract_Cancel(t *testing.T) {
	contract := NewContract(NewRegistry(nil))
	snap := deployed(t)

	id := createMission(t, contract.registry, snap, alice)
	require.Equal(t, uint64(1), id)

	res, err := contract.Execute(snap, makeStep(t, alice, CmdArg, "CANCEL", IDArg, "1", ActorArg, alice.String()))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	res, err = contract.Execute(snap, makeStep(t, alice, CmdArg, "CANCEL", IDArg, "1", ActorArg, alice.String()))
	require.NoError(t, err)
	require.Equal(t, "not_pending", res.Message)
}

func TestContract_Execute_Create_Abort(t *testing.T) {
	contract := NewContract(NewRegistry(nil))
	snap := deployed(t)

	_, err := contract.Execute(snap, makeStep(t, bob,
		CmdArg, "CREATE", ActorArg, alice.String(), TitleArg, "T", DescriptionArg, "D", RewardArg, "1"))
	require.True(t, xerrors.Is(err, ErrUnauthorized))

	_, err = contract.Execute(snap, makeStep(t, alice,
		CmdArg, "CREATE", ActorArg, alice.String(), TitleArg, "T", DescriptionArg, "D", RewardArg, "-1"))
	require.True(t, xerrors.Is(err, ErrInvalidInput))

	_, err = contract.Execute(snap, makeStep(t, alice,
		CmdArg, "CREATE", ActorArg, alice.String(), TitleArg, "T", DescriptionArg, "D", RewardArg, "1",
		DeadlineArg, "tomorrow"))
	require.True(t, xerrors.Is(err, ErrInvalidInput))

	_, err = contract.Execute(snap, makeStep(t, alice,
		CmdArg, "CREATE", ActorArg, "nobody", TitleArg, "T", DescriptionArg, "D", RewardArg, "1"))
	require.True(t, xerrors.Is(err, ErrInvalidInput))

	_, err = contract.Execute(snap, makeStep(t, alice,
		CmdArg, "CREATE", ActorArg, alice.String(), TitleArg, "", DescriptionArg, "D", RewardArg, "1"))
	require.True(t, xerrors.Is(err, ErrInvalidInput))

	_, err = contract.Execute(fake.NewSnapshot(), makeStep(t, alice,
		CmdArg, "CREATE", ActorArg, alice.String(), TitleArg, "T", DescriptionArg, "D", RewardArg, "1"))
	require.True(t, xerrors.Is(err, ErrNotDeployed))
}

func TestContract_Execute_Failures(t *testing.T) {
	contract := NewContract(NewRegistry(nil))
	snap := deployed(t)

	_, err := contract.Execute(snap, makeStep(t, alice))
	require.EqualError(t, err, "'mission:command' not found in tx arg")

	_, err = contract.Execute(snap, makeStep(t, alice, CmdArg, "PAY"))
	require.EqualError(t, err, "unknown command: PAY")

	_, err = contract.Execute(snap, makeStep(t, alice, CmdArg, "ACCEPT", IDArg, "one"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid 'mission:id'")

	_, err = contract.Execute(snap, makeStep(t, alice, CmdArg, "ACCEPT", IDArg, "1", ActorArg, "0x12"))
	require.EqualError(t, err, "invalid 'mission:actor': invalid address length 2")

	_, err = contract.Execute(snap, makeStep(t, alice,
		CmdArg, "VERIFY", IDArg, "1", ActorArg, alice.String(), ApprovedArg, "maybe"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid 'mission:approved'")

	_, err = contract.Execute(fake.NewBadSnapshot(), makeStep(t, alice, CmdArg, "DEPLOY"))
	require.EqualError(t, err, fake.Err("failed to deploy: failed to read counter"))

	_, err = contract.Execute(fake.NewBadSnapshot(), makeStep(t, alice,
		CmdArg, "CANCEL", IDArg, "1", ActorArg, alice.String()))
	require.EqualError(t, err, fake.Err("failed to CANCEL mission 1: failed to read mission 1"))
}

func TestNativeService_Execute(t *testing.T) {
	exec := native.NewExecution()
	RegisterContract(exec, NewContract(NewRegistry(nil)))

	snap := deployed(t)

	step := makeStep(t, alice, native.ContractArg, ContractName, CmdArg, "CANCEL", IDArg, "3",
		ActorArg, alice.String())

	res, err := exec.Execute(snap, step)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "not_found", res.Message)
}

// -----------------------------------------------------------------------------
// Utility functions

func makeStep(t *testing.T, signer access.Address, args ...string) execution.Step {
	opts := []basic.TransactionOption{basic.WithWitness(signer)}
	for i := 0; i+1 < len(args); i += 2 {
		opts = append(opts, basic.WithArg(args[i], []byte(args[i+1])))
	}

	tx, err := basic.NewTransaction(0, opts...)
	require.NoError(t, err)

	return execution.Step{Current: tx, Timestamp: time.Unix(1700000200, 0)}
}
