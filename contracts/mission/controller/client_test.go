package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.missionstake.io/stake/contracts/mission"
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/txn"
	"golang.org/x/xerrors"
)

func TestClient_Scenario(t *testing.T) {
	inj := makeNode(t, "")
	fundPool(t, inj, 1000)

	c := makeClient(t, inj)
	ctx := context.Background()

	count, err := c.count()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)

	done, err := c.deploy(ctx)
	require.NoError(t, err)
	require.True(t, done)

	done, err = c.deploy(ctx)
	require.NoError(t, err)
	require.False(t, done)

	id, err := c.create(ctx, alice, makeDraft("first", 100))
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	reason, err := c.transition(ctx, mission.CmdAccept, id, bob)
	require.NoError(t, err)
	require.Equal(t, mission.ReasonNone, reason)

	reason, err = c.transition(ctx, mission.CmdAccept, id, alice)
	require.NoError(t, err)
	require.Equal(t, mission.ReasonNotPending, reason)

	reason, err = c.transition(ctx, mission.CmdComplete, id, bob, arg(mission.ProofArg, "done"))
	require.NoError(t, err)
	require.Equal(t, mission.ReasonNone, reason)

	reason, err = c.transition(ctx, mission.CmdVerify, id, alice, arg(mission.ApprovedArg, "true"))
	require.NoError(t, err)
	require.Equal(t, mission.ReasonNone, reason)

	m, err := c.get(id)
	require.NoError(t, err)
	require.Equal(t, types.StatusVerified, m.Status)
	require.Equal(t, bob, m.Assignee)
	require.Equal(t, "done", m.Proof)
	require.False(t, m.PayoutPending)

	balance, err := c.balance(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)

	balance, err = c.balance(access.MustParseAddress(poolHex))
	require.NoError(t, err)
	require.Equal(t, uint64(900), balance)

	reason, err = c.transition(ctx, mission.CmdSettle, id, access.Address{})
	require.NoError(t, err)
	require.Equal(t, mission.ReasonNoPendingPayout, reason)

	pending, err := c.pendingPayouts()
	require.NoError(t, err)
	require.Empty(t, pending)

	m, err = c.get(42)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestClient_UserMissions(t *testing.T) {
	inj := makeNode(t, "")
	deploy(t, inj)

	c := makeClient(t, inj)
	ctx := context.Background()

	id, err := c.create(ctx, alice, makeDraft("own", 10))
	require.NoError(t, err)

	_, err = c.create(ctx, bob, makeDraft("other", 20))
	require.NoError(t, err)

	reason, err := c.transition(ctx, mission.CmdAccept, id, alice)
	require.NoError(t, err)
	require.True(t, reason.Ok())

	ids, err := c.userIndex(alice)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 1}, ids)

	missions, err := c.userMissions(alice)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	require.Equal(t, "own", missions[0].Title)

	missions, err = c.userMissions(access.MustParseAddress(poolHex))
	require.NoError(t, err)
	require.NotNil(t, missions)
	require.Empty(t, missions)

	list, err := c.list()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, uint64(2), list[1].ID)

	count, err := c.count()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

func TestClient_Failures(t *testing.T) {
	inj := makeNode(t, "")
	c := makeClient(t, inj)
	ctx := context.Background()

	_, err := c.create(ctx, alice, makeDraft("early", 10))
	require.True(t, xerrors.Is(err, mission.ErrNotDeployed), err)

	deploy(t, inj)

	_, err = c.create(ctx, access.Address{}, makeDraft("anonymous", 10))
	require.True(t, xerrors.Is(err, mission.ErrUnauthorized), err)

	_, err = c.create(ctx, alice, makeDraft("", 10))
	require.True(t, xerrors.Is(err, mission.ErrInvalidInput), err)

	_, err = c.create(ctx, alice, makeDraft("free", 0))
	require.True(t, xerrors.Is(err, mission.ErrInvalidInput), err)

	reason, err := c.transition(ctx, mission.CmdCancel, 7, alice)
	require.NoError(t, err)
	require.Equal(t, mission.ReasonNotFound, reason)

	_, err = c.transition(ctx, mission.CmdVerify, 7, alice, arg(mission.ApprovedArg, "maybe"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to execute tx: ")

	count, err := c.count()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
}

func TestClient_DeferredPayout(t *testing.T) {
	inj := makeNode(t, "")
	deploy(t, inj)

	c := makeClient(t, inj)
	ctx := context.Background()

	id, err := c.create(ctx, alice, makeDraft("unfunded", 50))
	require.NoError(t, err)

	mustApply(t, c, mission.CmdAccept, id, bob)
	mustApply(t, c, mission.CmdComplete, id, bob, arg(mission.ProofArg, "proof"))
	mustApply(t, c, mission.CmdVerify, id, alice, arg(mission.ApprovedArg, "true"))

	pending, err := c.pendingPayouts()
	require.NoError(t, err)
	require.Equal(t, []uint64{id}, pending)

	reason, err := c.transition(ctx, mission.CmdSettle, id, access.Address{})
	require.NoError(t, err)
	require.Equal(t, mission.ReasonPayoutFailed, reason)

	fundPool(t, inj, 50)

	reason, err = c.transition(ctx, mission.CmdSettle, id, access.Address{})
	require.NoError(t, err)
	require.Equal(t, mission.ReasonNone, reason)

	balance, err := c.balance(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(50), balance)

	pending, err = c.pendingPayouts()
	require.NoError(t, err)
	require.Empty(t, pending)
}

// -----------------------------------------------------------------------------
// Utility functions

func mustApply(t *testing.T, c client, cmd mission.Command, id uint64,
	actor access.Address, args ...txn.Arg) {

	reason, err := c.transition(context.Background(), cmd, id, actor, args...)
	require.NoError(t, err)
	require.True(t, reason.Ok(), reason)
}
