package controller

import (
	"context"
	"encoding/binary"
	"strconv"

	"go.missionstake.io/stake/contracts/mission"
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/contracts/reward"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/execution"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/core/ordering"
	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/txn"
	"golang.org/x/xerrors"
)

// client submits the mission commands to the ordering service and reads the
// latest state. The signer of a transaction is the acting address.
type client struct {
	srvc     ordering.Service
	mgr      txn.Manager
	registry *mission.Registry
	ledger   reward.Ledger
}

func (c client) submit(ctx context.Context, signer access.Address, cmd mission.Command,
	args ...txn.Arg) (execution.Result, error) {

	all := []txn.Arg{
		{Key: native.ContractArg, Value: []byte(mission.ContractName)},
		{Key: mission.CmdArg, Value: []byte(cmd)},
	}

	all = append(all, args...)

	var witnesses []access.Address
	if !signer.IsZero() {
		witnesses = []access.Address{signer}
	}

	tx, err := c.mgr.Make(witnesses, all...)
	if err != nil {
		return execution.Result{}, xerrors.Errorf("failed to make tx: %v", err)
	}

	res, err := c.srvc.Execute(ctx, tx)
	if err != nil {
		return res, xerrors.Errorf("failed to execute tx: %w", err)
	}

	return res, nil
}

// deploy returns false when the registry was already deployed.
func (c client) deploy(ctx context.Context) (bool, error) {
	res, err := c.submit(ctx, access.Address{}, mission.CmdDeploy)
	if err != nil {
		return false, err
	}

	return res.Accepted, nil
}

func (c client) create(ctx context.Context, creator access.Address, draft mission.Draft) (uint64, error) {
	res, err := c.submit(ctx, creator, mission.CmdCreate,
		arg(mission.ActorArg, creator.String()),
		arg(mission.TitleArg, draft.Title),
		arg(mission.DescriptionArg, draft.Description),
		arg(mission.CategoryArg, draft.Category),
		arg(mission.RewardArg, strconv.FormatUint(draft.Reward, 10)),
		arg(mission.DeadlineArg, strconv.FormatInt(draft.Deadline, 10)),
	)
	if err != nil {
		return 0, err
	}

	if len(res.Output) != 8 {
		return 0, xerrors.Errorf("invalid output length %d", len(res.Output))
	}

	return binary.BigEndian.Uint64(res.Output), nil
}

// transition runs a command on an existing mission and returns the reason of
// a refusal.
func (c client) transition(ctx context.Context, cmd mission.Command, id uint64,
	actor access.Address, args ...txn.Arg) (mission.Reason, error) {

	all := []txn.Arg{arg(mission.IDArg, strconv.FormatUint(id, 10))}

	if !actor.IsZero() {
		all = append(all, arg(mission.ActorArg, actor.String()))
	}

	res, err := c.submit(ctx, actor, cmd, append(all, args...)...)
	if err != nil {
		return mission.ReasonNone, err
	}

	if res.Accepted {
		return mission.ReasonNone, nil
	}

	return mission.Reason(res.Message), nil
}

func (c client) get(id uint64) (*types.Mission, error) {
	var m *types.Mission

	err := c.srvc.View(func(snap store.Snapshot) error {
		var err error
		m, err = c.registry.Get(snap, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (c client) list() ([]types.Mission, error) {
	var list []types.Mission

	err := c.srvc.View(func(snap store.Snapshot) error {
		var err error
		list, err = c.registry.List(snap)
		return err
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// userMissions returns the missions the address created or accepted, once
// each, in the order of the index.
func (c client) userMissions(addr access.Address) ([]types.Mission, error) {
	list := []types.Mission{}

	err := c.srvc.View(func(snap store.Snapshot) error {
		ids, err := c.registry.UserMissions(snap, addr)
		if err != nil {
			return err
		}

		seen := make(map[uint64]struct{}, len(ids))

		for _, id := range ids {
			if _, found := seen[id]; found {
				continue
			}

			seen[id] = struct{}{}

			m, err := c.registry.Get(snap, id)
			if err != nil {
				return err
			}

			if m != nil {
				list = append(list, *m)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (c client) userIndex(addr access.Address) ([]uint64, error) {
	var ids []uint64

	err := c.srvc.View(func(snap store.Snapshot) error {
		var err error
		ids, err = c.registry.UserMissions(snap, addr)
		return err
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (c client) count() (uint64, error) {
	var count uint64

	err := c.srvc.View(func(snap store.Snapshot) error {
		var err error
		count, err = c.registry.Count(snap)
		return err
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (c client) pendingPayouts() ([]uint64, error) {
	var ids []uint64

	err := c.srvc.View(func(snap store.Snapshot) error {
		var err error
		ids, err = c.registry.PendingPayouts(snap)
		return err
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (c client) balance(addr access.Address) (uint64, error) {
	var balance uint64

	err := c.srvc.View(func(snap store.Snapshot) error {
		var err error
		balance, err = c.ledger.Balance(snap, addr)
		return err
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func arg(key, value string) txn.Arg {
	return txn.Arg{Key: key, Value: []byte(value)}
}
