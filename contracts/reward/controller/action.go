package controller

import (
	"context"
	"fmt"
	"strconv"

	"go.missionstake.io/stake/cli/node"
	"go.missionstake.io/stake/contracts/reward"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/core/ordering"
	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/txn"
	"go.missionstake.io/stake/internal/config"
	"golang.org/x/xerrors"
)

// fundAction submits a FUND transaction signed by the minter of the node.
//
// - implements node.ActionTemplate
type fundAction struct{}

// Execute implements node.ActionTemplate.
func (fundAction) Execute(ctx node.Context) error {
	to, err := access.ParseAddress(ctx.Flags.String(toFlag))
	if err != nil {
		return xerrors.Errorf("invalid address: %v", err)
	}

	amount := ctx.Flags.Uint64(amountFlag)

	var cfg *config.Config
	err = ctx.Injector.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	minter, err := cfg.MinterAddress()
	if err != nil || minter.IsZero() {
		return xerrors.New("no minter configured")
	}

	var srvc ordering.Service
	err = ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("failed to resolve ordering service: %v", err)
	}

	var mgr txn.Manager
	err = ctx.Injector.Resolve(&mgr)
	if err != nil {
		return xerrors.Errorf("failed to resolve tx manager: %v", err)
	}

	tx, err := mgr.Make([]access.Address{minter},
		txn.Arg{Key: native.ContractArg, Value: []byte(reward.ContractName)},
		txn.Arg{Key: reward.CmdArg, Value: []byte(reward.CmdFund)},
		txn.Arg{Key: reward.ToArg, Value: []byte(to.String())},
		txn.Arg{Key: reward.AmountArg, Value: []byte(strconv.FormatUint(amount, 10))},
	)
	if err != nil {
		return xerrors.Errorf("failed to make tx: %v", err)
	}

	res, err := srvc.Execute(context.Background(), tx)
	if err != nil {
		return xerrors.Errorf("failed to fund: %v", err)
	}

	if !res.Accepted {
		return xerrors.Errorf("fund refused: %s", res.Message)
	}

	fmt.Fprintf(ctx.Out, "credited %d to %v", amount, to)

	return nil
}

// balanceAction prints the balance of an address from the latest state.
//
// - implements node.ActionTemplate
type balanceAction struct{}

// Execute implements node.ActionTemplate.
func (balanceAction) Execute(ctx node.Context) error {
	addr, err := access.ParseAddress(ctx.Flags.String(addressFlag))
	if err != nil {
		return xerrors.Errorf("invalid address: %v", err)
	}

	var ledger reward.Ledger
	err = ctx.Injector.Resolve(&ledger)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	var srvc ordering.Service
	err = ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("failed to resolve ordering service: %v", err)
	}

	var balance uint64

	err = srvc.View(func(snap store.Snapshot) error {
		balance, err = ledger.Balance(snap, addr)
		return err
	})
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%d", balance)

	return nil
}
