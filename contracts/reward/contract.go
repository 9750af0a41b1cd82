package reward

import (
	"encoding/binary"
	"strconv"

	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/execution"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/core/store"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "go.missionstake.io/stake.Reward"

	// ContractUID is the unique 4-bytes identifier of the contract.
	ContractUID = "RWRD"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract.
	CmdArg = "reward:command"

	// ToArg is the argument's name of the credited address.
	ToArg = "reward:to"

	// AmountArg is the argument's name of the amount, as a decimal string.
	AmountArg = "reward:amount"
)

// Command defines a type of command for the reward contract.
type Command string

const (
	// CmdFund defines the command to credit an address with new tokens.
	CmdFund Command = "FUND"

	// CmdBalance defines the command to read the balance of an address. The
	// balance is returned as an 8-bytes big-endian output.
	CmdBalance Command = "BALANCE"
)

// RegisterContract registers the reward contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the native contract of the token ledger. Only the minter can
// fund an account.
//
// - implements native.Contract
type Contract struct {
	ledger Ledger
	minter access.Address
}

// NewContract creates a new reward contract.
func NewContract(ledger Ledger, minter access.Address) Contract {
	return Contract{
		ledger: ledger,
		minter: minter,
	}
}

// UID implements native.Contract.
func (c Contract) UID() string {
	return ContractUID
}

// Execute implements native.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return execution.Result{}, xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	switch Command(cmd) {
	case CmdFund:
		to, err := recipient(step)
		if err != nil {
			return execution.Result{}, err
		}

		witness := access.NewWitness(step.Current.GetWitnesses()...)
		if c.minter.IsZero() || !witness.IsAuthenticated(c.minter) {
			return execution.Result{Message: "not_minter"}, nil
		}

		amount, err := strconv.ParseUint(string(step.Current.GetArg(AmountArg)), 10, 64)
		if err != nil {
			return execution.Result{}, xerrors.Errorf("invalid '%s': %v", AmountArg, err)
		}

		err = c.ledger.Fund(snap, to, amount)
		if err != nil {
			return execution.Result{}, xerrors.Errorf("failed to FUND: %v", err)
		}

		return execution.Result{Accepted: true}, nil
	case CmdBalance:
		to, err := recipient(step)
		if err != nil {
			return execution.Result{}, err
		}

		balance, err := c.ledger.Balance(snap, to)
		if err != nil {
			return execution.Result{}, xerrors.Errorf("failed to BALANCE: %v", err)
		}

		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, balance)

		return execution.Result{Accepted: true, Output: out}, nil
	default:
		return execution.Result{}, xerrors.Errorf("unknown command: %s", cmd)
	}
}

func recipient(step execution.Step) (access.Address, error) {
	to, err := access.ParseAddress(string(step.Current.GetArg(ToArg)))
	if err != nil {
		return to, xerrors.Errorf("invalid '%s': %v", ToArg, err)
	}

	return to, nil
}
