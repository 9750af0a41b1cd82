// Package controller implements the initializer of the reward contract.
package controller

import (
	"go.missionstake.io/stake/cli"
	"go.missionstake.io/stake/cli/node"
	"go.missionstake.io/stake/contracts/reward"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/internal/config"
	"golang.org/x/xerrors"
)

const (
	toFlag      = "to"
	amountFlag  = "amount"
	addressFlag = "address"
)

// rewardController registers the reward contract and injects the token
// ledger, which the mission contract uses as its distributor.
//
// - implements node.Initializer
type rewardController struct{}

// NewController creates a new initializer for the reward contract.
func NewController() node.Initializer {
	return rewardController{}
}

// SetCommands implements node.Initializer.
func (rewardController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("reward")
	cmd.SetDescription("manage the reward tokens")

	sub := cmd.SetSubCommand("fund")
	sub.SetDescription("credit an address with new tokens, signed by the minter")
	sub.SetFlags(
		cli.StringFlag{
			Name:     toFlag,
			Usage:    "address to credit, usually the reward pool",
			Required: true,
		},
		cli.Uint64Flag{
			Name:     amountFlag,
			Usage:    "number of tokens",
			Required: true,
		},
	)
	sub.SetAction(builder.MakeAction(fundAction{}))

	sub = cmd.SetSubCommand("balance")
	sub.SetDescription("print the balance of an address")
	sub.SetFlags(cli.StringFlag{
		Name:     addressFlag,
		Usage:    "address of the account",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(balanceAction{}))
}

// OnStart implements node.Initializer. It registers the reward contract with
// the pool and the minter of the configuration.
func (rewardController) OnStart(flags cli.Flags, inj node.Injector) error {
	var cfg *config.Config
	err := inj.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	var exec *native.Service
	err = inj.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("failed to resolve native service: %v", err)
	}

	pool, err := cfg.PoolAddress()
	if err != nil {
		return xerrors.Errorf("failed to read pool: %v", err)
	}

	minter, err := cfg.MinterAddress()
	if err != nil {
		return xerrors.Errorf("failed to read minter: %v", err)
	}

	ledger := reward.NewLedger(pool)

	reward.RegisterContract(exec, reward.NewContract(ledger, minter))

	inj.Inject(ledger)

	return nil
}

// OnStop implements node.Initializer.
func (rewardController) OnStop(node.Injector) error {
	return nil
}
