// Package controller implements the initializer of the mission contract. It
// registers the contract, the commands of the CLI and the routes of the HTTP
// API.
package controller

import (
	"go.missionstake.io/stake/cli"
	"go.missionstake.io/stake/cli/node"
	"go.missionstake.io/stake/contracts/mission"
	"go.missionstake.io/stake/contracts/reward"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/core/ordering"
	"go.missionstake.io/stake/core/txn"
	"go.missionstake.io/stake/internal/config"
	"golang.org/x/xerrors"
)

const (
	actorFlag       = "actor"
	idFlag          = "id"
	titleFlag       = "title"
	descriptionFlag = "description"
	categoryFlag    = "category"
	rewardFlag      = "reward"
	deadlineFlag    = "deadline"
	proofFlag       = "proof"
	rejectFlag      = "reject"
	userFlag        = "user"
	addressFlag     = "address"
	ttlFlag         = "ttl"
)

// missionController is the initializer of the mission contract.
//
// - implements node.Initializer
type missionController struct{}

// NewController creates a new initializer for the mission contract.
func NewController() node.Initializer {
	return missionController{}
}

// SetCommands implements node.Initializer.
func (missionController) SetCommands(builder node.Builder) {
	actor := cli.StringFlag{
		Name:     actorFlag,
		Usage:    "address acting on the mission, attested by the node",
		Required: true,
	}

	id := cli.Uint64Flag{
		Name:     idFlag,
		Usage:    "identifier of the mission",
		Required: true,
	}

	cmd := builder.SetCommand("mission")
	cmd.SetDescription("manage the missions")

	sub := cmd.SetSubCommand("deploy")
	sub.SetDescription("initialize the mission registry")
	sub.SetAction(builder.MakeAction(deployAction{}))

	sub = cmd.SetSubCommand("create")
	sub.SetDescription("post a new mission")
	sub.SetFlags(
		actor,
		cli.StringFlag{Name: titleFlag, Usage: "title of the mission", Required: true},
		cli.StringFlag{Name: descriptionFlag, Usage: "what needs to be done", Required: true},
		cli.StringFlag{Name: categoryFlag, Usage: "optional category"},
		cli.Uint64Flag{Name: rewardFlag, Usage: "escrowed reward", Required: true},
		cli.IntFlag{Name: deadlineFlag, Usage: "deadline in unix seconds"},
	)
	sub.SetAction(builder.MakeAction(createAction{}))

	sub = cmd.SetSubCommand("accept")
	sub.SetDescription("take a pending mission")
	sub.SetFlags(actor, id)
	sub.SetAction(builder.MakeAction(transitionAction{cmd: mission.CmdAccept}))

	sub = cmd.SetSubCommand("complete")
	sub.SetDescription("submit the proof of a mission in progress")
	sub.SetFlags(actor, id, cli.StringFlag{Name: proofFlag, Usage: "proof of completion"})
	sub.SetAction(builder.MakeAction(transitionAction{cmd: mission.CmdComplete}))

	sub = cmd.SetSubCommand("verify")
	sub.SetDescription("approve the proof of a completed mission and pay the reward")
	sub.SetFlags(actor, id, cli.BoolFlag{
		Name:  rejectFlag,
		Usage: "reject the proof and send the mission back to the assignee",
	})
	sub.SetAction(builder.MakeAction(transitionAction{cmd: mission.CmdVerify}))

	sub = cmd.SetSubCommand("cancel")
	sub.SetDescription("withdraw a pending mission")
	sub.SetFlags(actor, id)
	sub.SetAction(builder.MakeAction(transitionAction{cmd: mission.CmdCancel}))

	sub = cmd.SetSubCommand("settle")
	sub.SetDescription("retry the pending payout of a verified mission")
	sub.SetFlags(id, cli.StringFlag{Name: actorFlag, Usage: "optional signer"})
	sub.SetAction(builder.MakeAction(transitionAction{cmd: mission.CmdSettle}))

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("print a mission")
	sub.SetFlags(id)
	sub.SetAction(builder.MakeAction(showAction{}))

	sub = cmd.SetSubCommand("list")
	sub.SetDescription("print the missions")
	sub.SetFlags(cli.StringFlag{
		Name:  userFlag,
		Usage: "only the missions created or accepted by the address",
	})
	sub.SetAction(builder.MakeAction(listAction{}))

	sub = cmd.SetSubCommand("count")
	sub.SetDescription("print the number of missions")
	sub.SetAction(builder.MakeAction(countAction{}))

	sub = cmd.SetSubCommand("token")
	sub.SetDescription("issue a bearer token of the HTTP API")
	sub.SetFlags(
		cli.StringFlag{Name: addressFlag, Usage: "subject of the token", Required: true},
		cli.DurationFlag{Name: ttlFlag, Usage: "lifetime, defaults to the configuration"},
	)
	sub.SetAction(builder.MakeAction(tokenAction{}))
}

// OnStart implements node.Initializer. It registers the mission contract
// with the reward ledger as its distributor. The HTTP API is injected when a
// JWT secret is configured.
func (missionController) OnStart(flags cli.Flags, inj node.Injector) error {
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

	var srvc ordering.Service
	err = inj.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("failed to resolve ordering service: %v", err)
	}

	var mgr txn.Manager
	err = inj.Resolve(&mgr)
	if err != nil {
		return xerrors.Errorf("failed to resolve tx manager: %v", err)
	}

	var ledger reward.Ledger
	err = inj.Resolve(&ledger)
	if err != nil {
		return xerrors.Errorf("failed to resolve reward ledger: %v", err)
	}

	registry := mission.NewRegistry(ledger)

	mission.RegisterContract(exec, mission.NewContract(registry))

	c := client{
		srvc:     srvc,
		mgr:      mgr,
		registry: registry,
		ledger:   ledger,
	}

	inj.Inject(registry)
	inj.Inject(c)

	if cfg.HTTP.JWTSecret != "" {
		inj.Inject(newAPI(c, newBearer([]byte(cfg.HTTP.JWTSecret))))
	}

	return nil
}

// OnStop implements node.Initializer.
func (missionController) OnStop(node.Injector) error {
	return nil
}

