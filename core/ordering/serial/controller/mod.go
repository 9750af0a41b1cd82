// Package controller implements the initializer that opens the database of
// the node and starts the serial ordering service on top of it.
package controller

import (
	"time"

	"go.missionstake.io/stake"
	"go.missionstake.io/stake/cli"
	"go.missionstake.io/stake/cli/node"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/core/ordering/serial"
	"go.missionstake.io/stake/core/store/kv"
	"go.missionstake.io/stake/core/txn/basic"
	"go.missionstake.io/stake/internal/config"
	"golang.org/x/xerrors"
)

const defaultWatch = 10 * time.Second

// ledgerController is the initializer of the ledger. It injects the
// configuration, the native execution service, the ordering service and the
// transaction manager.
//
// - implements node.Initializer
type ledgerController struct{}

// NewController returns a new ledger initializer.
func NewController() node.Initializer {
	return ledgerController{}
}

// SetCommands implements node.Initializer.
func (ledgerController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("ledger")
	cmd.SetDescription("inspect the ledger of the node")

	sub := cmd.SetSubCommand("watch")
	sub.SetDescription("print the transactions applied during a period")
	sub.SetFlags(cli.DurationFlag{
		Name:  "duration",
		Usage: "how long to watch",
		Value: defaultWatch,
	})
	sub.SetAction(builder.MakeAction(watchAction{}))
}

// OnStart implements node.Initializer. It loads the configuration of the node
// folder and opens the database.
func (ledgerController) OnStart(flags cli.Flags, inj node.Injector) error {
	cfg, err := config.Load(flags.Path(node.ConfigFlag))
	if err != nil {
		return xerrors.Errorf("failed to load config: %v", err)
	}

	if cfg.LogLevel != "" {
		stake.SetLogLevel(cfg.LogLevel)
	}

	db, err := kv.New(cfg.DB)
	if err != nil {
		return xerrors.Errorf("failed to open db: %v", err)
	}

	exec := native.NewExecution()

	srvc := serial.NewService(serial.NewKVBackend(db, []byte(cfg.Bucket)), exec)

	inj.Inject(cfg)
	inj.Inject(exec)
	inj.Inject(srvc)
	inj.Inject(basic.NewManager(0))

	stake.Logger.Info().Str("db", cfg.DB).Msg("ledger started")

	return nil
}

// OnStop implements node.Initializer. It closes the ordering service and the
// database.
func (ledgerController) OnStop(inj node.Injector) error {
	var srvc *serial.Service
	err := inj.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("failed to resolve ordering service: %v", err)
	}

	err = srvc.Close()
	if err != nil {
		return xerrors.Errorf("failed to close ordering service: %v", err)
	}

	return nil
}
