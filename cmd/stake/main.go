// Package main implements the MissionStake ledger node.
//
// Start a node, then drive it from another shell with the same folder:
//
//	stake --config /tmp/node start
//	stake --config /tmp/node mission deploy
//	stake --config /tmp/node reward fund --to <pool> --amount 1000
//	stake --config /tmp/node mission create --actor <address> --title T\
//	  --description D --reward 10
//	stake --config /tmp/node mission token --address <address>
//
// The folder may contain a stake.yaml and a .env file, see the config package.
package main

import (
	"fmt"
	"io"
	"os"

	"go.missionstake.io/stake/cli/node"
	mission "go.missionstake.io/stake/contracts/mission/controller"
	reward "go.missionstake.io/stake/contracts/reward/controller"
	ledger "go.missionstake.io/stake/core/ordering/serial/controller"
	proxy "go.missionstake.io/stake/proxy/http/controller"
)

type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{Writer: os.Stdout})
}

func runWithCfg(args []string, cfg config) error {
	// The proxy comes last so that the routes of the contracts are mounted
	// before it listens.
	builder := node.NewBuilderWithCfg(
		cfg.Channel,
		cfg.Writer,
		ledger.NewController(),
		reward.NewController(),
		mission.NewController(),
		proxy.NewController(),
	)

	app := builder.Build()

	return app.Run(args)
}
