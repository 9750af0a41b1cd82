package controller

import (
	"context"
	"fmt"

	"go.missionstake.io/stake/cli/node"
	"go.missionstake.io/stake/core/ordering"
	"golang.org/x/xerrors"
)

// watchAction streams the events of the ordering service to the client.
//
// - implements node.ActionTemplate
type watchAction struct{}

// Execute implements node.ActionTemplate.
func (watchAction) Execute(ctx node.Context) error {
	var srvc ordering.Service
	err := ctx.Injector.Resolve(&srvc)
	if err != nil {
		return xerrors.Errorf("failed to resolve ordering service: %v", err)
	}

	c, cancel := context.WithTimeout(context.Background(), ctx.Flags.Duration("duration"))
	defer cancel()

	for evt := range srvc.Watch(c) {
		outcome := "rejected"
		if evt.Result.Accepted {
			outcome = "accepted"
		}

		fmt.Fprintf(ctx.Out, "#%d %x %s %s", evt.Index, evt.TxID, outcome, evt.Result.Message)
	}

	return nil
}
