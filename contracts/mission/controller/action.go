package controller

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.missionstake.io/stake/cli/node"
	"go.missionstake.io/stake/contracts/mission"
	"go.missionstake.io/stake/contracts/mission/types"
	"go.missionstake.io/stake/core/access"
	"go.missionstake.io/stake/core/txn"
	"go.missionstake.io/stake/internal/config"
	"golang.org/x/xerrors"
)

// deployAction initializes the registry of the ledger.
//
// - implements node.ActionTemplate
type deployAction struct{}

// Execute implements node.ActionTemplate.
func (deployAction) Execute(ctx node.Context) error {
	c, err := resolveClient(ctx.Injector)
	if err != nil {
		return err
	}

	done, err := c.deploy(context.Background())
	if err != nil {
		return xerrors.Errorf("failed to deploy: %v", err)
	}

	if !done {
		fmt.Fprint(ctx.Out, "registry already deployed")
		return nil
	}

	fmt.Fprint(ctx.Out, "registry deployed")

	return nil
}

// createAction posts a new mission signed by the actor.
//
// - implements node.ActionTemplate
type createAction struct{}

// Execute implements node.ActionTemplate.
func (createAction) Execute(ctx node.Context) error {
	actor, err := access.ParseAddress(ctx.Flags.String(actorFlag))
	if err != nil {
		return xerrors.Errorf("invalid actor: %v", err)
	}

	c, err := resolveClient(ctx.Injector)
	if err != nil {
		return err
	}

	draft := mission.Draft{
		Title:       ctx.Flags.String(titleFlag),
		Description: ctx.Flags.String(descriptionFlag),
		Category:    ctx.Flags.String(categoryFlag),
		Reward:      ctx.Flags.Uint64(rewardFlag),
		Deadline:    int64(ctx.Flags.Int(deadlineFlag)),
	}

	id, err := c.create(context.Background(), actor, draft)
	if err != nil {
		return xerrors.Errorf("failed to create: %v", err)
	}

	fmt.Fprintf(ctx.Out, "mission %d created", id)

	return nil
}

// transitionAction runs one of the transitions of an existing mission.
//
// - implements node.ActionTemplate
type transitionAction struct {
	cmd mission.Command
}

// Execute implements node.ActionTemplate.
func (a transitionAction) Execute(ctx node.Context) error {
	id := ctx.Flags.Uint64(idFlag)
	if id == 0 {
		return xerrors.New("mission id is required")
	}

	var actor access.Address

	if a.cmd != mission.CmdSettle || ctx.Flags.String(actorFlag) != "" {
		var err error
		actor, err = access.ParseAddress(ctx.Flags.String(actorFlag))
		if err != nil {
			return xerrors.Errorf("invalid actor: %v", err)
		}
	}

	var args []txn.Arg

	switch a.cmd {
	case mission.CmdComplete:
		args = append(args, arg(mission.ProofArg, ctx.Flags.String(proofFlag)))
	case mission.CmdVerify:
		approved := !ctx.Flags.Bool(rejectFlag)
		args = append(args, arg(mission.ApprovedArg, strconv.FormatBool(approved)))
	}

	c, err := resolveClient(ctx.Injector)
	if err != nil {
		return err
	}

	reason, err := c.transition(context.Background(), a.cmd, id, actor, args...)
	if err != nil {
		return xerrors.Errorf("failed to %s: %v", a.cmd, err)
	}

	if !reason.Ok() {
		return xerrors.Errorf("%s refused: %s", a.cmd, reason)
	}

	fmt.Fprintf(ctx.Out, "mission %d: %s applied", id, a.cmd)

	return nil
}

// showAction prints a mission.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate.
func (showAction) Execute(ctx node.Context) error {
	c, err := resolveClient(ctx.Injector)
	if err != nil {
		return err
	}

	id := ctx.Flags.Uint64(idFlag)

	m, err := c.get(id)
	if err != nil {
		return xerrors.Errorf("failed to read: %v", err)
	}

	if m == nil {
		return xerrors.Errorf("mission %d not found", id)
	}

	writeDetails(ctx.Out, *m)

	return nil
}

// listAction prints the missions as a table, optionally only the ones of an
// address.
//
// - implements node.ActionTemplate
type listAction struct{}

// Execute implements node.ActionTemplate.
func (listAction) Execute(ctx node.Context) error {
	c, err := resolveClient(ctx.Injector)
	if err != nil {
		return err
	}

	var missions []types.Mission

	user := ctx.Flags.String(userFlag)
	if user != "" {
		addr, err := access.ParseAddress(user)
		if err != nil {
			return xerrors.Errorf("invalid user: %v", err)
		}

		missions, err = c.userMissions(addr)
		if err != nil {
			return xerrors.Errorf("failed to list: %v", err)
		}
	} else {
		missions, err = c.list()
		if err != nil {
			return xerrors.Errorf("failed to list: %v", err)
		}
	}

	if len(missions) == 0 {
		fmt.Fprint(ctx.Out, "no mission")
		return nil
	}

	writeTable(ctx.Out, missions)

	return nil
}

// countAction prints the number of allocated missions.
//
// - implements node.ActionTemplate
type countAction struct{}

// Execute implements node.ActionTemplate.
func (countAction) Execute(ctx node.Context) error {
	c, err := resolveClient(ctx.Injector)
	if err != nil {
		return err
	}

	count, err := c.count()
	if err != nil {
		return xerrors.Errorf("failed to count: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%d", count)

	return nil
}

// tokenAction prints a bearer token of the HTTP API for an address.
//
// - implements node.ActionTemplate
type tokenAction struct{}

// Execute implements node.ActionTemplate.
func (tokenAction) Execute(ctx node.Context) error {
	addr, err := access.ParseAddress(ctx.Flags.String(addressFlag))
	if err != nil {
		return xerrors.Errorf("invalid address: %v", err)
	}

	var cfg *config.Config
	err = ctx.Injector.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("failed to resolve config: %v", err)
	}

	ttl := ctx.Flags.Duration(ttlFlag)
	if ttl == 0 {
		ttl = cfg.HTTP.TokenTTL
	}

	token, err := newBearer([]byte(cfg.HTTP.JWTSecret)).issue(addr, ttl)
	if err != nil {
		return xerrors.Errorf("failed to issue token: %v", err)
	}

	fmt.Fprint(ctx.Out, token)

	return nil
}

func resolveClient(inj node.Injector) (client, error) {
	var c client

	err := inj.Resolve(&c)
	if err != nil {
		return c, xerrors.Errorf("failed to resolve mission client: %v", err)
	}

	return c, nil
}

func writeTable(out io.Writer, missions []types.Mission) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Status", "Reward", "Creator", "Assignee"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 40},
		{Number: 4, Align: text.AlignRight},
	})

	for _, m := range missions {
		assignee := "-"
		if !m.Assignee.IsZero() {
			assignee = shortAddress(m.Assignee)
		}

		t.AppendRow(table.Row{m.ID, m.Title, statusLabel(m), m.Reward, shortAddress(m.Creator), assignee})
	}

	fmt.Fprint(out, t.Render())
}

func writeDetails(out io.Writer, m types.Mission) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendRows([]table.Row{
		{"ID", m.ID},
		{"Title", m.Title},
		{"Description", m.Description},
		{"Category", m.Category},
		{"Status", statusLabel(m)},
		{"Reward", m.Reward},
		{"Deadline", formatTime(m.Deadline)},
		{"Creator", m.Creator.String()},
	})

	if !m.Assignee.IsZero() {
		t.AppendRow(table.Row{"Assignee", m.Assignee.String()})
	}

	if m.Proof != "" {
		t.AppendRow(table.Row{"Proof", m.Proof})
	}

	t.AppendRow(table.Row{"Created", formatTime(m.CreatedAt)})

	if m.CompletedAt != 0 {
		t.AppendRow(table.Row{"Completed", formatTime(m.CompletedAt)})
	}

	fmt.Fprint(out, t.Render())
}

func statusLabel(m types.Mission) string {
	if m.PayoutPending {
		return m.Status.String() + " (payout pending)"
	}

	return m.Status.String()
}

func shortAddress(addr access.Address) string {
	s := addr.String()
	return s[:6] + ".." + s[len(s)-4:]
}

func formatTime(unix int64) string {
	if unix == 0 {
		return "-"
	}

	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
