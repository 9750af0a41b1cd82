package ucli

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v2"
	"go.missionstake.io/stake/cli"
)

func TestBuilder_Build(t *testing.T) {
	builder := NewBuilder("stake", nil)
	builder.SetUsage("mission ledger")

	app := builder.Build().(*urfave.App)

	app.Writer = io.Discard

	require.Equal(t, "stake", app.Name)
	require.Equal(t, "mission ledger", app.Usage)

	err := app.Run([]string{"stake"})
	require.NoError(t, err)
}

func TestBuilder_SetCommand(t *testing.T) {
	builder := NewBuilder("stake", nil)

	builder.SetCommand("mission")
	builder.SetCommand("reward")

	app := builder.Build().(*urfave.App)

	require.Len(t, app.Commands, 3)

	require.Equal(t, "mission", app.Commands[0].Name)
	require.Equal(t, "reward", app.Commands[1].Name)
	require.Equal(t, "help", app.Commands[2].Name)
}

func TestCommandBuilder(t *testing.T) {
	builder := NewBuilder("stake", nil)
	cmd := builder.SetCommand("mission")

	cmd.SetAction(func(flags cli.Flags) error {
		return nil
	})
	cmd.SetDescription("manage missions")
	cmd.SetFlags(cli.StringFlag{
		Name:     "title",
		Usage:    "title of the mission",
		Required: true,
		Value:    "default",
	})
	cmd.SetSubCommand("create")

	require.Len(t, builder.commands, 1)
	require.Len(t, builder.flags, 0)

	cmd2 := builder.commands[0]
	require.Equal(t, "manage missions", cmd2.description)
	require.Len(t, cmd2.flags, 1)
	require.Len(t, cmd2.subcommands, 1)
}

func TestBuilder_RunWithFlags(t *testing.T) {
	var got struct {
		title    string
		reward   uint64
		approved bool
		retries  int
		timeout  time.Duration
	}

	builder := NewBuilder("stake", nil)
	cmd := builder.SetCommand("mission")
	sub := cmd.SetSubCommand("create")
	sub.SetFlags(
		cli.StringFlag{Name: "title"},
		cli.Uint64Flag{Name: "reward"},
		cli.BoolFlag{Name: "approved"},
		cli.IntFlag{Name: "retries", Value: 3},
		cli.DurationFlag{Name: "timeout", Value: time.Second},
	)
	sub.SetAction(func(flags cli.Flags) error {
		got.title = flags.String("title")
		got.reward = flags.Uint64("reward")
		got.approved = flags.Bool("approved")
		got.retries = flags.Int("retries")
		got.timeout = flags.Duration("timeout")
		return nil
	})

	app := builder.Build().(*urfave.App)
	app.Writer = new(bytes.Buffer)

	err := app.Run([]string{"stake", "mission", "create",
		"--title", "Fix bug", "--reward", "18446744073709551615", "--approved"})
	require.NoError(t, err)

	require.Equal(t, "Fix bug", got.title)
	require.Equal(t, uint64(18446744073709551615), got.reward)
	require.True(t, got.approved)
	require.Equal(t, 3, got.retries)
	require.Equal(t, time.Second, got.timeout)
}

func TestBuildFlags(t *testing.T) {
	in := []cli.Flag{
		cli.StringFlag{
			Name:     "name1",
			Usage:    "usage1",
			Required: true,
			Value:    "value1",
		},
		cli.DurationFlag{
			Name:     "name2",
			Usage:    "usage2",
			Required: true,
			Value:    time.Minute,
		},
		cli.IntFlag{
			Name:     "name3",
			Usage:    "usage3",
			Required: true,
			Value:    1,
		},
		cli.Uint64Flag{
			Name:  "name4",
			Usage: "usage4",
			Value: 2,
		},
		cli.BoolFlag{
			Name:     "name5",
			Usage:    "usage5",
			Required: true,
			Value:    true,
		},
	}

	out := buildFlags(in)
	require.Len(t, out, 5)

	require.Equal(t, "name1", out[0].Names()[0])
	require.Equal(t, "name2", out[1].Names()[0])
	require.Equal(t, "name3", out[2].Names()[0])
	require.Equal(t, "name4", out[3].Names()[0])
	require.Equal(t, "name5", out[4].Names()[0])
}

func TestBuildFlags_Panic(t *testing.T) {
	defer func() {
		r := recover()
		require.Equal(t, "flag type '<nil>' not supported", r)
	}()

	buildFlags([]cli.Flag{nil})
}

func TestMakeAction(t *testing.T) {
	res := makeAction(nil)
	require.Nil(t, res)

	isCalled := false
	fakeAction := func(flags cli.Flags) error {
		isCalled = true
		return nil
	}

	res = makeAction(fakeAction)
	require.NotNil(t, res)

	out := res(nil)
	require.NoError(t, out)
	require.True(t, isCalled)
}
