package node

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v2"
	"go.missionstake.io/stake/cli"
	"go.missionstake.io/stake/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestCLIBuilder_SetStartFlags(t *testing.T) {
	builder := NewBuilder()

	builder.SetStartFlags(cli.StringFlag{Name: "db"}, cli.IntFlag{Name: "port"})
	require.Len(t, builder.startFlags, 2)
}

func TestCLIBuilder_Start(t *testing.T) {
	calls := &fake.Call{}
	sigs := make(chan os.Signal, 1)
	builder := NewBuilderWithCfg(sigs, nil, fakeInitializer{calls: calls})
	builder.daemonFactory = fakeFactory{}

	sigs <- syscall.SIGTERM

	dir := filepath.Join(t.TempDir(), "node")

	err := builder.start(FlagSet{ConfigFlag: dir})
	require.NoError(t, err)
	require.DirExists(t, dir)
	require.Equal(t, 2, calls.Len())
	require.Equal(t, "start", calls.Get(0, 0))
	require.Equal(t, "stop", calls.Get(1, 0))
}

func TestCLIBuilder_BadFolder_Start(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	builder := NewBuilderWithCfg(make(chan os.Signal, 1), nil)

	err := builder.start(FlagSet{ConfigFlag: filepath.Join(file, "node")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't make path: ")
}

func TestCLIBuilder_Failures_Start(t *testing.T) {
	builder := NewBuilderWithCfg(make(chan os.Signal, 1), nil)

	builder.daemonFactory = fakeFactory{err: xerrors.New("oops")}
	err := builder.start(FlagSet{})
	require.EqualError(t, err, "couldn't make daemon: oops")

	builder.daemonFactory = fakeFactory{errDaemon: xerrors.New("oops")}
	err = builder.start(FlagSet{})
	require.EqualError(t, err, "couldn't start the daemon: oops")

	builder = NewBuilderWithCfg(make(chan os.Signal, 1), nil,
		fakeInitializer{err: xerrors.New("oops")})
	builder.daemonFactory = fakeFactory{}

	err = builder.start(FlagSet{})
	require.EqualError(t, err, "couldn't run the controller: oops")

	sigs := make(chan os.Signal, 1)
	builder = NewBuilderWithCfg(sigs, nil, fakeInitializer{errStop: xerrors.New("oops")})
	builder.daemonFactory = fakeFactory{}
	sigs <- syscall.SIGTERM

	err = builder.start(FlagSet{})
	require.EqualError(t, err, "couldn't stop controller: oops")
}

func TestCLIBuilder_MakeAction(t *testing.T) {
	calls := &fake.Call{}
	builder := NewBuilder()
	builder.daemonFactory = fakeFactory{calls: calls}

	fset := flag.NewFlagSet("", 0)
	fset.String("title", "Fix bug", "")
	fset.Uint64("reward", 100, "")

	ctx := urfave.NewContext(makeApp(), fset, nil)

	err := builder.MakeAction(fakeAction{})(ctx)
	require.NoError(t, err)

	data := string(calls.Get(0, 0).([]byte))
	require.Equal(t, "\x00\x00"+`{"reward":100,"title":"Fix bug"}`, data)

	// The second action gets the next index.
	err = builder.MakeAction(fakeAction{})(FlagSet{})
	require.NoError(t, err)
	require.Equal(t, "\x01\x00{}", string(calls.Get(1, 0).([]byte)))

	builder.daemonFactory = fakeFactory{err: xerrors.New("oops")}
	err = builder.MakeAction(fakeAction{})(ctx)
	require.EqualError(t, err, "couldn't make client: oops")

	builder.daemonFactory = fakeFactory{errClient: xerrors.New("oops")}
	err = builder.MakeAction(fakeAction{})(ctx)
	require.EqualError(t, err, "oops")
}

func TestCLIBuilder_Build(t *testing.T) {
	calls := &fake.Call{}
	builder := NewBuilderWithCfg(nil, new(bytes.Buffer), fakeInitializer{calls: calls})

	cb := builder.SetCommand("mission")
	cb.SetDescription("manage missions")
	cb.SetAction(builder.MakeAction(fakeAction{}))
	cb.SetFlags(cli.StringFlag{Name: "title"})

	sub := cb.SetSubCommand("list")
	sub.SetDescription("list missions")
	sub.SetFlags(cli.DurationFlag{Name: "timeout"}, cli.Uint64Flag{Name: "id"})

	app := builder.Build().(*urfave.App)
	require.Equal(t, "stake", app.Name)
	require.Len(t, app.Commands, 3)
	require.Equal(t, "mission", app.Commands[0].Name)
	require.Equal(t, "start", app.Commands[1].Name)
	require.Equal(t, "commands", calls.Get(0, 0))
}

func TestActionMap(t *testing.T) {
	actions := &actionMap{}
	require.Equal(t, uint16(0), actions.Set(fakeAction{}))
	require.Equal(t, uint16(1), actions.Set(fakeAction{}))

	require.NotNil(t, actions.Get(1))
	require.Nil(t, actions.Get(2))
}

// -----------------------------------------------------------------------------
// Utility functions

func makeApp() *urfave.App {
	return &urfave.App{
		Flags: []urfave.Flag{
			&urfave.StringFlag{Name: "title"},
			&urfave.Uint64Flag{Name: "reward"},
		},
	}
}
