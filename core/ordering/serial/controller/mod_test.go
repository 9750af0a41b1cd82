package controller

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.missionstake.io/stake/cli/node"
	"go.missionstake.io/stake/core/execution"
	"go.missionstake.io/stake/core/execution/native"
	"go.missionstake.io/stake/core/ordering"
	"go.missionstake.io/stake/core/store"
	"go.missionstake.io/stake/core/txn"
	"go.missionstake.io/stake/core/txn/basic"
	"go.missionstake.io/stake/internal/config"
)

func TestLedgerController_SetCommands(t *testing.T) {
	builder := node.NewBuilder()

	NewController().SetCommands(builder)
}

func TestLedgerController_OnStart(t *testing.T) {
	dir := t.TempDir()
	inj := node.NewInjector()

	err := NewController().OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "stake.db"))

	var cfg *config.Config
	require.NoError(t, inj.Resolve(&cfg))
	require.Equal(t, "stake", cfg.Bucket)

	var exec *native.Service
	require.NoError(t, inj.Resolve(&exec))

	var srvc ordering.Service
	require.NoError(t, inj.Resolve(&srvc))

	var mgr *basic.Manager
	require.NoError(t, inj.Resolve(&mgr))

	err = NewController().OnStop(inj)
	require.NoError(t, err)

	_, err = srvc.Execute(context.Background(), makeTx(t, mgr))
	require.EqualError(t, err, "service is closed")
}

func TestLedgerController_BadConfig_OnStart(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, config.FileName), []byte("db: [\n"), 0600)
	require.NoError(t, err)

	err = NewController().OnStart(node.FlagSet{node.ConfigFlag: dir}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config: ")
}

func TestLedgerController_BadDB_OnStart(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvDB, dir)

	err := NewController().OnStart(node.FlagSet{node.ConfigFlag: dir}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open db: ")
}

func TestLedgerController_Missing_OnStop(t *testing.T) {
	err := NewController().OnStop(node.NewInjector())
	require.EqualError(t, err,
		"failed to resolve ordering service: couldn't find dependency for '*serial.Service'")
}

func TestWatchAction_Execute(t *testing.T) {
	dir := t.TempDir()
	inj := node.NewInjector()

	err := NewController().OnStart(node.FlagSet{node.ConfigFlag: dir}, inj)
	require.NoError(t, err)

	defer NewController().OnStop(inj)

	var exec *native.Service
	require.NoError(t, inj.Resolve(&exec))
	exec.Set("echo", echoContract{})

	var srvc ordering.Service
	require.NoError(t, inj.Resolve(&srvc))

	var mgr *basic.Manager
	require.NoError(t, inj.Resolve(&mgr))

	tx := makeTx(t, mgr)

	go func() {
		time.Sleep(50 * time.Millisecond)
		srvc.Execute(context.Background(), tx)
	}()

	out := new(bytes.Buffer)
	ctx := node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"duration": 500 * time.Millisecond},
		Out:      out,
	}

	err = watchAction{}.Execute(ctx)
	require.NoError(t, err)
	require.Regexp(t, "^#1 [0-9a-f]{64} accepted $", out.String())
}

func TestWatchAction_Missing_Execute(t *testing.T) {
	ctx := node.Context{
		Injector: node.NewInjector(),
		Flags:    node.FlagSet{},
	}

	err := watchAction{}.Execute(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve ordering service: ")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeTx(t *testing.T, mgr *basic.Manager) txn.Transaction {
	tx, err := mgr.Make(nil, txn.Arg{Key: native.ContractArg, Value: []byte("echo")})
	require.NoError(t, err)

	return tx
}

type echoContract struct{}

func (echoContract) UID() string {
	return "ECHO"
}

func (echoContract) Execute(store.Snapshot, execution.Step) (execution.Result, error) {
	return execution.Result{Accepted: true}, nil
}
