package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.missionstake.io/stake/cli/node"
)

const (
	minter = "0101010101010101010101010101010101010101"
	pool   = "a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"
	alice  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bob    = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestStake_Help(t *testing.T) {
	out := new(bytes.Buffer)

	err := runWithCfg([]string{os.Args[0], "--help"}, config{Writer: out})
	require.NoError(t, err)
}

func TestStake_Scenario(t *testing.T) {
	dir := t.TempDir()

	cfg := `
http:
  listen: 127.0.0.1:0
  jwt_secret: s3cr3t
reward:
  pool: ` + pool + `
  minter: ` + minter + `
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stake.yaml"), []byte(cfg), 0600))

	sigs := make(chan os.Signal)
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()

		err := runWithCfg([]string{os.Args[0], "--config", dir, "start"},
			config{Channel: sigs, Writer: io.Discard})
		require.NoError(t, err)
	}()

	defer func() {
		// Simulate a Ctrl+C
		close(sigs)
		wg.Wait()
	}()

	waitDaemon(t, dir)

	exec := func(args ...string) string {
		out := new(bytes.Buffer)

		err := runWithCfg(append([]string{os.Args[0], "--config", dir}, args...),
			config{Writer: out})
		require.NoError(t, err, args)

		return strings.TrimSpace(out.String())
	}

	require.Equal(t, "registry deployed", exec("mission", "deploy"))
	require.Equal(t, "credited 100 to "+pool, exec("reward", "fund", "--to", pool, "--amount", "100"))

	require.Equal(t, "mission 1 created", exec("mission", "create", "--actor", alice,
		"--title", "Water the plants", "--description", "Every morning", "--reward", "40"))

	require.Equal(t, "mission 1: ACCEPT applied", exec("mission", "accept", "--actor", bob, "--id", "1"))
	require.Equal(t, "mission 1: COMPLETE applied",
		exec("mission", "complete", "--actor", bob, "--id", "1", "--proof", "done"))
	require.Equal(t, "mission 1: VERIFY applied", exec("mission", "verify", "--actor", alice, "--id", "1"))

	require.Equal(t, "40", exec("reward", "balance", "--address", bob))
	require.Equal(t, "60", exec("reward", "balance", "--address", pool))
	require.Equal(t, "1", exec("mission", "count"))
	require.Contains(t, exec("mission", "show", "--id", "1"), "verified")
	require.Contains(t, exec("proxy", "addr"), "http://127.0.0.1:")
	require.NotEmpty(t, exec("mission", "token", "--address", alice))

	out := new(bytes.Buffer)

	err := runWithCfg([]string{os.Args[0], "--config", dir, "mission", "cancel",
		"--actor", alice, "--id", "1"}, config{Writer: out})
	require.EqualError(t, err, "command error: CANCEL refused: not_pending")
}

// -----------------------------------------------------------------------------
// Utility functions

func waitDaemon(t *testing.T, dir string) {
	socket := filepath.Join(dir, node.SocketName)

	for i := 0; i < 100; i++ {
		_, err := os.Stat(socket)
		if err == nil {
			return
		}

		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("daemon did not start")
}
