package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/stagehand/internal/cliconfig"
	"github.com/bft-labs/stagehand/internal/scene"
	"github.com/bft-labs/stagehand/internal/status"
)

const knockTOML = `
name = "knock"
initial = "door"

[[states]]
name = "door"
steps = [
  { kind = "say", text = "Knock knock." },
  { kind = "wait", duration = "1s" },
  { kind = "goto", target = "hall" },
]

[[states]]
name = "hall"
final = true
steps = [{ kind = "say", text = "Come in." }]
`

const stuckYAML = `
name: stuck
initial: gate
states:
  - name: gate
    steps:
      - {kind: await, key: gate, value: open, timeout: 1s}
`

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testConfig(path string) cliconfig.Config {
	cfg := cliconfig.DefaultConfig()
	cfg.ScriptPath = path
	cfg.TickInterval = time.Millisecond
	cfg.FixedStep = 500 * time.Millisecond
	return cfg
}

func TestRun_PlaysToFinalState(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig(writeScript(t, "knock.toml", knockTOML))
	cfg.StatusDir = t.TempDir()

	res, err := Run(context.Background(), cfg, WithOutput(&out))
	require.NoError(t, err)

	assert.Equal(t, "knock", res.Scene)
	assert.Equal(t, "hall", res.Final)
	assert.True(t, res.Finished)
	assert.Equal(t, uint64(5), res.Ticks)
	assert.Equal(t, 2500*time.Millisecond, res.Elapsed)
	assert.Equal(t, []string{"Knock knock.", "Come in."}, res.Transcript)
	assert.Equal(t, "Knock knock.\nCome in.\n", out.String())

	snap, err := status.NewFileRepository(cfg.StatusDir).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Finished)
	assert.Equal(t, cfg.ScriptPath, snap.Script)
	assert.Equal(t, res.Transcript, snap.Transcript)
	assert.Empty(t, snap.Error)
}

func TestRun_StepFailureStopsRun(t *testing.T) {
	cfg := testConfig(writeScript(t, "stuck.yaml", stuckYAML))
	cfg.StatusDir = t.TempDir()

	res, err := Run(context.Background(), cfg)

	var timeout *scene.AwaitTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "gate", timeout.Key)
	assert.False(t, res.Finished)
	assert.Equal(t, uint64(2), res.Ticks)

	snap, err := status.NewFileRepository(cfg.StatusDir).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stuck", snap.Scene)
	assert.Equal(t, "gate", snap.State)
	assert.Contains(t, snap.Error, "timed out")
}

func TestRun_MaxTicks(t *testing.T) {
	cfg := testConfig(writeScript(t, "knock.toml", knockTOML))
	cfg.MaxTicks = 2

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Ticks)
	assert.Equal(t, "door", res.Final)
	assert.False(t, res.Finished)
}

func TestRun_WatchKeepsRunningUntilCancelled(t *testing.T) {
	cfg := testConfig(writeScript(t, "knock.toml", knockTOML))
	cfg.Watch = true
	cfg.MetricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	res, err := Run(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Greater(t, res.Ticks, uint64(5))
}

func TestRun_InvalidScript(t *testing.T) {
	_, err := Run(context.Background(), testConfig(writeScript(t, "bad.toml", `initial = "nowhere"`)))
	assert.ErrorIs(t, err, scene.ErrInvalidScript)

	_, err = Run(context.Background(), testConfig(filepath.Join(t.TempDir(), "missing.toml")))
	assert.Error(t, err)
}
