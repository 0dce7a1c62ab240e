package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/stagehand/internal/cliconfig"
)

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cfgFile := filepath.Join(dir, "stagehand.toml")
	if err := os.WriteFile(cfgFile, []byte("tick = \"20ms\"\nstep = \"10ms\"\nmax_ticks = 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STAGEHAND_STEP", "5ms")
	t.Setenv("STAGEHAND_MAX_TICKS", "40")

	cfg := cliconfig.DefaultConfig()
	cfg.MaxTicks = 50
	changed := map[string]bool{"max-ticks": true}

	if err := loadConfig(&cfg, cfgFile, changed); err != nil {
		t.Fatalf("loadConfig() = %v", err)
	}
	if cfg.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval = %v, want 20ms from file", cfg.TickInterval)
	}
	if cfg.FixedStep != 5*time.Millisecond {
		t.Errorf("FixedStep = %v, want 5ms from env", cfg.FixedStep)
	}
	if cfg.MaxTicks != 50 {
		t.Errorf("MaxTicks = %d, want 50 from flag", cfg.MaxTicks)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	if err := loadConfig(&cfg, filepath.Join(t.TempDir(), "nope.toml"), map[string]bool{}); err == nil {
		t.Fatal("loadConfig() with a missing explicit file should fail")
	}
}

func TestValidateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intro.yaml")
	script := "initial: door\nstates:\n  - name: door\n    final: true\n    steps:\n      - {kind: say, text: hi}\n"
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newValidateCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if !strings.Contains(out.String(), `ok (1 states, 1 steps, initial "door")`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestStatusCmd(t *testing.T) {
	dir := t.TempDir()
	snap := `{"script": "intro.toml", "state": "hall", "finished": true, "ticks": 5, "elapsed_ns": 2500000000, "saved_at": "2026-01-02T03:04:05Z"}`
	if err := os.WriteFile(filepath.Join(dir, "status.json"), []byte(snap), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newStatusCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	for _, want := range []string{"state:    hall (finished: true)", "ticks:    5 (2.5s)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q missing %q", out.String(), want)
		}
	}

	cmd = newStatusCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{t.TempDir()})
	if err := cmd.Execute(); err == nil {
		t.Error("status of an empty dir should fail")
	}
}
