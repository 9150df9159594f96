package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pddlenv/internal/analysis"
	"pddlenv/internal/config"
	"pddlenv/internal/logging"
	"pddlenv/internal/pddl/pddltest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testdata(name string) string {
	return filepath.Join("..", "..", "internal", "descriptor", "testdata", name)
}

// setup installs a default configuration and a no-op logger for commands
// invoked without the root command.
func setup(t *testing.T) {
	t.Helper()
	cfg = config.DefaultConfig()
	cfg.Search.Workers = 2
	logger = zap.NewNop()
	t.Cleanup(func() {
		cfg, logger = nil, nil
		listActions, showDense = false, false
		reachQuery, showProgram, maxPrintGoal = "", false, 0
		runsProblem, runsLimit, runsSummary = "", 20, false
	})
}

// =============================================================================
// PLAN
// =============================================================================

func TestPlanSolvable(t *testing.T) {
	setup(t)
	var out bytes.Buffer
	require.NoError(t, planFiles(context.Background(), &out, []string{testdata("rooms.yaml"), testdata("blocks3.yaml")}))

	got := out.String()
	assert.Contains(t, got, "rooms/corridor: plan found")
	assert.Contains(t, got, "blocks/tower3: plan found")
	assert.Contains(t, got, "  1. (move r1 h1)")
	// Results are reported in argument order.
	assert.Less(t, strings.Index(got, "rooms/corridor"), strings.Index(got, "blocks/tower3"))
}

func TestPlanUnreachableSkipsSearch(t *testing.T) {
	setup(t)
	var out bytes.Buffer
	require.NoError(t, planFiles(context.Background(), &out, []string{testdata("rooms_unreachable.yaml")}))
	assert.Equal(t, "rooms-inline/island: goal unreachable, missing {(at r3)}\n", out.String())
}

func TestPlanRelaxedReachableButUnsolvable(t *testing.T) {
	setup(t)
	var out bytes.Buffer
	require.NoError(t, planFiles(context.Background(), &out, []string{testdata("blocks_cycle.yaml")}))
	assert.Contains(t, out.String(), "blocks/cycle: no plan (gbfs: frontier_exhausted")
}

func TestPlanWithoutAnalysisSearches(t *testing.T) {
	setup(t)
	cfg.Analysis.Enabled = false
	var out bytes.Buffer
	require.NoError(t, planFiles(context.Background(), &out, []string{testdata("rooms_unreachable.yaml")}))
	assert.Contains(t, out.String(), "rooms-inline/island: no plan (gbfs: frontier_exhausted")
}

func TestPlanHillClimbing(t *testing.T) {
	setup(t)
	cfg.Search.Algorithm = "hill"
	var out bytes.Buffer
	require.NoError(t, planFiles(context.Background(), &out, []string{testdata("rooms.yaml")}))
	assert.Contains(t, out.String(), "rooms/corridor: plan found (2 steps")
}

func TestPlanLogsSearchTime(t *testing.T) {
	setup(t)
	core, logs := observer.New(zapcore.InfoLevel)
	logging.Attach(zap.New(core), nil)
	t.Cleanup(logging.CloseAll)

	require.NoError(t, planFiles(context.Background(), &bytes.Buffer{}, []string{testdata("rooms.yaml"), testdata("blocks3.yaml")}))

	timed := logs.FilterLoggerName("search").FilterMessageSnippet("gbfs on 2 problems completed in").All()
	require.Len(t, timed, 1)
	assert.Equal(t, zapcore.InfoLevel, timed[0].Level)
}

func TestPlanMissingFile(t *testing.T) {
	setup(t)
	err := planFiles(context.Background(), &bytes.Buffer{}, []string{testdata("absent.yaml")})
	assert.Error(t, err)
}

func TestPlanRecordsRuns(t *testing.T) {
	setup(t)
	cfg.Store = config.StoreConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "runs.db")}

	require.NoError(t, planFiles(context.Background(), &bytes.Buffer{}, []string{testdata("rooms.yaml")}))
	require.NoError(t, planFiles(context.Background(), &bytes.Buffer{}, []string{testdata("blocks_cycle.yaml")}))

	runs, err := openStore()
	require.NoError(t, err)
	defer runs.Close()

	var out bytes.Buffer
	require.NoError(t, listRuns(&out, runs))
	assert.Contains(t, out.String(), "rooms/corridor")
	assert.Contains(t, out.String(), "blocks/cycle")
	assert.Contains(t, out.String(), "frontier_exhausted")

	runsSummary = true
	out.Reset()
	require.NoError(t, listRuns(&out, runs))
	assert.Contains(t, out.String(), "ALGORITHM")
	assert.Regexp(t, `gbfs\s+2\s+1\s`, out.String())
}

// =============================================================================
// GROUND, ENCODE, REACHABLE
// =============================================================================

func TestGround(t *testing.T) {
	setup(t)
	var out bytes.Buffer
	require.NoError(t, groundFile(&out, testdata("blocks3.yaml")))
	assert.Contains(t, out.String(), "problem:  blocks/tower3\n")
	assert.Contains(t, out.String(), "actions:  24 grounded from 4 schemas\n")
	assert.Contains(t, out.String(), "static:   -\n")

	out.Reset()
	listActions = true
	require.NoError(t, groundFile(&out, testdata("rooms.yaml")))
	assert.Contains(t, out.String(), "static:   connected\n")
	assert.Contains(t, out.String(), "(move r1 h1)\n  pre {(at r1)}")
}

func TestEncode(t *testing.T) {
	setup(t)
	showDense = true
	var out bytes.Buffer
	require.NoError(t, encodeFile(&out, testdata("rooms.yaml")))

	got := out.String()
	assert.Contains(t, got, "arity 1: [# objects 1]")
	assert.Contains(t, got, "arity 2: [# objects # objects 1]")
	assert.Contains(t, got, "shapes: 1:(4,1) 2:(4,4,1) (total 20)")
	assert.Contains(t, got, "dense[0]:")
	assert.Contains(t, got, "dense[1]:")
}

func TestReachable(t *testing.T) {
	setup(t)
	maxPrintGoal = 1
	var out bytes.Buffer
	require.NoError(t, reachableFile(&out, testdata("rooms_unreachable.yaml")))
	assert.Equal(t, "rooms-inline/island: 2 reachable states, 0 goal states\n", out.String())

	out.Reset()
	require.NoError(t, reachableFile(&out, testdata("rooms.yaml")))
	assert.Contains(t, out.String(), " 1 goal states\n  {")
}

// =============================================================================
// REACH (DATALOG)
// =============================================================================

func TestReach(t *testing.T) {
	setup(t)
	reachQuery = "reached(X)"
	showProgram = true
	var out bytes.Buffer
	require.NoError(t, reachFile(&cobra.Command{}, &out, testdata("rooms_unreachable.yaml")))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "Decl holds(F)."))
	assert.Regexp(t, `(?m)^holds\(/f\d+\)\.$`, got)
	assert.Equal(t, 3, strings.Count(got, "\nholds(/f"), "one line per initial literal")
	assert.Contains(t, got, "rooms-inline/island: 2 rules, 4 literals reached")
	assert.Contains(t, got, "goal: unreachable, missing {(at r3)}")
	assert.Contains(t, got, "X=(at r1)\n")
	assert.Contains(t, got, "X=(connected r2 r1)\n")
}

func TestReachBadQuery(t *testing.T) {
	setup(t)
	reachQuery = "unknown(X)"
	err := reachFile(&cobra.Command{}, &bytes.Buffer{}, testdata("rooms.yaml"))
	assert.ErrorContains(t, err, "not declared")
}

func TestFormatBinding(t *testing.T) {
	toy := pddltest.NewToy()
	p := analysis.NewProgram(toy.Problem)
	clean := toy.Facts("Clean").Sorted()[0]

	got := formatBinding(p, map[string]interface{}{"Y": int64(3), "X": p.Name(clean)})
	assert.Equal(t, "X=(Clean house) Y=3", got)
}

// =============================================================================
// TOWER
// =============================================================================

func TestTower(t *testing.T) {
	setup(t)
	towerMin, towerMax, towerCount, towerRR = 2, 3, 3, true
	t.Cleanup(func() { towerMin, towerMax, towerCount = 2, 4, 3 })

	var out bytes.Buffer
	require.NoError(t, solveTowers(context.Background(), &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "blocks/tower2: "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "blocks/tower3: "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "blocks/tower2: "), lines[2])
}

func TestTowerBadRange(t *testing.T) {
	setup(t)
	towerMin, towerMax = 5, 2
	t.Cleanup(func() { towerMin, towerMax = 2, 4 })
	assert.Error(t, solveTowers(context.Background(), &bytes.Buffer{}))
}

// =============================================================================
// ROOT COMMAND AND WATCH
// =============================================================================

func TestRootCommand(t *testing.T) {
	t.Cleanup(func() {
		cfg, logger = nil, nil
		configPath, heuristicName = "pddlenv.yaml", ""
		rootCmd.SetArgs(nil)
	})
	t.Setenv("PDDLENV_STORE", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"ground", testdata("rooms.yaml"), "--config", filepath.Join(t.TempDir(), "none.yaml")})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "problem:  rooms/corridor")

	rootCmd.SetArgs([]string{"ground", testdata("rooms.yaml"), "--heuristic", "nope"})
	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "invalid heuristic")
}

func TestWatchFile(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "problem.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 20*time.Millisecond, func() error {
			changes <- struct{}{}
			return nil
		})
	}()

	// Keep writing until the watcher reports a change; the first write may
	// land before the watch is registered.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case <-changes:
			break wait
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("b"), 0644))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchFileStopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	boom := errors.New("boom")
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 10*time.Millisecond, func() error { return boom })
	}()

	for {
		select {
		case err := <-done:
			assert.ErrorIs(t, err, boom)
			return
		case <-time.After(50 * time.Millisecond):
			require.NoError(t, os.WriteFile(path, []byte("b"), 0644))
		}
	}
}
