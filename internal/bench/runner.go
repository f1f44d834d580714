// Package bench adapts the external autopilot benchmark binary into a scoring
// oracle for one profile at a time.
package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrOracleExit marks a benchmark process that started but exited non-zero.
// It degrades the candidate to the failure sentinel instead of aborting the
// session.
var ErrOracleExit = errors.New("benchmark process exited non-zero")

// Result holds the oracle's combined metrics for one candidate.
type Result struct {
	ObjectiveValue float64
	AvgScore       float64
	MaxScore       int
	AvgFrames      float64
}

// Sentinel ranks last under every selection metric.
func Sentinel() Result {
	return Result{
		ObjectiveValue: math.Inf(-1),
		AvgScore:       math.Inf(-1),
		MaxScore:       0,
		AvgFrames:      0,
	}
}

// ExecFunc invokes one external command in dir and blocks until it returns.
// Tests substitute a stub oracle here.
type ExecFunc func(ctx context.Context, dir, name string, args ...string) error

// Runner invokes the benchmark binary exactly once per candidate and parses
// the summary it writes. Any parallelism across workload seeds is delegated
// to the binary via Jobs.
type Runner struct {
	Binary    string
	Root      string
	Bot       string
	SeedsFile string
	MaxFrames int
	Jobs      int
	Exec      ExecFunc
}

type summaryFile struct {
	BotRankings []botRanking `json:"bot_rankings"`
}

type botRanking struct {
	BotID          string  `json:"bot_id"`
	ObjectiveValue float64 `json:"objective_value"`
	AvgScore       float64 `json:"avg_score"`
	MaxScore       int     `json:"max_score"`
	AvgFrames      float64 `json:"avg_frames"`
}

// Evaluate scores the profile currently installed as the active profile,
// writing benchmark output under outDir. A non-zero process exit returns the
// failure sentinel with a nil error; a missing target bot in a successful
// summary is a fatal configuration error.
func (r *Runner) Evaluate(ctx context.Context, outDir string) (Result, error) {
	args := []string{
		"benchmark",
		"--bots", r.Bot,
		"--seed-file", r.SeedsFile,
		"--max-frames", strconv.Itoa(r.MaxFrames),
		"--objective", "score",
		"--save-top", "1",
		"--jobs", strconv.Itoa(r.Jobs),
		"--out-dir", outDir,
	}

	execFn := r.Exec
	if execFn == nil {
		execFn = runCommand
	}

	fmt.Printf("$ %s %s\n", r.Binary, strings.Join(args, " "))
	if err := execFn(ctx, r.Root, r.Binary, args...); err != nil {
		if errors.Is(err, ErrOracleExit) {
			return Sentinel(), nil
		}
		return Result{}, err
	}

	return r.parseSummary(filepath.Join(outDir, "summary.json"))
}

func (r *Runner) parseSummary(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read benchmark summary: %w", err)
	}
	var summary summaryFile
	if err := json.Unmarshal(data, &summary); err != nil {
		return Result{}, fmt.Errorf("parse benchmark summary %s: %w", path, err)
	}
	for _, ranking := range summary.BotRankings {
		if ranking.BotID == r.Bot {
			return Result{
				ObjectiveValue: ranking.ObjectiveValue,
				AvgScore:       ranking.AvgScore,
				MaxScore:       ranking.MaxScore,
				AvgFrames:      ranking.AvgFrames,
			}, nil
		}
	}
	return Result{}, fmt.Errorf("bot %q not found in %s", r.Bot, path)
}

func runCommand(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %v", ErrOracleExit, err)
	}
	return err
}
