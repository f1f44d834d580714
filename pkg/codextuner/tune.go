package codextuner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"codextuner/internal/bench"
	"codextuner/internal/profile"
	"codextuner/internal/search"
	"codextuner/internal/session"
	"codextuner/internal/storage"
)

// Tune runs one full session: INIT (resolve and validate inputs, snapshot the
// active profile), RUNNING (generate, evaluate, select, persist per
// iteration), FINALIZE (commit champion, summary, latest pointer, index).
// On any failure in any state the pre-session active profile is restored
// before the error propagates.
func (c *Client) Tune(ctx context.Context, req TuneRequest) (TuneSummary, error) {
	if err := req.validate(); err != nil {
		return TuneSummary{}, err
	}
	metric, err := search.ParseMetric(req.SelectionMetric)
	if err != nil {
		return TuneSummary{}, err
	}
	anchorMode, err := session.ParseAnchorMode(req.AnchorMode)
	if err != nil {
		return TuneSummary{}, err
	}

	seedsFile := c.resolvePath(req.SeedsFile)
	if _, err := os.Stat(seedsFile); err != nil {
		return TuneSummary{}, fmt.Errorf("seed file not found: %s", seedsFile)
	}
	if _, err := os.Stat(c.paths.BaseProfilePath()); err != nil {
		return TuneSummary{}, fmt.Errorf("base profile not found: %s", c.paths.BaseProfilePath())
	}
	if c.execFn == nil {
		if _, err := os.Stat(c.binary); err != nil {
			return TuneSummary{}, fmt.Errorf("benchmark binary not found: %s", c.binary)
		}
	}
	if err := c.store.Init(ctx); err != nil {
		return TuneSummary{}, err
	}

	if err := c.seedActiveProfile(); err != nil {
		return TuneSummary{}, err
	}
	snapshot, ok, err := c.active.Get()
	if err != nil {
		return TuneSummary{}, err
	}
	if !ok {
		return TuneSummary{}, errors.New("active profile missing after seeding")
	}

	startedAt := c.now()
	sess, err := session.New(c.paths.RunsDir(), startedAt)
	if err != nil {
		return TuneSummary{}, err
	}

	summary, err := c.runSession(ctx, req, metric, anchorMode, seedsFile, snapshot, sess, startedAt)
	if err != nil {
		if restoreErr := c.active.Set(snapshot); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return TuneSummary{}, err
	}
	return summary, nil
}

func (c *Client) runSession(
	ctx context.Context,
	req TuneRequest,
	metric search.Metric,
	anchorMode session.AnchorMode,
	seedsFile string,
	snapshot profile.Profile,
	sess *session.Session,
	startedAt time.Time,
) (TuneSummary, error) {
	if err := sess.WriteBackup(snapshot); err != nil {
		return TuneSummary{}, err
	}

	startPath, err := c.resolveStartProfile(req.StartProfile)
	if err != nil {
		return TuneSummary{}, err
	}
	incumbent, err := profile.Load(startPath)
	if err != nil {
		return TuneSummary{}, err
	}
	anchors, err := session.LoadAnchors(c.paths, anchorMode, profile.Signature(incumbent))
	if err != nil {
		return TuneSummary{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	engine := search.NewEngine(metric, incumbent, req.InitialStep, req.Decay, req.MinStep)
	generator := &search.Generator{
		Rand:             rng,
		Count:            req.Candidates,
		Metric:           metric,
		MutationAttempts: req.GenerationBudget,
	}
	runner := &bench.Runner{
		Binary:    c.binary,
		Root:      c.paths.AutopilotRoot,
		Bot:       req.Bot,
		SeedsFile: seedsFile,
		MaxFrames: req.MaxFrames,
		Jobs:      req.Jobs,
		Exec:      c.execFn,
	}

	fmt.Printf("session=%s dir=%s start_profile=%s metric=%s\n", sess.ID, sess.Dir, startPath, metric)

	history := make([]session.IterationRecord, 0, req.Iterations)
	improvements := 0

	for iteration := 1; iteration <= req.Iterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return TuneSummary{}, err
		}

		iterDir, err := sess.IterDir(iteration)
		if err != nil {
			return TuneSummary{}, err
		}

		baseStep := engine.BaseStep(iteration)
		searchStep := engine.SearchStep(iteration)

		candidates, err := generator.Plan(engine.PlanInput(searchStep, anchors))
		if err != nil {
			return TuneSummary{}, err
		}

		results := make([]search.Result, 0, len(candidates))
		for idx, candidate := range candidates {
			candDir, err := session.CandDir(iterDir, idx)
			if err != nil {
				return TuneSummary{}, err
			}
			if err := profile.Write(filepath.Join(candDir, "profile.json"), candidate.Profile); err != nil {
				return TuneSummary{}, err
			}
			if err := c.active.Set(candidate.Profile); err != nil {
				return TuneSummary{}, err
			}

			scored, err := runner.Evaluate(ctx, candDir)
			if err != nil {
				return TuneSummary{}, err
			}

			result := search.Result{
				Iteration:      iteration,
				Candidate:      idx,
				Strategy:       candidate.Strategy,
				ObjectiveValue: scored.ObjectiveValue,
				AvgScore:       scored.AvgScore,
				MaxScore:       scored.MaxScore,
				AvgFrames:      scored.AvgFrames,
				OutDir:         candDir,
				Profile:        candidate.Profile,
			}
			results = append(results, result)

			fmt.Printf("iter=%03d cand=%02d strategy=%s objective=%.3f avg_score=%.3f max_score=%d avg_frames=%.2f\n",
				iteration, idx, result.Strategy, result.ObjectiveValue, result.AvgScore, result.MaxScore, result.AvgFrames)
		}

		outcome, err := engine.Observe(results)
		if err != nil {
			return TuneSummary{}, err
		}
		if outcome.Improved {
			improvements++
		}

		if err := session.WriteLeaderboard(filepath.Join(iterDir, "leaderboard.csv"), outcome.Ranked); err != nil {
			return TuneSummary{}, err
		}
		if err := profile.Write(filepath.Join(iterDir, "winner-profile.json"), engine.Incumbent()); err != nil {
			return TuneSummary{}, err
		}

		history = append(history, session.IterationRecord{
			Iteration:       iteration,
			BaseStep:        baseStep,
			SearchStep:      searchStep,
			Improved:        outcome.Improved,
			StagnationCount: outcome.Stagnation,
			Winner:          winnerRecord(outcome.Winner),
		})

		fmt.Printf("iter=%03d winner=cand-%02d (%s) objective=%.3f avg_score=%.3f improved=%t stagnation=%d\n",
			iteration, outcome.Winner.Candidate, outcome.Winner.Strategy,
			outcome.Winner.ObjectiveValue, outcome.Winner.AvgScore, outcome.Improved, outcome.Stagnation)
	}

	best, bestProfile, ok := engine.Best()
	if !ok {
		return TuneSummary{}, errors.New("no candidates were evaluated")
	}

	if err := sess.WriteChampion(bestProfile); err != nil {
		return TuneSummary{}, err
	}
	if err := profile.Write(c.paths.ChampionProfilePath(), bestProfile); err != nil {
		return TuneSummary{}, err
	}

	summary := session.Summary{
		Session:         sess.ID,
		Bot:             req.Bot,
		Iterations:      req.Iterations,
		Candidates:      req.Candidates,
		MaxFrames:       req.MaxFrames,
		Jobs:            req.Jobs,
		SelectionMetric: string(metric),
		AnchorMode:      string(anchorMode),
		InstallMode:     req.InstallMode,
		SeedsFile:       seedsFile,
		RandomSeed:      req.Seed,
		StartProfile:    startPath,
		Best:            bestRecord(best),
		ChampionProfile: bestProfile,
		History:         history,
	}
	if err := sess.WriteSummary(summary); err != nil {
		return TuneSummary{}, err
	}

	switch req.InstallMode {
	case InstallChampion:
		if err := c.active.Set(bestProfile); err != nil {
			return TuneSummary{}, err
		}
	default:
		if err := c.active.Set(snapshot); err != nil {
			return TuneSummary{}, err
		}
	}

	if err := session.WriteLatestPointer(c.paths, sess.Dir); err != nil {
		return TuneSummary{}, err
	}

	record := storage.SessionRecord{
		ID:              sess.ID,
		CreatedAtUTC:    startedAt.UTC().Format(time.RFC3339Nano),
		SessionDir:      sess.Dir,
		Bot:             req.Bot,
		Iterations:      req.Iterations,
		Candidates:      req.Candidates,
		MaxFrames:       req.MaxFrames,
		Jobs:            req.Jobs,
		Seed:            req.Seed,
		SelectionMetric: string(metric),
		AnchorMode:      string(anchorMode),
		InstallMode:     req.InstallMode,
		Best:            bestRecord(best),
		Champion:        bestProfile,
	}
	if err := c.store.SaveSession(ctx, record); err != nil {
		return TuneSummary{}, err
	}

	fmt.Printf("SESSION_DIR=%s\n", sess.Dir)
	fmt.Printf("CHAMPION_PROFILE=%s\n", c.paths.ChampionProfilePath())
	fmt.Printf("BEST_OBJECTIVE=%.6f\n", best.ObjectiveValue)
	fmt.Printf("BEST_AVG_SCORE=%.6f\n", best.AvgScore)

	return TuneSummary{
		SessionID:    sess.ID,
		SessionDir:   sess.Dir,
		ChampionPath: c.paths.ChampionProfilePath(),
		Best:         best,
		BestProfile:  bestProfile,
		Improvements: improvements,
	}, nil
}

// seedActiveProfile installs champion-else-base when no active profile exists
// yet, so the rollback snapshot is always well defined.
func (c *Client) seedActiveProfile() error {
	_, ok, err := c.active.Get()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	source := c.paths.ChampionProfilePath()
	if _, err := os.Stat(source); err != nil {
		source = c.paths.BaseProfilePath()
	}
	p, err := profile.Load(source)
	if err != nil {
		return err
	}
	return c.active.Set(p)
}

func (c *Client) resolveStartProfile(startProfile string) (string, error) {
	if startProfile != "" {
		path := c.resolvePath(startProfile)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("start profile not found: %s", path)
		}
		return path, nil
	}
	if _, err := os.Stat(c.paths.ChampionProfilePath()); err == nil {
		return c.paths.ChampionProfilePath(), nil
	}
	return c.paths.BaseProfilePath(), nil
}

func (c *Client) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.paths.AutopilotRoot, path)
}

func winnerRecord(r search.Result) session.WinnerRecord {
	return session.WinnerRecord{
		Candidate:      r.Candidate,
		Strategy:       r.Strategy,
		ObjectiveValue: search.Float(r.ObjectiveValue),
		AvgScore:       search.Float(r.AvgScore),
		MaxScore:       r.MaxScore,
		AvgFrames:      search.Float(r.AvgFrames),
	}
}

func bestRecord(r search.Result) session.BestRecord {
	return session.BestRecord{
		ObjectiveValue: search.Float(r.ObjectiveValue),
		AvgScore:       search.Float(r.AvgScore),
		MaxScore:       r.MaxScore,
		AvgFrames:      search.Float(r.AvgFrames),
		Iteration:      r.Iteration,
		Candidate:      r.Candidate,
		Strategy:       r.Strategy,
	}
}
