package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"codextuner/internal/profile"
	"codextuner/internal/session"
	"codextuner/internal/storage"
	"codextuner/pkg/codextuner"
)

func runSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "session index backend: memory|sqlite")
	dbPath := fs.String("db-path", "codextuner.db", "sqlite database path")
	limit := fs.Int("limit", 0, "max sessions to list (0 = all)")
	jsonOut := fs.Bool("json", false, "emit sessions as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	records, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if *limit > 0 && len(records) > *limit {
		records = records[:*limit]
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	for _, record := range records {
		fmt.Printf("session=%s created=%s bot=%s metric=%s iterations=%d candidates=%d best_objective=%.6f best_avg_score=%.6f best_max_score=%d\n",
			record.ID,
			record.CreatedAtUTC,
			record.Bot,
			record.SelectionMetric,
			record.Iterations,
			record.Candidates,
			float64(record.Best.ObjectiveValue),
			float64(record.Best.AvgScore),
			record.Best.MaxScore,
		)
	}
	return nil
}

func runSession(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	dir := fs.String("dir", "", "session directory")
	latest := fs.Bool("latest", false, "show the most recent session")
	autopilotRoot := fs.String("autopilot-root", ".", "autopilot repository root")
	labRoot := fs.String("lab-root", "", "lab directory (default <autopilot-root>/codex-tuner)")
	jsonOut := fs.Bool("json", false, "emit session summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*dir)
	useDir := target != ""
	if useDir == *latest {
		return errors.New("session requires exactly one of --dir or --latest")
	}
	if *latest {
		paths, err := resolvePaths(*autopilotRoot, *labRoot)
		if err != nil {
			return err
		}
		pointer, ok, err := session.ReadLatestPointer(paths)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no sessions recorded yet")
		}
		target = pointer
	}

	summary, ok, err := session.ReadSummary(target)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session summary not found in %s", target)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Printf("session=%s bot=%s metric=%s iterations=%d candidates=%d install=%s best_objective=%.6f best_avg_score=%.6f best_max_score=%d best_strategy=%s\n",
		summary.Session,
		summary.Bot,
		summary.SelectionMetric,
		summary.Iterations,
		summary.Candidates,
		summary.InstallMode,
		float64(summary.Best.ObjectiveValue),
		float64(summary.Best.AvgScore),
		summary.Best.MaxScore,
		summary.Best.Strategy,
	)
	for _, record := range summary.History {
		fmt.Printf("iter=%03d improved=%t stagnation=%d winner=cand-%02d (%s) objective=%.6f avg_score=%.6f\n",
			record.Iteration,
			record.Improved,
			record.StagnationCount,
			record.Winner.Candidate,
			record.Winner.Strategy,
			float64(record.Winner.ObjectiveValue),
			float64(record.Winner.AvgScore),
		)
	}
	return nil
}

func runProfile(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	which := fs.String("which", "active", "profile to show: active|base|champion")
	path := fs.String("path", "", "explicit profile JSON path (overrides --which)")
	autopilotRoot := fs.String("autopilot-root", ".", "autopilot repository root")
	labRoot := fs.String("lab-root", "", "lab directory (default <autopilot-root>/codex-tuner)")
	jsonOut := fs.Bool("json", false, "emit profile as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*path)
	if target == "" {
		paths, err := resolvePaths(*autopilotRoot, *labRoot)
		if err != nil {
			return err
		}
		switch *which {
		case "active":
			target = paths.ActiveProfilePath()
		case "base":
			target = paths.BaseProfilePath()
		case "champion":
			target = paths.ChampionProfilePath()
		default:
			return fmt.Errorf("unknown profile selector: %s", *which)
		}
	}

	p, err := profile.Load(target)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	for _, key := range profile.Keys() {
		fmt.Printf("%s=%.6f\n", key, p[key])
	}
	return nil
}

func runLatest(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("latest", flag.ContinueOnError)
	autopilotRoot := fs.String("autopilot-root", ".", "autopilot repository root")
	labRoot := fs.String("lab-root", "", "lab directory (default <autopilot-root>/codex-tuner)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths, err := resolvePaths(*autopilotRoot, *labRoot)
	if err != nil {
		return err
	}
	pointer, ok, err := session.ReadLatestPointer(paths)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no sessions recorded yet")
	}
	fmt.Println(pointer)
	return nil
}

func resolvePaths(autopilotRoot, labRoot string) (session.Paths, error) {
	client, err := codextuner.NewClient(codextuner.Options{
		AutopilotRoot: autopilotRoot,
		LabRoot:       labRoot,
	})
	if err != nil {
		return session.Paths{}, err
	}
	return client.Paths(), nil
}
