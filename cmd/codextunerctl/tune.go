package main

import (
	"context"
	"flag"

	"codextuner/internal/storage"
	"codextuner/pkg/codextuner"
)

func runTune(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tune", flag.ContinueOnError)
	iterations := fs.Int("iterations", 6, "tuning iterations")
	candidates := fs.Int("candidates", 6, "candidates per iteration")
	maxFrames := fs.Int("max-frames", 108000, "frame budget per benchmark run")
	jobs := fs.Int("jobs", 8, "parallel benchmark jobs (delegated to the benchmark binary)")
	bot := fs.String("bot", "codex-potential-adaptive", "target bot identity")
	seedsFile := fs.String("seeds-file", "codex-tuner/seeds/screen-seeds.txt", "workload seed file")
	randomSeed := fs.Int64("random-seed", 424242, "pseudorandom seed")
	initialStep := fs.Float64("initial-step", 0.18, "initial mutation step size")
	decay := fs.Float64("decay", 0.86, "per-iteration step decay factor")
	minStep := fs.Float64("min-step", 0.04, "minimum step size")
	installMode := fs.String("install-mode", codextuner.InstallChampion,
		"champion=install session best into active profile, restore=restore previous active profile")
	startProfile := fs.String("start-profile", "", "optional profile JSON path to use as the initial incumbent")
	anchorMode := fs.String("anchor-mode", "core", "core=base/champion anchors, all=core + archived champion-* profiles")
	selectionMetric := fs.String("selection-metric", "score",
		"how to rank candidates: objective=balanced, score=avg score first, insane=max score first")
	configPath := fs.String("config", "", "optional JSON config file; explicit flags override it")
	autopilotRoot := fs.String("autopilot-root", ".", "autopilot repository root")
	labRoot := fs.String("lab-root", "", "lab directory (default <autopilot-root>/codex-tuner)")
	binary := fs.String("binary", "", "benchmark binary (default <autopilot-root>/target/release/rust-autopilot)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "session index backend: memory|sqlite")
	dbPath := fs.String("db-path", "codextuner.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := codextuner.TuneRequest{
		Iterations:      *iterations,
		Candidates:      *candidates,
		MaxFrames:       *maxFrames,
		Jobs:            *jobs,
		Bot:             *bot,
		SeedsFile:       *seedsFile,
		Seed:            *randomSeed,
		InitialStep:     *initialStep,
		Decay:           *decay,
		MinStep:         *minStep,
		InstallMode:     *installMode,
		AnchorMode:      *anchorMode,
		SelectionMetric: *selectionMetric,
		StartProfile:    *startProfile,
	}
	if *configPath != "" {
		cfg, err := loadTuneConfig(*configPath)
		if err != nil {
			return err
		}
		setFlags := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) {
			setFlags[f.Name] = true
		})
		applyTuneConfig(&req, cfg, setFlags)
	}

	client, err := codextuner.NewClient(codextuner.Options{
		AutopilotRoot: *autopilotRoot,
		LabRoot:       *labRoot,
		Binary:        *binary,
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	_, err = client.Tune(ctx, req)
	return err
}
