package main

import (
	"encoding/json"
	"fmt"
	"os"

	"codextuner/pkg/codextuner"
)

// tuneConfig mirrors TuneRequest with pointer fields so absent keys leave the
// flag defaults untouched.
type tuneConfig struct {
	Iterations      *int     `json:"iterations"`
	Candidates      *int     `json:"candidates"`
	MaxFrames       *int     `json:"max_frames"`
	Jobs            *int     `json:"jobs"`
	Bot             *string  `json:"bot"`
	SeedsFile       *string  `json:"seeds_file"`
	Seed            *int64   `json:"random_seed"`
	InitialStep     *float64 `json:"initial_step"`
	Decay           *float64 `json:"decay"`
	MinStep         *float64 `json:"min_step"`
	InstallMode     *string  `json:"install_mode"`
	AnchorMode      *string  `json:"anchor_mode"`
	SelectionMetric *string  `json:"selection_metric"`
	StartProfile    *string  `json:"start_profile"`
}

func loadTuneConfig(path string) (tuneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tuneConfig{}, err
	}
	var cfg tuneConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return tuneConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyTuneConfig overlays config values onto req for every field the user
// did not set explicitly on the command line.
func applyTuneConfig(req *codextuner.TuneRequest, cfg tuneConfig, setFlags map[string]bool) {
	if cfg.Iterations != nil && !setFlags["iterations"] {
		req.Iterations = *cfg.Iterations
	}
	if cfg.Candidates != nil && !setFlags["candidates"] {
		req.Candidates = *cfg.Candidates
	}
	if cfg.MaxFrames != nil && !setFlags["max-frames"] {
		req.MaxFrames = *cfg.MaxFrames
	}
	if cfg.Jobs != nil && !setFlags["jobs"] {
		req.Jobs = *cfg.Jobs
	}
	if cfg.Bot != nil && !setFlags["bot"] {
		req.Bot = *cfg.Bot
	}
	if cfg.SeedsFile != nil && !setFlags["seeds-file"] {
		req.SeedsFile = *cfg.SeedsFile
	}
	if cfg.Seed != nil && !setFlags["random-seed"] {
		req.Seed = *cfg.Seed
	}
	if cfg.InitialStep != nil && !setFlags["initial-step"] {
		req.InitialStep = *cfg.InitialStep
	}
	if cfg.Decay != nil && !setFlags["decay"] {
		req.Decay = *cfg.Decay
	}
	if cfg.MinStep != nil && !setFlags["min-step"] {
		req.MinStep = *cfg.MinStep
	}
	if cfg.InstallMode != nil && !setFlags["install-mode"] {
		req.InstallMode = *cfg.InstallMode
	}
	if cfg.AnchorMode != nil && !setFlags["anchor-mode"] {
		req.AnchorMode = *cfg.AnchorMode
	}
	if cfg.SelectionMetric != nil && !setFlags["selection-metric"] {
		req.SelectionMetric = *cfg.SelectionMetric
	}
	if cfg.StartProfile != nil && !setFlags["start-profile"] {
		req.StartProfile = *cfg.StartProfile
	}
}
