// Package codextuner exposes the iterative profile tuner: propose candidate
// weight profiles, score each through the external autopilot benchmark, and
// steer future proposals toward higher-scoring regions.
package codextuner

import (
	"fmt"
	"path/filepath"
	"time"

	"codextuner/internal/bench"
	"codextuner/internal/profile"
	"codextuner/internal/search"
	"codextuner/internal/session"
	"codextuner/internal/storage"
)

const (
	defaultLabDirName = "codex-tuner"
	defaultDBPath     = "codextuner.db"
)

// Options configure a Client. Zero values resolve to the conventional layout
// under AutopilotRoot.
type Options struct {
	AutopilotRoot string
	LabRoot       string
	Binary        string
	StoreKind     string
	DBPath        string

	// Exec overrides the oracle process invoker; tests substitute a stub.
	Exec bench.ExecFunc
	// Active overrides the shared active-profile resource; tests substitute
	// an in-memory implementation.
	Active session.ActiveProfile
	// Now overrides the clock used for session identity.
	Now func() time.Time
}

// Client runs tuning sessions and reads their artifacts.
type Client struct {
	paths  session.Paths
	binary string
	store  storage.Store

	active session.ActiveProfile
	execFn bench.ExecFunc
	now    func() time.Time
}

func NewClient(opts Options) (*Client, error) {
	root := opts.AutopilotRoot
	if root == "" {
		root = "."
	}
	labRoot := opts.LabRoot
	if labRoot == "" {
		labRoot = filepath.Join(root, defaultLabDirName)
	}
	binary := opts.Binary
	if binary == "" {
		binary = filepath.Join(root, "target", "release", "rust-autopilot")
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	paths := session.Paths{AutopilotRoot: root, LabRoot: labRoot}
	active := opts.Active
	if active == nil {
		active = &session.FileActiveProfile{Path: paths.ActiveProfilePath()}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		paths:  paths,
		binary: binary,
		store:  store,
		active: active,
		execFn: opts.Exec,
		now:    now,
	}, nil
}

// Paths returns the resolved lab layout.
func (c *Client) Paths() session.Paths { return c.paths }

// Store returns the session index store.
func (c *Client) Store() storage.Store { return c.store }

// Close releases the session index store if its backend holds resources.
func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Install policies applied to the active profile at session end.
const (
	InstallChampion = "champion"
	InstallRestore  = "restore"
)

// TuneRequest carries the full session configuration.
type TuneRequest struct {
	Iterations       int
	Candidates       int
	MaxFrames        int
	Jobs             int
	Bot              string
	SeedsFile        string
	Seed             int64
	InitialStep      float64
	Decay            float64
	MinStep          float64
	InstallMode      string
	AnchorMode       string
	SelectionMetric  string
	StartProfile     string
	GenerationBudget int
}

// ApplyDefaults fills unset fields with the conventional tuning defaults.
func (r *TuneRequest) ApplyDefaults() {
	if r.Iterations == 0 {
		r.Iterations = 6
	}
	if r.Candidates == 0 {
		r.Candidates = 6
	}
	if r.MaxFrames == 0 {
		r.MaxFrames = 108000
	}
	if r.Jobs == 0 {
		r.Jobs = 8
	}
	if r.Bot == "" {
		r.Bot = "codex-potential-adaptive"
	}
	if r.SeedsFile == "" {
		r.SeedsFile = filepath.Join(defaultLabDirName, "seeds", "screen-seeds.txt")
	}
	if r.Seed == 0 {
		r.Seed = 424242
	}
	if r.InitialStep == 0 {
		r.InitialStep = 0.18
	}
	if r.Decay == 0 {
		r.Decay = 0.86
	}
	if r.MinStep == 0 {
		r.MinStep = 0.04
	}
	if r.InstallMode == "" {
		r.InstallMode = InstallChampion
	}
	if r.AnchorMode == "" {
		r.AnchorMode = string(session.AnchorModeCore)
	}
	if r.SelectionMetric == "" {
		r.SelectionMetric = string(search.MetricScore)
	}
}

func (r TuneRequest) validate() error {
	if r.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1")
	}
	if r.Candidates < 2 {
		return fmt.Errorf("candidates must be >= 2")
	}
	if r.MaxFrames < 1 {
		return fmt.Errorf("max frames must be >= 1")
	}
	if r.InstallMode != InstallChampion && r.InstallMode != InstallRestore {
		return fmt.Errorf("unknown install mode: %s", r.InstallMode)
	}
	return nil
}

// TuneSummary reports a completed session.
type TuneSummary struct {
	SessionID    string
	SessionDir   string
	ChampionPath string
	Best         search.Result
	BestProfile  profile.Profile
	Improvements int
}
