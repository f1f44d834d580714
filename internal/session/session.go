package session

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"codextuner/internal/profile"
	"codextuner/internal/search"
)

// Session is one tuning run's durable artifact tree under runs/<id>/.
type Session struct {
	ID  string
	Dir string
}

// New creates the session directory. The directory is create-once; an
// existing directory with the same id is an error.
func New(runsDir string, now time.Time) (*Session, error) {
	id := fmt.Sprintf("session-%s-%s", now.UTC().Format("20060102-150405"), uuid.New().String()[:8])
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return nil, err
	}
	dir := filepath.Join(runsDir, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, err
	}
	return &Session{ID: id, Dir: dir}, nil
}

// IterDir creates and returns the directory for a 1-based iteration.
func (s *Session) IterDir(iteration int) (string, error) {
	dir := filepath.Join(s.Dir, fmt.Sprintf("iter-%03d", iteration))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// CandDir creates and returns the per-candidate output directory.
func CandDir(iterDir string, candidate int) (string, error) {
	dir := filepath.Join(iterDir, fmt.Sprintf("cand-%02d", candidate))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// WriteBackup snapshots the pre-session active profile as the rollback point.
func (s *Session) WriteBackup(p profile.Profile) error {
	return profile.Write(filepath.Join(s.Dir, "backup-active-profile.json"), p)
}

// WriteChampion records the session's final champion profile.
func (s *Session) WriteChampion(p profile.Profile) error {
	return profile.Write(filepath.Join(s.Dir, "champion.json"), p)
}

// BestRecord echoes the best-ever candidate's metrics and position.
type BestRecord struct {
	ObjectiveValue search.Float `json:"objective_value"`
	AvgScore       search.Float `json:"avg_score"`
	MaxScore       int          `json:"max_score"`
	AvgFrames      search.Float `json:"avg_frames"`
	Iteration      int          `json:"iteration"`
	Candidate      int          `json:"candidate"`
	Strategy       string       `json:"strategy"`
}

// WinnerRecord is the per-iteration winner entry in the history log.
type WinnerRecord struct {
	Candidate      int          `json:"candidate"`
	Strategy       string       `json:"strategy"`
	ObjectiveValue search.Float `json:"objective_value"`
	AvgScore       search.Float `json:"avg_score"`
	MaxScore       int          `json:"max_score"`
	AvgFrames      search.Float `json:"avg_frames"`
}

// IterationRecord is one history entry, persisted before the loop advances.
type IterationRecord struct {
	Iteration       int          `json:"iteration"`
	BaseStep        float64      `json:"base_step"`
	SearchStep      float64      `json:"search_step"`
	Improved        bool         `json:"improved"`
	StagnationCount int          `json:"stagnation_count"`
	Winner          WinnerRecord `json:"winner"`
}

// Summary is the session's final record: configuration echo, best result,
// champion profile, and the complete iteration history.
type Summary struct {
	Session         string            `json:"session"`
	Bot             string            `json:"bot"`
	Iterations      int               `json:"iterations"`
	Candidates      int               `json:"candidates"`
	MaxFrames       int               `json:"max_frames"`
	Jobs            int               `json:"jobs"`
	SelectionMetric string            `json:"selection_metric"`
	AnchorMode      string            `json:"anchor_mode"`
	InstallMode     string            `json:"install_mode"`
	SeedsFile       string            `json:"seeds_file"`
	RandomSeed      int64             `json:"random_seed"`
	StartProfile    string            `json:"start_profile"`
	Best            BestRecord        `json:"best"`
	ChampionProfile profile.Profile   `json:"champion_profile"`
	History         []IterationRecord `json:"history"`
}

func (s *Session) SummaryPath() string {
	return filepath.Join(s.Dir, "summary.json")
}

func (s *Session) WriteSummary(summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(s.SummaryPath(), data, 0o644)
}

// ReadSummary loads a session summary from a session directory.
func ReadSummary(sessionDir string) (Summary, bool, error) {
	data, err := os.ReadFile(filepath.Join(sessionDir, "summary.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, false, nil
		}
		return Summary{}, false, err
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return Summary{}, false, err
	}
	return summary, true, nil
}

// WriteLeaderboard persists one iteration's ranked results as CSV.
func WriteLeaderboard(path string, ranked []search.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"iteration",
		"candidate",
		"strategy",
		"objective_value",
		"avg_score",
		"max_score",
		"avg_frames",
		"out_dir",
	}); err != nil {
		return err
	}
	for _, row := range ranked {
		record := []string{
			fmt.Sprintf("%d", row.Iteration),
			fmt.Sprintf("%d", row.Candidate),
			row.Strategy,
			formatMetric(row.ObjectiveValue),
			formatMetric(row.AvgScore),
			fmt.Sprintf("%d", row.MaxScore),
			formatMetric(row.AvgFrames),
			row.OutDir,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatMetric(value float64) string {
	if math.IsInf(value, -1) {
		return "-inf"
	}
	if math.IsInf(value, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.6f", value)
}

// WriteLatestPointer records the most recent session directory.
func WriteLatestPointer(paths Paths, sessionDir string) error {
	if err := os.MkdirAll(paths.RunsDir(), 0o755); err != nil {
		return err
	}
	return os.WriteFile(paths.LatestPointerPath(), []byte(sessionDir+"\n"), 0o644)
}

// ReadLatestPointer returns the most recent session directory, if any.
func ReadLatestPointer(paths Paths) (string, bool, error) {
	data, err := os.ReadFile(paths.LatestPointerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	dir := strings.TrimSpace(string(data))
	if dir == "" {
		return "", false, nil
	}
	return dir, true, nil
}
