// Package session owns the durable artifacts of a tuning session: the run
// directory tree, leaderboards, summaries, the latest-session pointer, and
// the shared active-profile resource with its rollback snapshot.
package session

import "path/filepath"

// Paths resolves the fixed locations the tuner works against. LabRoot holds
// profiles and runs; AutopilotRoot holds the externally shared active profile
// read by the agent.
type Paths struct {
	AutopilotRoot string
	LabRoot       string
}

func (p Paths) ProfilesDir() string {
	return filepath.Join(p.LabRoot, "profiles")
}

func (p Paths) BaseProfilePath() string {
	return filepath.Join(p.ProfilesDir(), "base.json")
}

func (p Paths) ChampionProfilePath() string {
	return filepath.Join(p.ProfilesDir(), "champion.json")
}

func (p Paths) RunsDir() string {
	return filepath.Join(p.LabRoot, "runs")
}

func (p Paths) LatestPointerPath() string {
	return filepath.Join(p.RunsDir(), "latest-session.txt")
}

func (p Paths) ActiveProfilePath() string {
	return filepath.Join(p.AutopilotRoot, "state", "adaptive-profile.json")
}
