package session

import (
	"os"
	"sync"

	"codextuner/internal/profile"
)

// ActiveProfile is the one piece of externally shared mutable state. The
// orchestrator snapshots it before a session and restores the snapshot on
// every terminal failure.
type ActiveProfile interface {
	// Get returns the current profile, or ok=false when none is installed.
	Get() (profile.Profile, bool, error)
	// Set overwrites the active profile wholesale.
	Set(p profile.Profile) error
}

// FileActiveProfile stores the active profile as a JSON file.
type FileActiveProfile struct {
	Path string
}

func (f *FileActiveProfile) Get() (profile.Profile, bool, error) {
	p, err := profile.Load(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return p, true, nil
}

func (f *FileActiveProfile) Set(p profile.Profile) error {
	return profile.Write(f.Path, profile.Normalize(p))
}

// MemoryActiveProfile is the in-memory substitute used by tests.
type MemoryActiveProfile struct {
	mu      sync.Mutex
	current profile.Profile
	ok      bool
}

func (m *MemoryActiveProfile) Get() (profile.Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok {
		return nil, false, nil
	}
	return m.current.Clone(), true, nil
}

func (m *MemoryActiveProfile) Set(p profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = profile.Normalize(p)
	m.ok = true
	return nil
}
