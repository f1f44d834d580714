package storage

import (
	"context"

	"codextuner/internal/profile"
	"codextuner/internal/session"
)

// SessionRecord is the indexed view of one completed tuning session.
type SessionRecord struct {
	SchemaVersion   int                `json:"schema_version"`
	ID              string             `json:"id"`
	CreatedAtUTC    string             `json:"created_at_utc"`
	SessionDir      string             `json:"session_dir"`
	Bot             string             `json:"bot"`
	Iterations      int                `json:"iterations"`
	Candidates      int                `json:"candidates"`
	MaxFrames       int                `json:"max_frames"`
	Jobs            int                `json:"jobs"`
	Seed            int64              `json:"seed"`
	SelectionMetric string             `json:"selection_metric"`
	AnchorMode      string             `json:"anchor_mode"`
	InstallMode     string             `json:"install_mode"`
	Best            session.BestRecord `json:"best"`
	Champion        profile.Profile    `json:"champion"`
}

// Store indexes completed sessions for listing and lookup.
type Store interface {
	Init(ctx context.Context) error
	SaveSession(ctx context.Context, record SessionRecord) error
	GetSession(ctx context.Context, id string) (SessionRecord, bool, error)
	ListSessions(ctx context.Context) ([]SessionRecord, error)
}
