package status

import (
	"context"
	"time"
)

// Snapshot is the persisted outcome of a scene run.
type Snapshot struct {
	// Script is the path the scene was loaded from.
	Script string `json:"script"`

	// Scene is the script's name, if it has one.
	Scene string `json:"scene,omitempty"`

	// State is the current state when the run stopped.
	State string `json:"state"`

	// Finished is true when State is final and no steps were left.
	Finished bool `json:"finished"`

	Ticks   uint64        `json:"ticks"`
	Elapsed time.Duration `json:"elapsed_ns"`

	Vars       map[string]string `json:"vars,omitempty"`
	Transcript []string          `json:"transcript,omitempty"`

	// Error is the failure that stopped the run, if any.
	Error string `json:"error,omitempty"`

	SavedAt time.Time `json:"saved_at"`
}

// IsEmpty returns true if no snapshot has been recorded.
func (s Snapshot) IsEmpty() bool {
	return s.Script == "" && s.SavedAt.IsZero()
}

// Repository persists snapshots.
type Repository interface {
	// Load returns the last saved snapshot, or an empty one if none exists.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, snap Snapshot) error
}
