package entity

import (
	"time"

	"laser_backend/internal/platform/geom"
)

// Snapshot is a completed, versioned view of a profile. It is never mutated
// after publication.
type Snapshot struct {
	Profile  string
	Version  uint64
	Config   Config
	Points   [4]geom.Point
	Aspect   AspectRatio
	Controls Controls
	// Checked mirrors the checkbox states shown to the operator.
	Checked   Checked
	Sliders   Sliders
	UpdatedAt time.Time
}

// Checked holds checkbox states that are not recoverable from Config alone.
type Checked struct {
	AspectScale      bool
	FitSquare        bool
	OutputEnabled    bool
	BlankingEnabled  bool
	BlankingInverted bool
	TestHeld         bool
}

// ProfileSummary describes a stored profile.
type ProfileSummary struct {
	Name      string
	Version   uint64
	UpdatedAt time.Time
}

// EventRecord is one applied event in a profile's history.
type EventRecord struct {
	Profile    string
	Version    uint64
	Event      Event
	OperatorID uint
	CreatedAt  time.Time
}
