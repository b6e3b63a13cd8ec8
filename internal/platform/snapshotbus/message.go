package snapshotbus

import (
	"time"

	"laser_backend/internal/feature/outputsettings/domain/entity"
)

// Message is the wire form of a snapshot as read by the output engine.
type Message struct {
	Profile    string        `json:"profile"`
	Version    uint64        `json:"version"`
	Transform  [3][3]float64 `json:"transform"`
	ScanFlags  uint32        `json:"scan_flags"`
	BlankFlags uint32        `json:"blank_flags"`
	Power      float64       `json:"power"`
	Offset     float64       `json:"offset"`
	Size       float64       `json:"size"`
	Delay      int           `json:"delay"`
	Safe       bool          `json:"safe"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// FromSnapshot converts a snapshot into its wire form.
func FromSnapshot(s entity.Snapshot) Message {
	return Message{
		Profile:    s.Profile,
		Version:    s.Version,
		Transform:  s.Config.Transform,
		ScanFlags:  uint32(s.Config.ScanFlags),
		BlankFlags: uint32(s.Config.BlankFlags),
		Power:      s.Config.Power,
		Offset:     s.Config.Offset,
		Size:       s.Config.Size,
		Delay:      s.Config.Delay,
		Safe:       s.Config.Safe,
		UpdatedAt:  s.UpdatedAt,
	}
}

// Config returns the configuration record carried by m.
func (m Message) Config() entity.Config {
	return entity.Config{
		Transform:  m.Transform,
		ScanFlags:  entity.ScanFlags(m.ScanFlags),
		BlankFlags: entity.BlankFlags(m.BlankFlags),
		Power:      m.Power,
		Offset:     m.Offset,
		Size:       m.Size,
		Delay:      m.Delay,
		Safe:       m.Safe,
	}
}
