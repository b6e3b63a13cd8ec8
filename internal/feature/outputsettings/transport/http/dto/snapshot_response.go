package dto

import (
	"time"

	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/platform/geom"
)

// ConfigRes is the engine configuration as returned to clients.
type ConfigRes struct {
	Transform  [3][3]float64 `json:"transform"`
	ScanFlags  uint32        `json:"scan_flags"`
	BlankFlags uint32        `json:"blank_flags"`
	Power      float64       `json:"power"`
	Offset     float64       `json:"offset"`
	Size       float64       `json:"size"`
	Delay      int           `json:"delay"`
	Safe       bool          `json:"safe"`
}

// ControlsRes reports which controls are currently usable.
type ControlsRes struct {
	AxisToggles bool `json:"axis_toggles"`
	OutputTest  bool `json:"output_test"`
	FitSquare   bool `json:"fit_square"`
}

// CheckedRes mirrors the operator's checkbox states.
type CheckedRes struct {
	XEnable        bool `json:"x_enable"`
	YEnable        bool `json:"y_enable"`
	XInvert        bool `json:"x_invert"`
	YInvert        bool `json:"y_invert"`
	XYSwap         bool `json:"xy_swap"`
	OutputEnable   bool `json:"output_enable"`
	BlankingEnable bool `json:"blanking_enable"`
	BlankingInvert bool `json:"blanking_invert"`
	AspectScale    bool `json:"aspect_scale"`
	FitSquare      bool `json:"fit_square"`
	TestHeld       bool `json:"test_held"`
}

// SlidersRes holds raw slider positions.
type SlidersRes struct {
	Power  int `json:"power"`
	Offset int `json:"offset"`
	Size   int `json:"size"`
	Delay  int `json:"delay"`
}

// SnapshotRes は設定スナップショットのレスポンスです。
type SnapshotRes struct {
	Profile   string        `json:"profile"`
	Version   uint64        `json:"version"`
	Config    ConfigRes     `json:"config"`
	Points    [4]geom.Point `json:"points"`
	Aspect    string        `json:"aspect"`
	Controls  ControlsRes   `json:"controls"`
	Checked   CheckedRes    `json:"checked"`
	Sliders   SlidersRes    `json:"sliders"`
	UpdatedAt string        `json:"updated_at"`
}

// FromSnapshot converts a domain snapshot into its response form.
func FromSnapshot(s entity.Snapshot) SnapshotRes {
	scan := s.Config.ScanFlags
	return SnapshotRes{
		Profile: s.Profile,
		Version: s.Version,
		Config: ConfigRes{
			Transform:  s.Config.Transform,
			ScanFlags:  uint32(scan),
			BlankFlags: uint32(s.Config.BlankFlags),
			Power:      s.Config.Power,
			Offset:     s.Config.Offset,
			Size:       s.Config.Size,
			Delay:      s.Config.Delay,
			Safe:       s.Config.Safe,
		},
		Points: s.Points,
		Aspect: s.Aspect.String(),
		Controls: ControlsRes{
			AxisToggles: s.Controls.AxisToggles,
			OutputTest:  s.Controls.OutputTest,
			FitSquare:   s.Controls.FitSquare,
		},
		Checked: CheckedRes{
			XEnable:        scan.Has(entity.ScanEnableX),
			YEnable:        scan.Has(entity.ScanEnableY),
			XInvert:        scan.Has(entity.ScanInvertX),
			YInvert:        scan.Has(entity.ScanInvertY),
			XYSwap:         scan.Has(entity.ScanSwapXY),
			OutputEnable:   s.Checked.OutputEnabled,
			BlankingEnable: s.Checked.BlankingEnabled,
			BlankingInvert: s.Checked.BlankingInverted,
			AspectScale:    s.Checked.AspectScale,
			FitSquare:      s.Checked.FitSquare,
			TestHeld:       s.Checked.TestHeld,
		},
		Sliders: SlidersRes{
			Power:  s.Sliders.Power,
			Offset: s.Sliders.Offset,
			Size:   s.Sliders.Size,
			Delay:  s.Sliders.Delay,
		},
		UpdatedAt: formatTime(s.UpdatedAt),
	}
}

// ProfileRes は保存済みプロファイルの概要です。
type ProfileRes struct {
	Name      string `json:"name"`
	Version   uint64 `json:"version"`
	UpdatedAt string `json:"updated_at"`
	Active    bool   `json:"active"`
}

// FromProfiles converts profile summaries and marks the active one.
func FromProfiles(list []entity.ProfileSummary, active string) []ProfileRes {
	out := make([]ProfileRes, 0, len(list))
	for _, p := range list {
		out = append(out, ProfileRes{
			Name:      p.Name,
			Version:   p.Version,
			UpdatedAt: formatTime(p.UpdatedAt),
			Active:    p.Name == active,
		})
	}
	return out
}

// EventRecordRes is one entry of the event history.
type EventRecordRes struct {
	Version    uint64         `json:"version"`
	Kind       string         `json:"kind"`
	Control    string         `json:"control,omitempty"`
	Slider     string         `json:"slider,omitempty"`
	On         bool           `json:"on,omitempty"`
	Value      *int           `json:"value,omitempty"`
	Index      *int           `json:"index,omitempty"`
	Point      *geom.Point    `json:"point,omitempty"`
	Quad       *[4]geom.Point `json:"quad,omitempty"`
	Aspect     string         `json:"aspect,omitempty"`
	OperatorID uint           `json:"operator_id"`
	CreatedAt  string         `json:"created_at"`
}

// FromEventRecords converts history records. Only the fields relevant to
// each event kind are filled.
func FromEventRecords(recs []entity.EventRecord) []EventRecordRes {
	out := make([]EventRecordRes, 0, len(recs))
	for _, r := range recs {
		ev := r.Event
		res := EventRecordRes{
			Version:    r.Version,
			Kind:       ev.Kind.String(),
			OperatorID: r.OperatorID,
			CreatedAt:  formatTime(r.CreatedAt),
		}
		switch ev.Kind {
		case entity.EventToggle:
			res.Control = ev.Control.String()
			res.On = ev.On
		case entity.EventSetValue:
			res.Slider = ev.Slider.String()
			v := ev.Value
			res.Value = &v
		case entity.EventMovePoint:
			i, p := ev.Index, ev.Point
			res.Index, res.Point = &i, &p
		case entity.EventSetQuad:
			q := ev.Quad
			res.Quad = &q
		case entity.EventSetAspect:
			res.Aspect = ev.Aspect.String()
		case entity.EventSetSafety:
			res.On = ev.On
		}
		out = append(out, res)
	}
	return out
}

// ErrorResponse はエラー時のレスポンスです。拒否されたイベントの場合は現在のスナップショットを含みます。
type ErrorResponse struct {
	Error    string       `json:"error"`
	Snapshot *SnapshotRes `json:"snapshot,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
