package entity

import "laser_backend/internal/platform/geom"

// Preset is a named profile definition imported from a preset file.
type Preset struct {
	Name             string
	Aspect           AspectRatio
	AspectScale      bool
	FitSquare        bool
	Safe             bool
	ScanFlags        ScanFlags
	OutputEnabled    bool
	BlankingEnabled  bool
	BlankingInverted bool
	Sliders          Sliders
	// Points are control points 0..3; nil keeps the default quad.
	Points *[4]geom.Point
}
