package entity

import "laser_backend/internal/platform/geom"

// Sliders holds raw control values as entered by the operator.
type Sliders struct {
	Power  int // 0..100
	Offset int // -100..100
	Size   int // 0..100
	Delay  int // 0..100
}

// State is the complete editor state of one output profile.
// Config is derived from the other fields after every change.
type State struct {
	// Matrix is the operator's quad transform in aspect space.
	Matrix           geom.Transform
	Aspect           AspectRatio
	AspectScale      bool
	FitSquare        bool
	Safe             bool
	ScanFlags        ScanFlags
	OutputEnabled    bool
	BlankingEnabled  bool
	BlankingInverted bool
	TestHeld         bool
	Sliders          Sliders
	Config           Config
}

// DeviceCorners are the device-space corners behind control points 0..3.
var DeviceCorners = [4]geom.Point{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: 1}}

// ControlPoints returns the four on-screen control points.
func (s State) ControlPoints() [4]geom.Point {
	var pts [4]geom.Point
	for i, c := range DeviceCorners {
		pts[i] = s.Matrix.Map(c)
	}
	return pts
}

// Controls reports which toggles the operator may currently use.
type Controls struct {
	AxisToggles bool // x/y enable
	OutputTest  bool
	FitSquare   bool
}

// Controls derives control availability from the state.
func (s State) Controls() Controls {
	return Controls{
		AxisToggles: !s.Safe,
		OutputTest:  !s.OutputEnabled,
		FitSquare:   !s.AspectScale,
	}
}
