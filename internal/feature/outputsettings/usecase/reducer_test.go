package usecase_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laser_backend/internal/feature/outputsettings/domain"
	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/feature/outputsettings/usecase"
	"laser_backend/internal/platform/geom"
)

const tol = 1e-9

func toggle(c entity.Control, on bool) entity.Event {
	return entity.Event{Kind: entity.EventToggle, Control: c, On: on}
}

func mustReduce(t *testing.T, s entity.State, evs ...entity.Event) entity.State {
	t.Helper()
	for _, ev := range evs {
		var err error
		s, err = usecase.Reduce(s, ev)
		require.NoError(t, err, "event %s", ev.Kind)
	}
	return s
}

func unsafeState(t *testing.T) entity.State {
	t.Helper()
	return mustReduce(t, usecase.DefaultState(), entity.Event{Kind: entity.EventSetSafety, On: false, Confirmed: true})
}

func assertTransformNear(t *testing.T, want, got [3][3]float64) {
	t.Helper()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, want[r][c], got[r][c], tol, "element [%d][%d]", r, c)
		}
	}
}

func TestDefaultState(t *testing.T) {
	t.Parallel()

	s := usecase.DefaultState()
	cfg := s.Config

	assert.True(t, cfg.Safe)
	assert.Equal(t, entity.ScanEnableX|entity.ScanEnableY|entity.ScanInvertX, cfg.ScanFlags)
	assert.Equal(t, entity.BlankOutputEnable|entity.BlankEnable, cfg.BlankFlags)
	assert.InDelta(t, 1.0, cfg.Power, tol)
	assert.InDelta(t, 0.2, cfg.Offset, tol)
	assert.InDelta(t, 1.0, cfg.Size, tol)
	assert.Equal(t, 6, cfg.Delay)
	assert.Equal(t, entity.Aspect1x1, s.Aspect)
	assertTransformNear(t, geom.Identity().ColumnMajor(), cfg.Transform)
	assert.Equal(t, entity.DeviceCorners, s.ControlPoints())
	assert.Equal(t, entity.Controls{AxisToggles: false, OutputTest: false, FitSquare: true}, s.Controls())
}

// TestReduce_AxisTogglesOutsideSafeMode は非セーフモードでENABLE_X/Yのトグルがビットを設定・解除することを検証します。
func TestReduce_AxisTogglesOutsideSafeMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		control entity.Control
		flag    entity.ScanFlags
	}{
		{"x enable", entity.ControlXEnable, entity.ScanEnableX},
		{"y enable", entity.ControlYEnable, entity.ScanEnableY},
		{"x invert", entity.ControlXInvert, entity.ScanInvertX},
		{"y invert", entity.ControlYInvert, entity.ScanInvertY},
		{"xy swap", entity.ControlXYSwap, entity.ScanSwapXY},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := unsafeState(t)
			before := s.Config.ScanFlags

			off := mustReduce(t, s, toggle(tt.control, false))
			assert.False(t, off.Config.ScanFlags.Has(tt.flag))
			assert.Equal(t, before&^tt.flag, off.Config.ScanFlags, "other bits must be untouched")

			on := mustReduce(t, off, toggle(tt.control, true))
			assert.True(t, on.Config.ScanFlags.Has(tt.flag))
			assert.Equal(t, before|tt.flag, on.Config.ScanFlags)
		})
	}
}

func TestReduce_AxisTogglesLockedInSafeMode(t *testing.T) {
	t.Parallel()

	s := usecase.DefaultState()
	for _, c := range []entity.Control{entity.ControlXEnable, entity.ControlYEnable} {
		got, err := usecase.Reduce(s, toggle(c, false))
		assert.ErrorIs(t, err, domain.ErrControlDisabled)
		assert.Equal(t, s, got, "state must be unchanged on error")
	}
}

// TestReduce_EnablingSafeModeForcesAxes はセーフモード有効化で両軸ビットが必ず立ち、トグルがロックされることを検証します。
func TestReduce_EnablingSafeModeForcesAxes(t *testing.T) {
	t.Parallel()

	s := unsafeState(t)
	s = mustReduce(t, s, toggle(entity.ControlXEnable, false), toggle(entity.ControlYEnable, false))
	require.False(t, s.Config.ScanFlags.Has(entity.ScanEnableX))
	require.False(t, s.Config.ScanFlags.Has(entity.ScanEnableY))
	require.True(t, s.Controls().AxisToggles)

	s = mustReduce(t, s, entity.Event{Kind: entity.EventSetSafety, On: true})
	assert.True(t, s.Config.Safe)
	assert.True(t, s.Config.ScanFlags.Has(entity.ScanEnableX|entity.ScanEnableY))
	assert.False(t, s.Controls().AxisToggles)
}

func TestReduce_DisablingSafetyRequiresConfirmation(t *testing.T) {
	t.Parallel()

	s := usecase.DefaultState()

	got, err := usecase.Reduce(s, entity.Event{Kind: entity.EventSetSafety, On: false})
	assert.ErrorIs(t, err, domain.ErrSafetyConfirmationRequired)
	assert.True(t, got.Config.Safe)

	got, err = usecase.Reduce(s, entity.Event{Kind: entity.EventSetSafety, On: false, Confirmed: true})
	require.NoError(t, err)
	assert.False(t, got.Config.Safe)
	assert.True(t, got.Config.ScanFlags.Has(entity.ScanEnableX|entity.ScanEnableY), "disabling safety keeps the axes as they were")
}

func TestReduce_BlankFlags(t *testing.T) {
	t.Parallel()

	s := usecase.DefaultState()

	s = mustReduce(t, s, toggle(entity.ControlBlankingInvert, true))
	assert.True(t, s.Config.BlankFlags.Has(entity.BlankInvert))

	s = mustReduce(t, s, toggle(entity.ControlBlankingEnable, false))
	assert.False(t, s.Config.BlankFlags.Has(entity.BlankEnable))
	assert.True(t, s.Config.BlankFlags.Has(entity.BlankInvert|entity.BlankOutputEnable))

	s = mustReduce(t, s, toggle(entity.ControlOutputEnable, false))
	assert.Equal(t, entity.BlankInvert, s.Config.BlankFlags)
	assert.True(t, s.Controls().OutputTest)
}

func TestReduce_OutputTestPulse(t *testing.T) {
	t.Parallel()

	s := usecase.DefaultState()

	_, err := usecase.Reduce(s, entity.Event{Kind: entity.EventOutputTestPressed})
	assert.ErrorIs(t, err, domain.ErrControlDisabled, "test button is unavailable while output is enabled")

	s = mustReduce(t, s, toggle(entity.ControlOutputEnable, false))
	require.False(t, s.Config.BlankFlags.Has(entity.BlankOutputEnable))

	s = mustReduce(t, s, entity.Event{Kind: entity.EventOutputTestPressed})
	assert.True(t, s.Config.BlankFlags.Has(entity.BlankOutputEnable))

	s = mustReduce(t, s, entity.Event{Kind: entity.EventOutputTestReleased})
	assert.False(t, s.Config.BlankFlags.Has(entity.BlankOutputEnable))

	// enabling output while the button is held keeps output on after release
	s = mustReduce(t, s,
		entity.Event{Kind: entity.EventOutputTestPressed},
		toggle(entity.ControlOutputEnable, true),
		entity.Event{Kind: entity.EventOutputTestReleased},
	)
	assert.True(t, s.Config.BlankFlags.Has(entity.BlankOutputEnable))
}

func TestReduce_SetValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		slider  entity.Slider
		value   int
		wantErr error
		check   func(t *testing.T, cfg entity.Config)
	}{
		{"power", entity.SliderPower, 42, nil, func(t *testing.T, cfg entity.Config) { assert.InDelta(t, 0.42, cfg.Power, tol) }},
		{"size zero", entity.SliderSize, 0, nil, func(t *testing.T, cfg entity.Config) { assert.InDelta(t, 0, cfg.Size, tol) }},
		{"negative offset", entity.SliderOffset, -35, nil, func(t *testing.T, cfg entity.Config) { assert.InDelta(t, -0.35, cfg.Offset, tol) }},
		{"delay raw", entity.SliderDelay, 17, nil, func(t *testing.T, cfg entity.Config) { assert.Equal(t, 17, cfg.Delay) }},
		{"power too high", entity.SliderPower, 101, domain.ErrValueOutOfRange, nil},
		{"size negative", entity.SliderSize, -1, domain.ErrValueOutOfRange, nil},
		{"offset too low", entity.SliderOffset, -101, domain.ErrValueOutOfRange, nil},
		{"delay too high", entity.SliderDelay, 1000, domain.ErrValueOutOfRange, nil},
		{"unknown slider", entity.Slider(99), 1, domain.ErrUnknownEvent, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := usecase.DefaultState()
			got, err := usecase.Reduce(s, entity.Event{Kind: entity.EventSetValue, Slider: tt.slider, Value: tt.value})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, s, got)
				return
			}
			require.NoError(t, err)
			tt.check(t, got.Config)
		})
	}
}

func TestReduce_MovePoint(t *testing.T) {
	t.Parallel()

	s := usecase.DefaultState()
	target := geom.Point{X: 0.8, Y: -0.9}

	s = mustReduce(t, s, entity.Event{Kind: entity.EventMovePoint, Index: 1, Point: target})

	pts := s.ControlPoints()
	assert.InDelta(t, target.X, pts[1].X, tol)
	assert.InDelta(t, target.Y, pts[1].Y, tol)
	for _, i := range []int{0, 2, 3} {
		assert.InDelta(t, entity.DeviceCorners[i].X, pts[i].X, tol, "point %d moved", i)
		assert.InDelta(t, entity.DeviceCorners[i].Y, pts[i].Y, tol, "point %d moved", i)
	}

	// the published transform maps device corners onto the control points at 1:1
	for i, c := range entity.DeviceCorners {
		got := s.Config.MapPoint(c)
		assert.InDelta(t, pts[i].X, got.X, tol)
		assert.InDelta(t, pts[i].Y, got.Y, tol)
	}
}

func TestReduce_MovePointRejected(t *testing.T) {
	t.Parallel()

	s := usecase.DefaultState()

	tests := []struct {
		name    string
		ev      entity.Event
		wantErr error
	}{
		{"index too large", entity.Event{Kind: entity.EventMovePoint, Index: 4}, domain.ErrInvalidPoint},
		{"negative index", entity.Event{Kind: entity.EventMovePoint, Index: -1}, domain.ErrInvalidPoint},
		{"nan", entity.Event{Kind: entity.EventMovePoint, Index: 0, Point: geom.Point{X: math.NaN()}}, domain.ErrInvalidPoint},
		{"collapse onto neighbour", entity.Event{Kind: entity.EventMovePoint, Index: 0, Point: geom.Point{X: 1, Y: -1}}, domain.ErrDegenerateQuad},
		{"concave", entity.Event{Kind: entity.EventMovePoint, Index: 3, Point: geom.Point{X: -0.5, Y: -0.5}}, domain.ErrDegenerateQuad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := usecase.Reduce(s, tt.ev)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, s, got)
		})
	}
}

func TestReduce_SetQuadAndResetTransform(t *testing.T) {
	t.Parallel()

	quad := [4]geom.Point{{X: -0.9, Y: -0.8}, {X: 0.9, Y: -1}, {X: -1, Y: 0.9}, {X: 0.8, Y: 1}}
	s := mustReduce(t, usecase.DefaultState(), entity.Event{Kind: entity.EventSetQuad, Quad: quad})

	pts := s.ControlPoints()
	for i := range quad {
		assert.InDelta(t, quad[i].X, pts[i].X, tol)
		assert.InDelta(t, quad[i].Y, pts[i].Y, tol)
	}

	s = mustReduce(t, s, entity.Event{Kind: entity.EventResetTransform})
	assert.Equal(t, entity.DeviceCorners, s.ControlPoints())
}

// TestReduce_Aspect はアスペクト比変更時の制御点と出力変換の関係を検証します。
func TestReduce_Aspect(t *testing.T) {
	t.Parallel()

	s := mustReduce(t, usecase.DefaultState(),
		entity.Event{Kind: entity.EventSetAspect, Aspect: entity.Aspect4x3},
	)

	// control points are squashed to the aspect, output stays full range
	pts := s.ControlPoints()
	assert.InDelta(t, -0.75, pts[0].Y, tol)
	assert.InDelta(t, 0.75, pts[3].Y, tol)
	assertTransformNear(t, geom.Identity().ColumnMajor(), s.Config.Transform)

	// fit square keeps the aspect by shrinking x instead
	fit := mustReduce(t, s, toggle(entity.ControlFitSquare, true))
	assertTransformNear(t, geom.Scale(0.75, 0.75).ColumnMajor(), fit.Config.Transform)

	// aspect scaling passes the squashed quad straight through
	scaled := mustReduce(t, s, toggle(entity.ControlAspectScale, true))
	assertTransformNear(t, geom.Scale(1, 0.75).ColumnMajor(), scaled.Config.Transform)
	_, err := usecase.Reduce(scaled, toggle(entity.ControlFitSquare, true))
	assert.ErrorIs(t, err, domain.ErrControlDisabled)

	// switching aspect rescales relative to the previous ratio
	wide := mustReduce(t, s, entity.Event{Kind: entity.EventSetAspect, Aspect: entity.Aspect16x9})
	assert.InDelta(t, -9.0/16.0, wide.ControlPoints()[0].Y, tol)

	same := mustReduce(t, s, entity.Event{Kind: entity.EventSetAspect, Aspect: entity.Aspect4x3})
	assert.Equal(t, s, same, "selecting the current aspect is a no-op")

	_, err = usecase.Reduce(s, entity.Event{Kind: entity.EventSetAspect, Aspect: entity.AspectRatio(9)})
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}

func TestReduce_ResetDefaults(t *testing.T) {
	t.Parallel()

	s := unsafeState(t)
	s = mustReduce(t, s,
		toggle(entity.ControlFitSquare, true),
		toggle(entity.ControlXEnable, false),
		toggle(entity.ControlBlankingInvert, true),
		entity.Event{Kind: entity.EventSetValue, Slider: entity.SliderPower, Value: 10},
		entity.Event{Kind: entity.EventSetAspect, Aspect: entity.Aspect3x2},
		entity.Event{Kind: entity.EventMovePoint, Index: 0, Point: geom.Point{X: -0.5, Y: -0.5}},
	)

	s = mustReduce(t, s, entity.Event{Kind: entity.EventResetDefaults})

	want := usecase.DefaultState()
	assert.Equal(t, want.Config.ScanFlags, s.Config.ScanFlags)
	assert.Equal(t, want.Config.BlankFlags, s.Config.BlankFlags)
	assert.Equal(t, want.Sliders, s.Sliders)
	assert.True(t, s.Safe)
	assert.Equal(t, entity.Aspect1x1, s.Aspect)
	assert.Equal(t, entity.DeviceCorners, s.ControlPoints())
	assert.True(t, s.FitSquare, "fit square survives a reset")
}

func TestReduce_UnknownEvent(t *testing.T) {
	t.Parallel()

	s := usecase.DefaultState()

	_, err := usecase.Reduce(s, entity.Event{Kind: entity.EventKind(0)})
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)

	_, err = usecase.Reduce(s, toggle(entity.Control(42), true))
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}
