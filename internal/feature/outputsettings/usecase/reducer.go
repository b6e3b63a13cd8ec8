// Package usecase は出力キャリブレーション設定のビジネスロジックを実装します。
package usecase

import (
	"fmt"
	"math"

	"laser_backend/internal/feature/outputsettings/domain"
	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/platform/geom"
)

const (
	// DefaultPower などは reset_defaults で設定されるスライダー値です。
	DefaultPower  = 100
	DefaultOffset = 20
	DefaultSize   = 100
	DefaultDelay  = 6

	// スライダーの許容範囲
	MinPower  = 0
	MaxPower  = 100
	MinOffset = -100
	MaxOffset = 100
	MinSize   = 0
	MaxSize   = 100
	MinDelay  = 0
	MaxDelay  = 100
)

// deviceSquare is the device-space square in drawing order. Control points
// 0,1,3,2 correspond to its corners.
var deviceSquare = geom.Quad{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}

// DefaultState returns the factory settings.
func DefaultState() entity.State {
	return Derive(resetDefaults(entity.State{}))
}

// Reduce applies one event to s and returns the new state with its Config
// recomputed. On error the input state is returned unchanged.
func Reduce(s entity.State, ev entity.Event) (entity.State, error) {
	next, err := apply(s, ev)
	if err != nil {
		return s, err
	}
	return Derive(next), nil
}

// apply は各イベント種別ごとの状態遷移を行います。Config の再計算は Derive が担当します。
func apply(s entity.State, ev entity.Event) (entity.State, error) {
	switch ev.Kind {
	case entity.EventResetDefaults:
		return resetDefaults(s), nil

	case entity.EventResetTransform:
		s.Matrix = geom.Scale(1, s.Aspect.YRatio())
		return s, nil

	case entity.EventMovePoint:
		if ev.Index < 0 || ev.Index >= len(entity.DeviceCorners) {
			return s, fmt.Errorf("%w: index %d", domain.ErrInvalidPoint, ev.Index)
		}
		if !finite(ev.Point) {
			return s, fmt.Errorf("%w: non-finite coordinates", domain.ErrInvalidPoint)
		}
		pts := s.ControlPoints()
		pts[ev.Index] = ev.Point
		return withPoints(s, pts)

	case entity.EventSetQuad:
		for _, p := range ev.Quad {
			if !finite(p) {
				return s, fmt.Errorf("%w: non-finite coordinates", domain.ErrInvalidPoint)
			}
		}
		return withPoints(s, ev.Quad)

	case entity.EventSetAspect:
		if !ev.Aspect.Valid() {
			return s, fmt.Errorf("%w: aspect ratio %d", domain.ErrUnknownEvent, int(ev.Aspect))
		}
		if ev.Aspect == s.Aspect {
			return s, nil
		}
		s.Matrix = geom.Scale(1, ev.Aspect.YRatio()/s.Aspect.YRatio()).Mul(s.Matrix)
		s.Aspect = ev.Aspect
		return s, nil

	case entity.EventToggle:
		return toggle(s, ev.Control, ev.On)

	case entity.EventSetValue:
		return setValue(s, ev.Slider, ev.Value)

	case entity.EventSetSafety:
		if ev.On {
			s.Safe = true
			s.ScanFlags |= entity.ScanEnableX | entity.ScanEnableY
			return s, nil
		}
		if s.Safe && !ev.Confirmed {
			return s, domain.ErrSafetyConfirmationRequired
		}
		s.Safe = false
		return s, nil

	case entity.EventOutputTestPressed:
		if s.OutputEnabled {
			return s, fmt.Errorf("%w: output test while output is enabled", domain.ErrControlDisabled)
		}
		s.TestHeld = true
		return s, nil

	case entity.EventOutputTestReleased:
		s.TestHeld = false
		return s, nil
	}
	return s, fmt.Errorf("%w: kind %d", domain.ErrUnknownEvent, int(ev.Kind))
}

// resetDefaults は工場出荷時の設定に戻します。fit square の選択は保持されます。
func resetDefaults(s entity.State) entity.State {
	out := entity.State{
		Aspect:          entity.Aspect1x1,
		AspectScale:     false,
		FitSquare:       s.FitSquare,
		Safe:            true,
		ScanFlags:       entity.ScanEnableX | entity.ScanEnableY | entity.ScanInvertX,
		OutputEnabled:   true,
		BlankingEnabled: true,
		Sliders: entity.Sliders{
			Power:  DefaultPower,
			Offset: DefaultOffset,
			Size:   DefaultSize,
			Delay:  DefaultDelay,
		},
	}
	out.Matrix = geom.Scale(1, out.Aspect.YRatio())
	return out
}

func toggle(s entity.State, c entity.Control, on bool) (entity.State, error) {
	switch c {
	case entity.ControlXEnable, entity.ControlYEnable:
		if s.Safe {
			return s, fmt.Errorf("%w: %s is locked by safe mode", domain.ErrControlDisabled, c)
		}
		flag := entity.ScanEnableX
		if c == entity.ControlYEnable {
			flag = entity.ScanEnableY
		}
		s.ScanFlags = s.ScanFlags.With(flag, on)
	case entity.ControlXInvert:
		s.ScanFlags = s.ScanFlags.With(entity.ScanInvertX, on)
	case entity.ControlYInvert:
		s.ScanFlags = s.ScanFlags.With(entity.ScanInvertY, on)
	case entity.ControlXYSwap:
		s.ScanFlags = s.ScanFlags.With(entity.ScanSwapXY, on)
	case entity.ControlOutputEnable:
		s.OutputEnabled = on
		if on {
			// the test button is unavailable while output is enabled
			s.TestHeld = false
		}
	case entity.ControlBlankingEnable:
		s.BlankingEnabled = on
	case entity.ControlBlankingInvert:
		s.BlankingInverted = on
	case entity.ControlAspectScale:
		s.AspectScale = on
	case entity.ControlFitSquare:
		if s.AspectScale {
			return s, fmt.Errorf("%w: fit_square while aspect scaling is on", domain.ErrControlDisabled)
		}
		s.FitSquare = on
	default:
		return s, fmt.Errorf("%w: control %d", domain.ErrUnknownEvent, int(c))
	}
	return s, nil
}

func setValue(s entity.State, sl entity.Slider, v int) (entity.State, error) {
	inRange := func(lo, hi int) error {
		if v < lo || v > hi {
			return fmt.Errorf("%w: %s=%d not in [%d, %d]", domain.ErrValueOutOfRange, sl, v, lo, hi)
		}
		return nil
	}

	var err error
	switch sl {
	case entity.SliderPower:
		if err = inRange(MinPower, MaxPower); err == nil {
			s.Sliders.Power = v
		}
	case entity.SliderOffset:
		if err = inRange(MinOffset, MaxOffset); err == nil {
			s.Sliders.Offset = v
		}
	case entity.SliderSize:
		if err = inRange(MinSize, MaxSize); err == nil {
			s.Sliders.Size = v
		}
	case entity.SliderDelay:
		if err = inRange(MinDelay, MaxDelay); err == nil {
			s.Sliders.Delay = v
		}
	default:
		err = fmt.Errorf("%w: slider %d", domain.ErrUnknownEvent, int(sl))
	}
	return s, err
}

// withPoints solves the operator matrix from four control points. The quad
// must be convex: every device corner has to keep a positive weight.
func withPoints(s entity.State, pts [4]geom.Point) (entity.State, error) {
	dst := geom.Quad{pts[0], pts[1], pts[3], pts[2]}
	m, ok := geom.QuadToQuad(deviceSquare, dst)
	if !ok {
		return s, domain.ErrDegenerateQuad
	}
	for _, c := range deviceSquare {
		if m.W(c) <= 0 {
			return s, fmt.Errorf("%w: quadrilateral is not convex", domain.ErrDegenerateQuad)
		}
	}
	s.Matrix = m
	return s, nil
}

// Derive recomputes s.Config from the editor state.
func Derive(s entity.State) entity.State {
	if s.Safe {
		s.ScanFlags |= entity.ScanEnableX | entity.ScanEnableY
	}

	var blank entity.BlankFlags
	blank = blank.With(entity.BlankOutputEnable, s.OutputEnabled || s.TestHeld)
	blank = blank.With(entity.BlankEnable, s.BlankingEnabled)
	blank = blank.With(entity.BlankInvert, s.BlankingInverted)

	s.Config = entity.Config{
		Transform:  OutputTransform(s).ColumnMajor(),
		ScanFlags:  s.ScanFlags,
		BlankFlags: blank,
		Power:      float64(s.Sliders.Power) / 100.0,
		Offset:     float64(s.Sliders.Offset) / 100.0,
		Size:       float64(s.Sliders.Size) / 100.0,
		Delay:      s.Sliders.Delay,
		Safe:       s.Safe,
	}
	return s
}

// OutputTransform combines the aspect pre-scale with the operator matrix.
// Without aspect scaling the output either fits the short side into the
// square (fit square) or stretches the long side to full range.
func OutputTransform(s entity.State) geom.Transform {
	pre := geom.Identity()
	if !s.AspectScale {
		yr := s.Aspect.YRatio()
		if s.FitSquare {
			pre = geom.Scale(yr, 1)
		} else {
			pre = geom.Scale(1, 1/yr)
		}
	}
	return pre.Mul(s.Matrix).Normalized()
}

func finite(p geom.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
