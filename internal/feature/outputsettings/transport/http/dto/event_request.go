// Package dto はoutputsettingsフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import (
	"errors"
	"fmt"

	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/platform/geom"
)

// ErrInvalidRequest はリクエストボディの名前解決に失敗した場合に返されます。
var ErrInvalidRequest = errors.New("invalid request")

// EventReq は POST /output/events のリクエストボディです。
// kind 以外のフィールドはイベント種別に応じて参照されます。
type EventReq struct {
	Kind    string       `json:"kind" binding:"required"`
	Control string       `json:"control,omitempty"`
	Slider  string       `json:"slider,omitempty"`
	On      bool         `json:"on"`
	Confirm bool         `json:"confirm"`
	Value   int          `json:"value"`
	Index   int          `json:"index"`
	Point   geom.Point   `json:"point"`
	Quad    []geom.Point `json:"quad,omitempty"`
	Aspect  string       `json:"aspect,omitempty"`
}

// ToEvent resolves wire names into a domain event.
func (r EventReq) ToEvent() (entity.Event, error) {
	kind, ok := entity.ParseEventKind(r.Kind)
	if !ok {
		return entity.Event{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}
	ev := entity.Event{
		Kind:      kind,
		On:        r.On,
		Confirmed: r.Confirm,
		Value:     r.Value,
		Index:     r.Index,
		Point:     r.Point,
	}

	switch kind {
	case entity.EventToggle:
		c, ok := entity.ParseControl(r.Control)
		if !ok {
			return entity.Event{}, fmt.Errorf("%w: unknown control %q", ErrInvalidRequest, r.Control)
		}
		ev.Control = c
	case entity.EventSetValue:
		s, ok := entity.ParseSlider(r.Slider)
		if !ok {
			return entity.Event{}, fmt.Errorf("%w: unknown slider %q", ErrInvalidRequest, r.Slider)
		}
		ev.Slider = s
	case entity.EventSetAspect:
		a, ok := entity.ParseAspectRatio(r.Aspect)
		if !ok {
			return entity.Event{}, fmt.Errorf("%w: unknown aspect %q", ErrInvalidRequest, r.Aspect)
		}
		ev.Aspect = a
	case entity.EventSetQuad:
		q, err := quadOf(r.Quad)
		if err != nil {
			return entity.Event{}, err
		}
		ev.Quad = q
	}
	return ev, nil
}

func quadOf(pts []geom.Point) ([4]geom.Point, error) {
	var q [4]geom.Point
	if len(pts) != len(q) {
		return q, fmt.Errorf("%w: quad needs 4 points, got %d", ErrInvalidRequest, len(pts))
	}
	copy(q[:], pts)
	return q, nil
}

// PointReq は PUT /output/points/:index のリクエストボディです。
type PointReq struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

// QuadReq は PUT /output/points のリクエストボディです。
type QuadReq struct {
	Points []geom.Point `json:"points" binding:"required,len=4"`
}

// ToEvent converts the request into a set_quad event.
func (r QuadReq) ToEvent() (entity.Event, error) {
	q, err := quadOf(r.Points)
	if err != nil {
		return entity.Event{}, err
	}
	return entity.Event{Kind: entity.EventSetQuad, Quad: q}, nil
}

// AspectReq は PUT /output/aspect のリクエストボディです。
type AspectReq struct {
	Aspect string `json:"aspect" binding:"required"`
}

// SafetyReq は POST /output/safety のリクエストボディです。
// セーフモードの解除には confirm=true が必要です。
type SafetyReq struct {
	On      *bool `json:"on" binding:"required"`
	Confirm bool  `json:"confirm"`
}

// ToggleReq は PUT /output/controls/:control のリクエストボディです。
type ToggleReq struct {
	On *bool `json:"on" binding:"required"`
}

// ValueReq は PUT /output/values/:slider のリクエストボディです。
type ValueReq struct {
	Value *int `json:"value" binding:"required"`
}
