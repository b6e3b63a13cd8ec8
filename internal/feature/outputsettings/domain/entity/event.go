package entity

import "laser_backend/internal/platform/geom"

// EventKind enumerates the operator actions understood by the reducer.
type EventKind int

const (
	EventResetDefaults EventKind = iota + 1
	EventResetTransform
	EventMovePoint
	EventSetQuad
	EventSetAspect
	EventToggle
	EventSetValue
	EventSetSafety
	EventOutputTestPressed
	EventOutputTestReleased
)

var eventKindNames = map[EventKind]string{
	EventResetDefaults:      "reset_defaults",
	EventResetTransform:     "reset_transform",
	EventMovePoint:          "move_point",
	EventSetQuad:            "set_quad",
	EventSetAspect:          "set_aspect",
	EventToggle:             "toggle",
	EventSetValue:           "set_value",
	EventSetSafety:          "set_safety",
	EventOutputTestPressed:  "output_test_pressed",
	EventOutputTestReleased: "output_test_released",
}

func (k EventKind) String() string {
	if n, ok := eventKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseEventKind maps a wire name to an EventKind.
func ParseEventKind(s string) (EventKind, bool) {
	for k, n := range eventKindNames {
		if n == s {
			return k, true
		}
	}
	return 0, false
}

// Control identifies a checkbox-style setting.
type Control int

const (
	ControlXEnable Control = iota + 1
	ControlYEnable
	ControlXInvert
	ControlYInvert
	ControlXYSwap
	ControlOutputEnable
	ControlBlankingEnable
	ControlBlankingInvert
	ControlAspectScale
	ControlFitSquare
)

var controlNames = map[Control]string{
	ControlXEnable:        "x_enable",
	ControlYEnable:        "y_enable",
	ControlXInvert:        "x_invert",
	ControlYInvert:        "y_invert",
	ControlXYSwap:         "xy_swap",
	ControlOutputEnable:   "output_enable",
	ControlBlankingEnable: "blanking_enable",
	ControlBlankingInvert: "blanking_invert",
	ControlAspectScale:    "aspect_scale",
	ControlFitSquare:      "fit_square",
}

func (c Control) String() string {
	if n, ok := controlNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseControl maps a wire name to a Control.
func ParseControl(s string) (Control, bool) {
	for c, n := range controlNames {
		if n == s {
			return c, true
		}
	}
	return 0, false
}

// Slider identifies a numeric setting.
type Slider int

const (
	SliderPower Slider = iota + 1
	SliderOffset
	SliderSize
	SliderDelay
)

var sliderNames = map[Slider]string{
	SliderPower:  "power",
	SliderOffset: "offset",
	SliderSize:   "size",
	SliderDelay:  "delay",
}

func (s Slider) String() string {
	if n, ok := sliderNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseSlider maps a wire name to a Slider.
func ParseSlider(s string) (Slider, bool) {
	for sl, n := range sliderNames {
		if n == s {
			return sl, true
		}
	}
	return 0, false
}

// Event is one discrete operator action. Only the fields relevant to Kind
// are read.
type Event struct {
	Kind      EventKind
	Control   Control `json:",omitempty"`
	Slider    Slider  `json:",omitempty"`
	On        bool    `json:",omitempty"`
	Confirmed bool    `json:",omitempty"`
	Value     int     `json:",omitempty"`
	Index     int     `json:",omitempty"`
	Point     geom.Point
	Quad      [4]geom.Point
	Aspect    AspectRatio `json:",omitempty"`
}
