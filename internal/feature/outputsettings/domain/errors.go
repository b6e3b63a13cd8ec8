// Package domain defines domain-level errors for the output settings feature.
package domain

import "errors"

var (
	// ErrControlDisabled is returned when an event targets a control that is
	// currently locked, e.g. an axis toggle while safe mode is on.
	ErrControlDisabled = errors.New("control is disabled")

	// ErrSafetyConfirmationRequired is returned when safe mode is switched off
	// without an explicit confirmation.
	ErrSafetyConfirmationRequired = errors.New("disabling safety enforcement requires confirmation")

	// ErrDegenerateQuad indicates the control points do not span a usable quadrilateral.
	ErrDegenerateQuad = errors.New("control points form a degenerate quadrilateral")

	// ErrInvalidPoint indicates a bad control point index or non-finite coordinates.
	ErrInvalidPoint = errors.New("invalid control point")

	// ErrValueOutOfRange indicates a slider value outside its allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrUnknownEvent indicates an event kind, control, slider or aspect the reducer does not know.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrProfileNotFound indicates no stored profile has the requested name.
	ErrProfileNotFound = errors.New("profile not found")
)
