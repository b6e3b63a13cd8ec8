// Package entity defines the domain models for the output settings feature.
package entity

import "laser_backend/internal/platform/geom"

// Config is the record consumed by the output engine.
type Config struct {
	// Transform maps normalized [-1,1]^2 device space to output space.
	// Row 0 yields x, row 1 yields y and row 2 yields w.
	Transform  [3][3]float64
	ScanFlags  ScanFlags
	BlankFlags BlankFlags
	Power      float64 // 0..1
	Offset     float64 // -1..1
	Size       float64 // 0..1
	Delay      int     // hardware units
	Safe       bool
}

// MapPoint applies Transform to a device-space point.
func (c Config) MapPoint(p geom.Point) geom.Point {
	return geom.FromColumnMajor(c.Transform).Map(p)
}
