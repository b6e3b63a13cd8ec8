package entity

import "strings"

// ScanFlags は偏向信号の軸ごとの有効・反転・入れ替えを表すビットフラグです。
type ScanFlags uint32

const (
	ScanEnableX ScanFlags = 1 << iota
	ScanEnableY
	ScanInvertX
	ScanInvertY
	ScanSwapXY
)

// Has reports whether every bit of f is set.
func (s ScanFlags) Has(f ScanFlags) bool { return s&f == f }

// With returns s with f set or cleared.
func (s ScanFlags) With(f ScanFlags, on bool) ScanFlags {
	if on {
		return s | f
	}
	return s &^ f
}

func (s ScanFlags) String() string {
	names := []string{}
	for _, n := range []struct {
		f    ScanFlags
		name string
	}{
		{ScanEnableX, "ENABLE_X"},
		{ScanEnableY, "ENABLE_Y"},
		{ScanInvertX, "INVERT_X"},
		{ScanInvertY, "INVERT_Y"},
		{ScanSwapXY, "SWAP_XY"},
	} {
		if s.Has(n.f) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// BlankFlags はレーザー出力の有効化とブランキング動作を表すビットフラグです。
type BlankFlags uint32

const (
	BlankOutputEnable BlankFlags = 1 << iota
	BlankEnable
	BlankInvert
)

// Has reports whether every bit of f is set.
func (b BlankFlags) Has(f BlankFlags) bool { return b&f == f }

// With returns b with f set or cleared.
func (b BlankFlags) With(f BlankFlags, on bool) BlankFlags {
	if on {
		return b | f
	}
	return b &^ f
}

func (b BlankFlags) String() string {
	names := []string{}
	for _, n := range []struct {
		f    BlankFlags
		name string
	}{
		{BlankOutputEnable, "OUTPUT_ENABLE"},
		{BlankEnable, "BLANK_ENABLE"},
		{BlankInvert, "BLANK_INVERT"},
	} {
		if b.Has(n.f) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}
