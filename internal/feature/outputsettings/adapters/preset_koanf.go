package adapters

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/feature/outputsettings/usecase"
	"laser_backend/internal/platform/geom"
)

// presetFile is the YAML layout of a preset file. Omitted fields take the
// factory default.
type presetFile struct {
	Presets []presetEntry `koanf:"presets"`
}

type presetEntry struct {
	Name           string       `koanf:"name"`
	Aspect         string       `koanf:"aspect"`
	AspectScale    bool         `koanf:"aspect_scale"`
	FitSquare      bool         `koanf:"fit_square"`
	Safe           *bool        `koanf:"safe"`
	Scan           scanEntry    `koanf:"scan"`
	OutputEnable   *bool        `koanf:"output_enable"`
	BlankingEnable *bool        `koanf:"blanking_enable"`
	BlankingInvert bool         `koanf:"blanking_invert"`
	Sliders        sliderEntry  `koanf:"sliders"`
	Points         []pointEntry `koanf:"points"`
}

type scanEntry struct {
	XEnable *bool `koanf:"x_enable"`
	YEnable *bool `koanf:"y_enable"`
	XInvert *bool `koanf:"x_invert"`
	YInvert bool  `koanf:"y_invert"`
	XYSwap  bool  `koanf:"xy_swap"`
}

type sliderEntry struct {
	Power  *int `koanf:"power"`
	Offset *int `koanf:"offset"`
	Size   *int `koanf:"size"`
	Delay  *int `koanf:"delay"`
}

type pointEntry struct {
	X float64 `koanf:"x"`
	Y float64 `koanf:"y"`
}

// LoadPresets reads preset profiles from a YAML file.
func LoadPresets(path string) ([]entity.Preset, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read preset file %s: %w", path, err)
	}

	var f presetFile
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("failed to parse preset file %s: %w", path, err)
	}

	out := make([]entity.Preset, 0, len(f.Presets))
	for i, e := range f.Presets {
		p, err := e.toPreset()
		if err != nil {
			return nil, fmt.Errorf("preset #%d (%q): %w", i+1, e.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (e presetEntry) toPreset() (entity.Preset, error) {
	def := usecase.DefaultState()

	aspect := def.Aspect
	if e.Aspect != "" {
		a, ok := entity.ParseAspectRatio(e.Aspect)
		if !ok {
			return entity.Preset{}, fmt.Errorf("unknown aspect %q", e.Aspect)
		}
		aspect = a
	}

	scan := entity.ScanFlags(0).
		With(entity.ScanEnableX, orDefault(e.Scan.XEnable, def.ScanFlags.Has(entity.ScanEnableX))).
		With(entity.ScanEnableY, orDefault(e.Scan.YEnable, def.ScanFlags.Has(entity.ScanEnableY))).
		With(entity.ScanInvertX, orDefault(e.Scan.XInvert, def.ScanFlags.Has(entity.ScanInvertX))).
		With(entity.ScanInvertY, e.Scan.YInvert).
		With(entity.ScanSwapXY, e.Scan.XYSwap)

	p := entity.Preset{
		Name:             e.Name,
		Aspect:           aspect,
		AspectScale:      e.AspectScale,
		FitSquare:        e.FitSquare,
		Safe:             orDefault(e.Safe, def.Safe),
		ScanFlags:        scan,
		OutputEnabled:    orDefault(e.OutputEnable, def.OutputEnabled),
		BlankingEnabled:  orDefault(e.BlankingEnable, def.BlankingEnabled),
		BlankingInverted: e.BlankingInvert,
		Sliders: entity.Sliders{
			Power:  orDefault(e.Sliders.Power, def.Sliders.Power),
			Offset: orDefault(e.Sliders.Offset, def.Sliders.Offset),
			Size:   orDefault(e.Sliders.Size, def.Sliders.Size),
			Delay:  orDefault(e.Sliders.Delay, def.Sliders.Delay),
		},
	}

	switch len(e.Points) {
	case 0:
	case 4:
		var pts [4]geom.Point
		for i, pt := range e.Points {
			pts[i] = geom.Point{X: pt.X, Y: pt.Y}
		}
		p.Points = &pts
	default:
		return entity.Preset{}, fmt.Errorf("points: want 4, got %d", len(e.Points))
	}
	return p, nil
}

func orDefault[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
