package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"laser_backend/internal/feature/outputsettings/domain"
	"laser_backend/internal/feature/outputsettings/domain/entity"
)

// SeedUsecase stores preset profiles. Presets are applied as regular events
// so that a replay of the event log reproduces them.
type SeedUsecase struct {
	profiles ProfileRepository
}

// NewSeedUsecase creates a SeedUsecase.
func NewSeedUsecase(profiles ProfileRepository) *SeedUsecase {
	return &SeedUsecase{profiles: profiles}
}

// PresetEvents returns the event sequence that turns any state into p.
func PresetEvents(p entity.Preset) []entity.Event {
	toggle := func(c entity.Control, on bool) entity.Event {
		return entity.Event{Kind: entity.EventToggle, Control: c, On: on}
	}
	value := func(s entity.Slider, v int) entity.Event {
		return entity.Event{Kind: entity.EventSetValue, Slider: s, Value: v}
	}

	evs := []entity.Event{
		{Kind: entity.EventResetDefaults},
		{Kind: entity.EventSetAspect, Aspect: p.Aspect},
		// fit_square is locked while aspect scaling is on
		toggle(entity.ControlFitSquare, p.FitSquare),
		toggle(entity.ControlAspectScale, p.AspectScale),
	}
	if !p.Safe {
		evs = append(evs,
			entity.Event{Kind: entity.EventSetSafety, On: false, Confirmed: true},
			toggle(entity.ControlXEnable, p.ScanFlags.Has(entity.ScanEnableX)),
			toggle(entity.ControlYEnable, p.ScanFlags.Has(entity.ScanEnableY)),
		)
	}
	evs = append(evs,
		toggle(entity.ControlXInvert, p.ScanFlags.Has(entity.ScanInvertX)),
		toggle(entity.ControlYInvert, p.ScanFlags.Has(entity.ScanInvertY)),
		toggle(entity.ControlXYSwap, p.ScanFlags.Has(entity.ScanSwapXY)),
		toggle(entity.ControlOutputEnable, p.OutputEnabled),
		toggle(entity.ControlBlankingEnable, p.BlankingEnabled),
		toggle(entity.ControlBlankingInvert, p.BlankingInverted),
		value(entity.SliderPower, p.Sliders.Power),
		value(entity.SliderOffset, p.Sliders.Offset),
		value(entity.SliderSize, p.Sliders.Size),
		value(entity.SliderDelay, p.Sliders.Delay),
	)
	if p.Points != nil {
		evs = append(evs, entity.Event{Kind: entity.EventSetQuad, Quad: *p.Points})
	}
	return evs
}

// Seed applies every preset. A preset that the reducer rejects is not
// stored; the error names the preset and the offending event.
func (s *SeedUsecase) Seed(ctx context.Context, presets []entity.Preset) error {
	for _, p := range presets {
		if err := s.seedOne(ctx, p); err != nil {
			return err
		}
		slog.Info("preset profile stored", "profile", p.Name)
	}
	return nil
}

func (s *SeedUsecase) seedOne(ctx context.Context, p entity.Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset without name")
	}

	st, sum, err := s.profiles.Find(ctx, p.Name)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		st = DefaultState()
	case err != nil:
		return fmt.Errorf("failed to load profile %q: %w", p.Name, err)
	}

	// 全イベントを先に検証し、1トランザクションで書き込む
	evs := PresetEvents(p)
	cur := Derive(st)
	for _, ev := range evs {
		next, err := Reduce(cur, ev)
		if err != nil {
			return fmt.Errorf("preset %q: %s: %w", p.Name, ev.Kind, err)
		}
		cur = next
	}

	now := time.Now()
	recs := make([]entity.EventRecord, len(evs))
	for i, ev := range evs {
		recs[i] = entity.EventRecord{Profile: p.Name, Version: sum.Version + uint64(i) + 1, Event: ev, CreatedAt: now}
	}
	if err := s.profiles.CommitAll(ctx, cur, recs); err != nil {
		return fmt.Errorf("failed to store preset %q: %w", p.Name, err)
	}
	return nil
}
