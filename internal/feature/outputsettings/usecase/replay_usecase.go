package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/shared/ratelimiter"
)

// ReplayUsecase rebuilds a profile from its event log.
type ReplayUsecase struct {
	profiles    ProfileRepository
	events      EventLog
	publisher   SnapshotPublisher
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewReplayUsecase creates a ReplayUsecase.
func NewReplayUsecase(profiles ProfileRepository, events EventLog, publisher SnapshotPublisher, rateLimiter ratelimiter.RateLimiterInterface) *ReplayUsecase {
	return &ReplayUsecase{profiles: profiles, events: events, publisher: publisher, rateLimiter: rateLimiter}
}

// Rebuild folds every recorded event of profile through Reduce starting from
// factory defaults, republishes each intermediate snapshot and stores the
// result. Events rejected by the reducer are logged and skipped, but the
// stored version is always the highest logged one.
func (r *ReplayUsecase) Rebuild(ctx context.Context, profile string) (entity.Snapshot, error) {
	recs, err := r.events.Since(ctx, profile, 0)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to read event log of %q: %w", profile, err)
	}

	st := DefaultState()
	var (
		version uint64
		updated time.Time
	)
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return SnapshotOf(profile, version, st, updated), err
		}
		// 棄却されたイベントも採番済みなので、保存するバージョンはログの最大値に合わせる
		version = rec.Version
		updated = rec.CreatedAt
		next, err := Reduce(st, rec.Event)
		if err != nil {
			// 1つのイベントが適用できなくても処理を止めずにログに出力し、次のイベントへ
			slog.Warn("skipping event during replay", "profile", profile, "version", rec.Version, "kind", rec.Event.Kind.String(), "error", err)
			continue
		}
		st = next
		snap := SnapshotOf(profile, version, st, updated)

		r.rateLimiter.WaitIfNeeded()
		if err := r.publisher.Publish(ctx, snap); err != nil {
			slog.Error("failed to publish replayed snapshot", "profile", profile, "version", version, "error", err)
		}
	}

	snap := SnapshotOf(profile, version, st, updated)
	if err := r.profiles.Save(ctx, profile, version, st); err != nil {
		return snap, fmt.Errorf("failed to save rebuilt profile %q: %w", profile, err)
	}
	slog.Info("profile rebuilt from event log", "profile", profile, "events", len(recs), "version", version)
	return snap, nil
}
