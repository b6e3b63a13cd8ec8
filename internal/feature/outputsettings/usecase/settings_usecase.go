package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"laser_backend/internal/feature/outputsettings/domain"
	"laser_backend/internal/feature/outputsettings/domain/entity"
)

const (
	// DefaultHistoryLimit はイベント履歴のデフォルト返却件数です。
	DefaultHistoryLimit = 50
	// MaxHistoryLimit はイベント履歴の最大返却件数です。
	MaxHistoryLimit = 500
)

// ProfileRepository abstracts persistence of output profiles and their event log.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type ProfileRepository interface {
	// Find returns the stored state of a profile or domain.ErrProfileNotFound.
	Find(ctx context.Context, name string) (entity.State, entity.ProfileSummary, error)
	// Save upserts a profile without touching the event log.
	Save(ctx context.Context, name string, version uint64, st entity.State) error
	// Commit atomically stores the new state and appends the event that produced it.
	Commit(ctx context.Context, st entity.State, rec entity.EventRecord) error
	// CommitAll atomically stores the final state and appends all events.
	CommitAll(ctx context.Context, st entity.State, recs []entity.EventRecord) error
	// List returns all stored profiles ordered by name.
	List(ctx context.Context) ([]entity.ProfileSummary, error)
}

// EventLog reads a profile's event history.
type EventLog interface {
	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, profile string, limit int) ([]entity.EventRecord, error)
	// Since returns all events with a version greater than after, oldest first.
	Since(ctx context.Context, profile string, after uint64) ([]entity.EventRecord, error)
}

// SnapshotPublisher hands completed snapshots to the output engine.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap entity.Snapshot) error
}

// SnapshotFanout delivers snapshots to in-process listeners such as SSE streams.
type SnapshotFanout interface {
	Broadcast(snap entity.Snapshot)
	Subscribe() chan entity.Snapshot
	Unsubscribe(ch chan entity.Snapshot)
}

// SettingsUsecase owns the active output profile. Every change goes through
// Reduce and is published as a complete snapshot.
type SettingsUsecase struct {
	profiles  ProfileRepository
	events    EventLog
	publisher SnapshotPublisher
	fanout    SnapshotFanout

	mu        sync.Mutex
	profile   string
	state     entity.State
	version   uint64
	updatedAt time.Time
}

// NewSettingsUsecase creates a SettingsUsecase for the given profile name.
// Call Open before serving requests.
func NewSettingsUsecase(profiles ProfileRepository, events EventLog, publisher SnapshotPublisher, fanout SnapshotFanout, profile string) *SettingsUsecase {
	return &SettingsUsecase{
		profiles:  profiles,
		events:    events,
		publisher: publisher,
		fanout:    fanout,
		profile:   profile,
		state:     DefaultState(),
	}
}

// Open loads the active profile, creating it with factory defaults when it
// does not exist yet, and publishes the initial snapshot.
func (u *SettingsUsecase) Open(ctx context.Context) (entity.Snapshot, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.loadLocked(ctx, u.profile, true); err != nil {
		return entity.Snapshot{}, err
	}
	snap := u.snapshotLocked()
	u.publishLocked(ctx, snap)
	return snap, nil
}

// Activate switches to another stored profile and publishes it.
func (u *SettingsUsecase) Activate(ctx context.Context, name string) (entity.Snapshot, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.loadLocked(ctx, name, false); err != nil {
		return u.snapshotLocked(), err
	}
	slog.Info("output profile activated", "profile", name, "version", u.version)
	snap := u.snapshotLocked()
	u.publishLocked(ctx, snap)
	return snap, nil
}

// loadLocked は指定プロファイルを読み込みます。create が true の場合、存在しなければデフォルトで作成します。
func (u *SettingsUsecase) loadLocked(ctx context.Context, name string, create bool) error {
	st, sum, err := u.profiles.Find(ctx, name)
	switch {
	case err == nil:
		u.profile = name
		u.state = Derive(st)
		u.version = sum.Version
		u.updatedAt = sum.UpdatedAt
		return nil
	case errors.Is(err, domain.ErrProfileNotFound) && create:
		st = DefaultState()
		if err := u.profiles.Save(ctx, name, 0, st); err != nil {
			return fmt.Errorf("failed to create profile %q: %w", name, err)
		}
		slog.Info("output profile created with defaults", "profile", name)
		u.profile = name
		u.state = st
		u.version = 0
		u.updatedAt = time.Now()
		return nil
	case errors.Is(err, domain.ErrProfileNotFound):
		return err
	default:
		return fmt.Errorf("failed to load profile %q: %w", name, err)
	}
}

// Snapshot returns the current snapshot.
func (u *SettingsUsecase) Snapshot() entity.Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshotLocked()
}

// Dispatch applies ev to the active profile. The new state is committed
// before it becomes visible; if persisting fails the state is unchanged.
// Events that do not change anything are not recorded.
func (u *SettingsUsecase) Dispatch(ctx context.Context, operatorID uint, ev entity.Event) (entity.Snapshot, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	next, err := Reduce(u.state, ev)
	if err != nil {
		return u.snapshotLocked(), err
	}
	if next == u.state {
		return u.snapshotLocked(), nil
	}

	now := time.Now()
	rec := entity.EventRecord{
		Profile:    u.profile,
		Version:    u.version + 1,
		Event:      ev,
		OperatorID: operatorID,
		CreatedAt:  now,
	}
	if err := u.profiles.Commit(ctx, next, rec); err != nil {
		return u.snapshotLocked(), fmt.Errorf("failed to commit %s for profile %q: %w", ev.Kind, u.profile, err)
	}

	u.state = next
	u.version = rec.Version
	u.updatedAt = now

	snap := u.snapshotLocked()
	u.publishLocked(ctx, snap)
	return snap, nil
}

// Profiles lists all stored profiles.
func (u *SettingsUsecase) Profiles(ctx context.Context) ([]entity.ProfileSummary, error) {
	return u.profiles.List(ctx)
}

// History returns recent events of the active profile, newest first.
func (u *SettingsUsecase) History(ctx context.Context, limit int) ([]entity.EventRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	u.mu.Lock()
	profile := u.profile
	u.mu.Unlock()
	return u.events.Recent(ctx, profile, limit)
}

// Subscribe returns a channel receiving every published snapshot.
// The caller must call Unsubscribe when done.
func (u *SettingsUsecase) Subscribe() chan entity.Snapshot {
	return u.fanout.Subscribe()
}

// Unsubscribe releases a channel obtained from Subscribe.
func (u *SettingsUsecase) Unsubscribe(ch chan entity.Snapshot) {
	u.fanout.Unsubscribe(ch)
}

func (u *SettingsUsecase) snapshotLocked() entity.Snapshot {
	return SnapshotOf(u.profile, u.version, u.state, u.updatedAt)
}

// publishLocked はスナップショットを出力エンジンとローカル購読者に配信します。
// 配信の失敗は状態の確定を妨げないため、ログ出力のみ行います。
func (u *SettingsUsecase) publishLocked(ctx context.Context, snap entity.Snapshot) {
	if err := u.publisher.Publish(ctx, snap); err != nil {
		slog.Error("failed to publish output snapshot", "profile", snap.Profile, "version", snap.Version, "error", err)
	}
	u.fanout.Broadcast(snap)
}

// SnapshotOf builds the published view of a state.
func SnapshotOf(profile string, version uint64, st entity.State, updatedAt time.Time) entity.Snapshot {
	return entity.Snapshot{
		Profile:  profile,
		Version:  version,
		Config:   st.Config,
		Points:   st.ControlPoints(),
		Aspect:   st.Aspect,
		Controls: st.Controls(),
		Checked: entity.Checked{
			AspectScale:      st.AspectScale,
			FitSquare:        st.FitSquare,
			OutputEnabled:    st.OutputEnabled,
			BlankingEnabled:  st.BlankingEnabled,
			BlankingInverted: st.BlankingInverted,
			TestHeld:         st.TestHeld,
		},
		Sliders:   st.Sliders,
		UpdatedAt: updatedAt,
	}
}
