// Package adapters はoutputsettingsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"laser_backend/internal/feature/outputsettings/domain"
	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/feature/outputsettings/usecase"
	"laser_backend/internal/platform/geom"
)

// ProfileModel is the GORM model for the output_profiles table.
// The momentary output test state is never persisted.
type ProfileModel struct {
	Name             string         `gorm:"primaryKey;size:64"`
	Version          uint64         `gorm:"not null"`
	Aspect           int            `gorm:"not null"`
	AspectScale      bool           `gorm:"not null"`
	FitSquare        bool           `gorm:"not null"`
	Safe             bool           `gorm:"not null"`
	ScanFlags        uint32         `gorm:"not null"`
	OutputEnabled    bool           `gorm:"not null"`
	BlankingEnabled  bool           `gorm:"not null"`
	BlankingInverted bool           `gorm:"not null"`
	SliderPower      int            `gorm:"not null"`
	SliderOffset     int            `gorm:"not null"`
	SliderSize       int            `gorm:"not null"`
	SliderDelay      int            `gorm:"not null"`
	Matrix           geom.Transform `gorm:"serializer:json;not null"`
	UpdatedAt        time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (ProfileModel) TableName() string {
	return "output_profiles"
}

// EventModel is the GORM model for the output_events table.
type EventModel struct {
	ID         uint         `gorm:"primaryKey"`
	Profile    string       `gorm:"size:64;not null;uniqueIndex:event_profile_version,priority:1"`
	Version    uint64       `gorm:"not null;uniqueIndex:event_profile_version,priority:2"`
	Kind       string       `gorm:"size:32;not null"`
	Payload    entity.Event `gorm:"serializer:json;not null"`
	OperatorID uint         `gorm:"not null;default:0"`
	CreatedAt  time.Time    `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (EventModel) TableName() string {
	return "output_events"
}

// Models lists the models of this feature for migration.
func Models() []any {
	return []any{&ProfileModel{}, &EventModel{}}
}

func toProfileModel(name string, version uint64, st entity.State, updatedAt time.Time) ProfileModel {
	return ProfileModel{
		Name:             name,
		Version:          version,
		Aspect:           int(st.Aspect),
		AspectScale:      st.AspectScale,
		FitSquare:        st.FitSquare,
		Safe:             st.Safe,
		ScanFlags:        uint32(st.ScanFlags),
		OutputEnabled:    st.OutputEnabled,
		BlankingEnabled:  st.BlankingEnabled,
		BlankingInverted: st.BlankingInverted,
		SliderPower:      st.Sliders.Power,
		SliderOffset:     st.Sliders.Offset,
		SliderSize:       st.Sliders.Size,
		SliderDelay:      st.Sliders.Delay,
		Matrix:           st.Matrix,
		UpdatedAt:        updatedAt,
	}
}

// ToEntity converts the model to an editor state. Config is left for the
// usecase to derive.
func (m *ProfileModel) ToEntity() entity.State {
	return entity.State{
		Matrix:           m.Matrix,
		Aspect:           entity.AspectRatio(m.Aspect),
		AspectScale:      m.AspectScale,
		FitSquare:        m.FitSquare,
		Safe:             m.Safe,
		ScanFlags:        entity.ScanFlags(m.ScanFlags),
		OutputEnabled:    m.OutputEnabled,
		BlankingEnabled:  m.BlankingEnabled,
		BlankingInverted: m.BlankingInverted,
		Sliders: entity.Sliders{
			Power:  m.SliderPower,
			Offset: m.SliderOffset,
			Size:   m.SliderSize,
			Delay:  m.SliderDelay,
		},
	}
}

func (m *EventModel) toEntity() entity.EventRecord {
	return entity.EventRecord{
		Profile:    m.Profile,
		Version:    m.Version,
		Event:      m.Payload,
		OperatorID: m.OperatorID,
		CreatedAt:  m.CreatedAt,
	}
}

// profileGorm はProfileRepositoryとEventLogのGORM実装です。
type profileGorm struct {
	db *gorm.DB
}

var (
	_ usecase.ProfileRepository = (*profileGorm)(nil)
	_ usecase.EventLog          = (*profileGorm)(nil)
)

// NewProfileRepository は指定されたDB接続でprofileGormの新しいインスタンスを生成します。
func NewProfileRepository(db *gorm.DB) *profileGorm {
	return &profileGorm{db: db}
}

// upsertProfile はプロファイル行を挿入または全カラム更新します。
func upsertProfile(tx *gorm.DB, m *ProfileModel) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(m).Error
}

// Find returns the stored state of a profile.
func (r *profileGorm) Find(ctx context.Context, name string) (entity.State, entity.ProfileSummary, error) {
	var m ProfileModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.State{}, entity.ProfileSummary{}, domain.ErrProfileNotFound
		}
		return entity.State{}, entity.ProfileSummary{}, err
	}
	return m.ToEntity(), entity.ProfileSummary{Name: m.Name, Version: m.Version, UpdatedAt: m.UpdatedAt}, nil
}

// Save upserts a profile without recording an event.
func (r *profileGorm) Save(ctx context.Context, name string, version uint64, st entity.State) error {
	m := toProfileModel(name, version, st, time.Now())
	return upsertProfile(r.db.WithContext(ctx), &m)
}

// Commit stores the state and its event in one transaction.
func (r *profileGorm) Commit(ctx context.Context, st entity.State, rec entity.EventRecord) error {
	return r.CommitAll(ctx, st, []entity.EventRecord{rec})
}

// CommitAll stores the final state and appends every event in one
// transaction. The profile version becomes that of the last record.
func (r *profileGorm) CommitAll(ctx context.Context, st entity.State, recs []entity.EventRecord) error {
	if len(recs) == 0 {
		return errors.New("no events to commit")
	}
	last := recs[len(recs)-1]
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := toProfileModel(last.Profile, last.Version, st, last.CreatedAt)
		if err := upsertProfile(tx, &m); err != nil {
			return err
		}
		evs := make([]EventModel, 0, len(recs))
		for _, rec := range recs {
			evs = append(evs, EventModel{
				Profile:    rec.Profile,
				Version:    rec.Version,
				Kind:       rec.Event.Kind.String(),
				Payload:    rec.Event,
				OperatorID: rec.OperatorID,
				CreatedAt:  rec.CreatedAt,
			})
		}
		return tx.Create(&evs).Error
	})
}

// List returns all profiles ordered by name.
func (r *profileGorm) List(ctx context.Context) ([]entity.ProfileSummary, error) {
	var rows []ProfileModel
	if err := r.db.WithContext(ctx).
		Select("name", "version", "updated_at").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.ProfileSummary, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.ProfileSummary{Name: m.Name, Version: m.Version, UpdatedAt: m.UpdatedAt})
	}
	return out, nil
}

// Recent returns up to limit events of profile, newest first.
func (r *profileGorm) Recent(ctx context.Context, profile string, limit int) ([]entity.EventRecord, error) {
	var rows []EventModel
	q := r.db.WithContext(ctx).
		Where("profile = ?", profile).
		Order("version DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

// Since returns events of profile newer than after, oldest first.
func (r *profileGorm) Since(ctx context.Context, profile string, after uint64) ([]entity.EventRecord, error) {
	var rows []EventModel
	if err := r.db.WithContext(ctx).
		Where("profile = ? AND version > ?", profile, after).
		Order("version ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func toRecords(rows []EventModel) []entity.EventRecord {
	out := make([]entity.EventRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out
}
