// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"laser_backend/internal/feature/auth/domain"
	"laser_backend/internal/feature/auth/domain/entity"
	"laser_backend/internal/feature/auth/usecase"
)

// OperatorModel is the GORM model for the operators table.
type OperatorModel struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM.
func (OperatorModel) TableName() string {
	return "operators"
}

func (m *OperatorModel) toEntity() *entity.Operator {
	return &entity.Operator{
		ID:           m.ID,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// operatorGorm はOperatorRepositoryインターフェースのGORM実装です。
type operatorGorm struct {
	db *gorm.DB
}

// operatorGormがOperatorRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.OperatorRepository = (*operatorGorm)(nil)

// NewOperatorRepository は指定されたgorm.DB接続でoperatorGormの新しいインスタンスを生成します。
func NewOperatorRepository(db *gorm.DB) *operatorGorm {
	return &operatorGorm{db: db}
}

// Create はオペレーターをデータベースに追加し、採番されたIDと時刻を op に反映します。
// 重複判定には gorm.Config.TranslateError が有効である必要があります。
func (r *operatorGorm) Create(ctx context.Context, op *entity.Operator) error {
	if op == nil {
		return errors.New("operator is nil")
	}
	m := OperatorModel{Name: op.Name, PasswordHash: op.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrOperatorExists
		}
		return err
	}
	op.ID, op.CreatedAt, op.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

// FindByName は名前でオペレーターを取得します。
func (r *operatorGorm) FindByName(ctx context.Context, name string) (*entity.Operator, error) {
	return r.first(ctx, "name = ?", name)
}

// FindByID はIDでオペレーターを取得します。
func (r *operatorGorm) FindByID(ctx context.Context, id uint) (*entity.Operator, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *operatorGorm) first(ctx context.Context, query string, arg any) (*entity.Operator, error) {
	var m OperatorModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOperatorNotFound
		}
		return nil, err
	}
	return m.toEntity(), nil
}
