package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"laser_backend/internal/feature/auth/domain"
	"laser_backend/internal/feature/auth/domain/entity"
)

// mockOperatorRepository is a mock implementation of OperatorRepository.
type mockOperatorRepository struct {
	CreateFunc     func(ctx context.Context, op *entity.Operator) error
	FindByNameFunc func(ctx context.Context, name string) (*entity.Operator, error)
	FindByIDFunc   func(ctx context.Context, id uint) (*entity.Operator, error)
}

func (m *mockOperatorRepository) Create(ctx context.Context, op *entity.Operator) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, op)
	}
	return nil
}

func (m *mockOperatorRepository) FindByName(ctx context.Context, name string) (*entity.Operator, error) {
	if m.FindByNameFunc != nil {
		return m.FindByNameFunc(ctx, name)
	}
	return nil, domain.ErrOperatorNotFound
}

func (m *mockOperatorRepository) FindByID(ctx context.Context, id uint) (*entity.Operator, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrOperatorNotFound
}

// mockTokenGenerator is a mock implementation of TokenGenerator.
type mockTokenGenerator struct {
	GenerateTokenFunc func(operatorID uint, name string) (string, error)
}

func (m *mockTokenGenerator) GenerateToken(operatorID uint, name string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(operatorID, name)
	}
	return "mock-jwt-token", nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthUsecase_Register(t *testing.T) {
	t.Run("stores a bcrypt hash", func(t *testing.T) {
		var stored *entity.Operator
		repo := &mockOperatorRepository{
			CreateFunc: func(_ context.Context, op *entity.Operator) error {
				stored = op
				return nil
			},
		}
		uc := NewAuthUsecase(repo, &mockTokenGenerator{})

		require.NoError(t, uc.Register(context.Background(), "lighting", "password123"))
		require.NotNil(t, stored)
		assert.Equal(t, "lighting", stored.Name)
		assert.NotEqual(t, "password123", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
	})

	t.Run("short password", func(t *testing.T) {
		repo := &mockOperatorRepository{
			CreateFunc: func(context.Context, *entity.Operator) error {
				t.Error("Create must not be called")
				return nil
			},
		}
		err := NewAuthUsecase(repo, &mockTokenGenerator{}).Register(context.Background(), "lighting", "short")
		assert.ErrorIs(t, err, domain.ErrWeakPassword)
	})

	t.Run("password over 72 bytes", func(t *testing.T) {
		repo := &mockOperatorRepository{
			CreateFunc: func(context.Context, *entity.Operator) error {
				t.Error("Create must not be called")
				return nil
			},
		}
		// 30 runes, 90 bytes
		err := NewAuthUsecase(repo, &mockTokenGenerator{}).Register(context.Background(), "lighting", strings.Repeat("光", 30))
		assert.ErrorIs(t, err, domain.ErrWeakPassword)
	})

	t.Run("duplicate name", func(t *testing.T) {
		repo := &mockOperatorRepository{
			CreateFunc: func(context.Context, *entity.Operator) error { return domain.ErrOperatorExists },
		}
		err := NewAuthUsecase(repo, &mockTokenGenerator{}).Register(context.Background(), "lighting", "password123")
		assert.ErrorIs(t, err, domain.ErrOperatorExists)
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	hash := hashOf(t, "password123")
	known := func(_ context.Context, name string) (*entity.Operator, error) {
		if name == "lighting" {
			return &entity.Operator{ID: 3, Name: name, PasswordHash: hash}, nil
		}
		return nil, domain.ErrOperatorNotFound
	}

	tests := []struct {
		name      string
		login     string
		password  string
		findFunc  func(ctx context.Context, name string) (*entity.Operator, error)
		tokenErr  error
		wantToken string
		wantErr   error
	}{
		{name: "success", login: "lighting", password: "password123", findFunc: known, wantToken: "token-3-lighting"},
		{name: "wrong password", login: "lighting", password: "wrong-password", findFunc: known, wantErr: domain.ErrInvalidCredentials},
		{name: "unknown operator", login: "ghost", password: "password123", findFunc: known, wantErr: domain.ErrInvalidCredentials},
		{
			name: "repository failure", login: "lighting", password: "password123",
			findFunc: func(context.Context, string) (*entity.Operator, error) {
				return nil, errors.New("db down")
			},
		},
		{name: "token failure", login: "lighting", password: "password123", findFunc: known, tokenErr: errors.New("sign failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockTokenGenerator{
				GenerateTokenFunc: func(operatorID uint, name string) (string, error) {
					if tt.tokenErr != nil {
						return "", tt.tokenErr
					}
					assert.Equal(t, uint(3), operatorID)
					return "token-3-" + name, nil
				},
			}
			uc := NewAuthUsecase(&mockOperatorRepository{FindByNameFunc: tt.findFunc}, gen)

			token, err := uc.Login(context.Background(), tt.login, tt.password)
			if tt.wantToken != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				return
			}
			assert.Error(t, err)
			assert.Empty(t, token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
			}
		})
	}
}

func TestAuthUsecase_Operator(t *testing.T) {
	repo := &mockOperatorRepository{
		FindByIDFunc: func(_ context.Context, id uint) (*entity.Operator, error) {
			return &entity.Operator{ID: id, Name: "lighting"}, nil
		},
	}
	op, err := NewAuthUsecase(repo, &mockTokenGenerator{}).Operator(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, uint(9), op.ID)
}
