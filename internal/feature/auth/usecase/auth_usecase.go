// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"laser_backend/internal/feature/auth/domain"
	"laser_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8
	// maxPasswordBytes は bcrypt が受け付ける最大バイト数です。
	maxPasswordBytes = 72
)

// dummyHash はオペレーターが存在しない場合にも bcrypt 比較を行うためのハッシュです。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// OperatorRepository はオペレーターエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type OperatorRepository interface {
	// Create は新しいオペレーターを永続化します。
	// 同名のオペレーターが既に存在する場合、domain.ErrOperatorExists を返します。
	Create(ctx context.Context, op *entity.Operator) error

	// FindByName は名前に一致するオペレーターを取得します。
	FindByName(ctx context.Context, name string) (*entity.Operator, error)

	// FindByID はIDに一致するオペレーターを取得します。
	FindByID(ctx context.Context, id uint) (*entity.Operator, error)
}

// TokenGenerator はJWTトークン生成のインターフェースを定義します。
type TokenGenerator interface {
	GenerateToken(operatorID uint, name string) (string, error)
}

// authUsecase はオペレーター認証のビジネスロジックを実装します。
type authUsecase struct {
	operators OperatorRepository
	tokens    TokenGenerator
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(operators OperatorRepository, tokens TokenGenerator) *authUsecase {
	return &authUsecase{
		operators: operators,
		tokens:    tokens,
	}
}

// Register はハッシュ化されたパスワードで新規オペレーターを登録します。
func (u *authUsecase) Register(ctx context.Context, name, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: at least %d characters", domain.ErrWeakPassword, minPasswordLength)
	}
	// マルチバイト文字はバインディングの文字数チェックを通過しうる
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: at most %d bytes", domain.ErrWeakPassword, maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return u.operators.Create(ctx, &entity.Operator{Name: name, PasswordHash: string(hashed)})
}

// Login はオペレーターを認証し、成功時に署名済みJWTトークンを返します。
// タイミング攻撃を防止するため、オペレーターが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, name, password string) (string, error) {
	op, err := u.operators.FindByName(ctx, name)

	hash := dummyHash
	if err == nil {
		hash = op.PasswordHash
	} else if !errors.Is(err, domain.ErrOperatorNotFound) {
		return "", fmt.Errorf("failed to look up operator: %w", err)
	}

	compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil || compareErr != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := u.tokens.GenerateToken(op.ID, op.Name)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// Operator はIDでオペレーターを取得します。
func (u *authUsecase) Operator(ctx context.Context, id uint) (*entity.Operator, error) {
	return u.operators.FindByID(ctx, id)
}
