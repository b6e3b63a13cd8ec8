// Package jwtmw はオペレーター認証用のJWT発行とGinミドルウェアを提供します。
package jwtmw

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// EnvKeyJWTSecret は署名鍵を保持する環境変数名です。
	EnvKeyJWTSecret = "JWT_SECRET"
	// Issuer は発行するトークンの iss クレームです。
	Issuer = "laser_backend"
)

// Claims are the JWT claims issued to operators.
type Claims struct {
	OperatorID uint   `json:"oid"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

// generator signs operator tokens with HS256.
type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a token generator with the given secret and lifetime.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed token for the operator.
func (g *generator) GenerateToken(operatorID uint, name string) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("failed to sign token: %s is not set", EnvKeyJWTSecret)
	}
	now := g.now()
	claims := Claims{
		OperatorID: operatorID,
		Name:       name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatUint(uint64(operatorID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
