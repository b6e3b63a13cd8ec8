// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"laser_backend/internal/feature/auth/domain"
	"laser_backend/internal/feature/auth/domain/entity"
	"laser_backend/internal/feature/auth/transport/http/dto"
	jwtmw "laser_backend/internal/platform/jwt"
)

// AuthUsecase はオペレーター認証のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Register は新規オペレーターを登録します。
	Register(ctx context.Context, name, password string) error
	// Login はオペレーターを認証し、成功時にJWTトークンを返します。
	Login(ctx context.Context, name, password string) (string, error)
	// Operator はIDでオペレーターを取得します。
	Operator(ctx context.Context, id uint) (*entity.Operator, error)
}

// AuthHandler はオペレーター認証のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register はオペレーター登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - 名前の重複時は409を返却
// - 成功時は201を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}
	if err := h.auth.Register(c.Request.Context(), req.Name, req.Password); err != nil {
		if errors.Is(err, domain.ErrOperatorExists) || errors.Is(err, domain.ErrWeakPassword) {
			slog.Warn("register rejected", "error", err, "name", req.Name, "remote_addr", c.ClientIP())
			c.JSON(http.StatusConflict, dto.ErrorRes{Error: "registration failed"})
			return
		}
		slog.Error("register failed", "error", err, "name", req.Name)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal error"})
		return
	}
	slog.Info("operator registered", "name", req.Name, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.MessageRes{Message: "ok"})
}

// Login はオペレーターログインAPIエンドポイントを処理します。
// 認証失敗の理由はクライアントに公開しません。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: err.Error()})
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		slog.Warn("login failed", "error", err, "name", req.Name, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: domain.ErrInvalidCredentials.Error()})
		return
	}
	slog.Info("operator login successful", "name", req.Name, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.TokenRes{Token: token})
}

// Me は認証済みオペレーターの情報を返します。AuthRequired の後段で使用します。
func (h *AuthHandler) Me(c *gin.Context) {
	id := c.GetUint(jwtmw.ContextUserID)
	op, err := h.auth.Operator(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrOperatorNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorRes{Error: err.Error()})
			return
		}
		slog.Error("failed to load operator", "error", err, "operator_id", id)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, dto.OperatorRes{
		ID:        op.ID,
		Name:      op.Name,
		CreatedAt: op.CreatedAt.UTC().Format(time.RFC3339),
	})
}
