// Package handler はoutputsettingsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"laser_backend/internal/feature/outputsettings/domain"
	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/feature/outputsettings/transport/http/dto"
	"laser_backend/internal/platform/http/middleware"
	jwtmw "laser_backend/internal/platform/jwt"
)

// SettingsUsecase は出力設定操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SettingsUsecase interface {
	Snapshot() entity.Snapshot
	Dispatch(ctx context.Context, operatorID uint, ev entity.Event) (entity.Snapshot, error)
	Activate(ctx context.Context, name string) (entity.Snapshot, error)
	Profiles(ctx context.Context) ([]entity.ProfileSummary, error)
	History(ctx context.Context, limit int) ([]entity.EventRecord, error)
	Subscribe() chan entity.Snapshot
	Unsubscribe(ch chan entity.Snapshot)
}

// SettingsHandler は出力設定のHTTPリクエストを処理します。
type SettingsHandler struct {
	uc SettingsUsecase
}

// NewSettingsHandler は指定されたusecaseでSettingsHandlerの新しいインスタンスを生成します。
func NewSettingsHandler(uc SettingsUsecase) *SettingsHandler {
	return &SettingsHandler{uc: uc}
}

// GetSettings は現在のスナップショットを返します。
//
// GET /output/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.FromSnapshot(h.uc.Snapshot()))
}

// ListProfiles は保存済みプロファイルの一覧を返します。
//
// GET /output/profiles
func (h *SettingsHandler) ListProfiles(c *gin.Context) {
	list, err := h.uc.Profiles(c.Request.Context())
	if err != nil {
		slog.Error("failed to list profiles", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list profiles"})
		return
	}
	c.JSON(http.StatusOK, dto.FromProfiles(list, h.uc.Snapshot().Profile))
}

// History はアクティブなプロファイルのイベント履歴を新しい順に返します。
//
// GET /output/events?limit=50
func (h *SettingsHandler) History(c *gin.Context) {
	// 不正な値はユースケース側でデフォルトに丸められる
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	recs, err := h.uc.History(c.Request.Context(), limit)
	if err != nil {
		slog.Error("failed to read event history", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to read event history"})
		return
	}
	c.JSON(http.StatusOK, dto.FromEventRecords(recs))
}

// Stream は公開されたスナップショットを Server-Sent Events で配信します。
// 接続直後に現在のスナップショットを1件送信します。
//
// GET /output/stream
func (h *SettingsHandler) Stream(c *gin.Context) {
	ch := h.uc.Subscribe()
	defer h.uc.Unsubscribe(ch)

	c.Header("Cache-Control", "no-store")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", dto.FromSnapshot(h.uc.Snapshot()))
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", dto.FromSnapshot(snap))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// PostEvent は任意のイベントを適用します。
//
// POST /output/events
func (h *SettingsHandler) PostEvent(c *gin.Context) {
	var req dto.EventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ev, err := req.ToEvent()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	h.dispatch(c, ev)
}

// MovePoint は制御点を1つ移動します。
//
// PUT /output/points/:index
func (h *SettingsHandler) MovePoint(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	var req dto.PointReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ev := entity.Event{Kind: entity.EventMovePoint, Index: index}
	ev.Point.X, ev.Point.Y = *req.X, *req.Y
	h.dispatch(c, ev)
}

// SetQuad は4つの制御点をまとめて設定します。
//
// PUT /output/points
func (h *SettingsHandler) SetQuad(c *gin.Context) {
	var req dto.QuadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ev, err := req.ToEvent()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	h.dispatch(c, ev)
}

// SetAspect はアスペクト比を変更します。
//
// PUT /output/aspect
func (h *SettingsHandler) SetAspect(c *gin.Context) {
	var req dto.AspectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	a, ok := entity.ParseAspectRatio(req.Aspect)
	if !ok {
		h.badRequest(c, errors.New("unknown aspect "+req.Aspect))
		return
	}
	h.dispatch(c, entity.Event{Kind: entity.EventSetAspect, Aspect: a})
}

// SetControl はチェックボックスを切り替えます。
//
// PUT /output/controls/:control
func (h *SettingsHandler) SetControl(c *gin.Context) {
	ctl, ok := entity.ParseControl(c.Param("control"))
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown control"})
		return
	}
	var req dto.ToggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.dispatch(c, entity.Event{Kind: entity.EventToggle, Control: ctl, On: *req.On})
}

// SetValue はスライダー値を設定します。
//
// PUT /output/values/:slider
func (h *SettingsHandler) SetValue(c *gin.Context) {
	sl, ok := entity.ParseSlider(c.Param("slider"))
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown slider"})
		return
	}
	var req dto.ValueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.dispatch(c, entity.Event{Kind: entity.EventSetValue, Slider: sl, Value: *req.Value})
}

// SetSafety はセーフモードを切り替えます。
//
// POST /output/safety
func (h *SettingsHandler) SetSafety(c *gin.Context) {
	var req dto.SafetyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.dispatch(c, entity.Event{Kind: entity.EventSetSafety, On: *req.On, Confirmed: req.Confirm})
}

// Reset は工場出荷時の設定に戻します。
//
// POST /output/reset
func (h *SettingsHandler) Reset(c *gin.Context) {
	h.dispatch(c, entity.Event{Kind: entity.EventResetDefaults})
}

// ResetTransform は制御点のみを初期位置に戻します。
//
// POST /output/reset-transform
func (h *SettingsHandler) ResetTransform(c *gin.Context) {
	h.dispatch(c, entity.Event{Kind: entity.EventResetTransform})
}

// TestPress は出力テストボタンの押下を通知します。
//
// POST /output/test/press
func (h *SettingsHandler) TestPress(c *gin.Context) {
	h.dispatch(c, entity.Event{Kind: entity.EventOutputTestPressed})
}

// TestRelease は出力テストボタンの解放を通知します。
//
// POST /output/test/release
func (h *SettingsHandler) TestRelease(c *gin.Context) {
	h.dispatch(c, entity.Event{Kind: entity.EventOutputTestReleased})
}

// ActivateProfile は別の保存済みプロファイルに切り替えます。
//
// POST /output/profiles/:name/activate
func (h *SettingsHandler) ActivateProfile(c *gin.Context) {
	name := c.Param("name")
	snap, err := h.uc.Activate(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err, snap)
		return
	}
	slog.Info("output profile switched", "profile", name, "operator_id", c.GetUint(jwtmw.ContextUserID))
	c.JSON(http.StatusOK, dto.FromSnapshot(snap))
}

// dispatch はイベントを適用し、結果のスナップショットを返します。
func (h *SettingsHandler) dispatch(c *gin.Context, ev entity.Event) {
	operatorID := c.GetUint(jwtmw.ContextUserID)
	snap, err := h.uc.Dispatch(c.Request.Context(), operatorID, ev)
	if err != nil {
		h.fail(c, err, snap)
		return
	}
	slog.Debug("output event applied", "kind", ev.Kind.String(), "version", snap.Version, "operator_id", operatorID)
	c.JSON(http.StatusOK, dto.FromSnapshot(snap))
}

func (h *SettingsHandler) badRequest(c *gin.Context, err error) {
	slog.Warn("output request validation failed", "error", err, "remote_addr", c.ClientIP())
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
}

// fail は拒否されたイベントを現在のスナップショットと共に返します。
// 永続化エラーの詳細はクライアントに公開しません。
func (h *SettingsHandler) fail(c *gin.Context, err error, snap entity.Snapshot) {
	status := StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("output event failed", "error", err, "request_id", middleware.RequestIDFrom(c))
		msg = "internal error"
	} else {
		slog.Warn("output event rejected", "error", err, "status", status, "request_id", middleware.RequestIDFrom(c))
	}
	cur := dto.FromSnapshot(snap)
	c.JSON(status, dto.ErrorResponse{Error: msg, Snapshot: &cur})
}

// StatusOf maps a usecase error to an HTTP status code.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrControlDisabled),
		errors.Is(err, domain.ErrSafetyConfirmationRequired):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDegenerateQuad),
		errors.Is(err, domain.ErrInvalidPoint),
		errors.Is(err, domain.ErrValueOutOfRange),
		errors.Is(err, domain.ErrUnknownEvent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, dto.ErrInvalidRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
