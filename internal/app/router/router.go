// Package router はHTTPルーティングを組み立てます。
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "laser_backend/internal/feature/auth/transport/handler"
	settingshandler "laser_backend/internal/feature/outputsettings/transport/handler"
	"laser_backend/internal/platform/http/handler"
	"laser_backend/internal/platform/http/middleware"
	jwtmw "laser_backend/internal/platform/jwt"
)

// Options はルーター全体に関わる設定です。
type Options struct {
	// JWTSecret はトークン検証に使う署名鍵です。
	JWTSecret string
	// AllowOrigins が空の場合はすべてのオリジンを許可します。
	AllowOrigins []string
	// Checks は /readyz で実行する依存先の確認です。
	Checks map[string]handler.Check
}

func NewRouter(opts Options, authHandler *authhandler.AuthHandler, settings *settingshandler.SettingsHandler) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID(), cors.New(corsConfig(opts.AllowOrigins)))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(opts.Checks))
	// オペレーター登録
	r.POST("/auth/register", authHandler.Register)
	// ログイン（JWT 発行）
	r.POST("/auth/login", authHandler.Login)

	// 読み取り専用のルートは認証なしで参照可能
	out := r.Group("/output")
	out.GET("/settings", settings.GetSettings)
	out.GET("/profiles", settings.ListProfiles)
	out.GET("/events", settings.History)
	out.GET("/stream", settings.Stream)

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(opts.JWTSecret))
	{
		auth.GET("/auth/me", authHandler.Me)

		auth.POST("/output/events", settings.PostEvent)
		auth.PUT("/output/points", settings.SetQuad)
		auth.PUT("/output/points/:index", settings.MovePoint)
		auth.PUT("/output/aspect", settings.SetAspect)
		auth.PUT("/output/controls/:control", settings.SetControl)
		auth.PUT("/output/values/:slider", settings.SetValue)
		auth.POST("/output/safety", settings.SetSafety)
		auth.POST("/output/reset", settings.Reset)
		auth.POST("/output/reset-transform", settings.ResetTransform)
		auth.POST("/output/test/press", settings.TestPress)
		auth.POST("/output/test/release", settings.TestRelease)
		auth.POST("/output/profiles/:name/activate", settings.ActivateProfile)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.HeaderRequestID)
	cfg.ExposeHeaders = []string{middleware.HeaderRequestID}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
