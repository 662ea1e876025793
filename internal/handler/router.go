package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/authgate/internal/metrics"
	"github.com/hitoshi/authgate/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 認証
	AuthService AuthServiceInterface
	TokenParser middleware.TokenParser

	// ミドルウェア依存
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// 観測
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// 診断
	DB *sql.DB
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS
//
// 認証が必要なのは /auth/me のみ。認証エンドポイント自体と診断エンドポイントは
// ミドルウェアチェーンの外に認証を置かない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	diagHandler := NewDiagHandler(deps.DB)

	// --- 認証不要のルート ---

	r.Get("/", diagHandler.Root)
	r.Get("/api/hello", diagHandler.Hello)
	r.Get("/test", diagHandler.Test)

	r.Post("/auth/google", authHandler.GoogleAuth)

	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// --- 認証が必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthTokenMiddleware(deps.TokenParser))
		r.Get("/auth/me", authHandler.Me)
	})

	return r
}
