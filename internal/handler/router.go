package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/burnoutbuddy/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	Identity          middleware.IdentityConfig
	RateLimiter       *middleware.RateLimiter
	AdminKey          string
	StatusRecorder    middleware.StatusRecorder

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 会話・イベント・決済
	CoachService CoachServiceInterface

	// 管理者向け指標
	MetricsReporter MetricsReporter

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → StatusMetrics → Logging → SecurityHeaders → CORS
//	  /api/admin/* : AdminKey
//	  /api/*       : Identity → RateLimit(General) [→ RateLimit(Analyze) | CSRF]
//
// /health と /metrics はユーザー識別の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewStatusMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	coachHandler := NewCoachHandler(deps.CoachService)
	adminHandler := NewAdminHandler(deps.MetricsReporter)
	userHandler := NewUserHandler(deps.UserService, deps.Identity)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 管理者ルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAdminKeyMiddleware(deps.AdminKey))
		r.Get("/api/admin/metrics", adminHandler.Metrics)
	})

	// --- ユーザールート ---
	// ミドルウェアスタック: Identity → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware(deps.Identity))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// POST /api/analyze - 会話（会話専用レート制限を追加）
		r.With(deps.RateLimiter.AnalyzeMiddleware()).Post("/api/analyze", coachHandler.Analyze)
		r.Post("/api/event", coachHandler.Event)
		r.Post("/api/stripe/checkout", coachHandler.Checkout)

		r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.Identity).ServeHTTP)

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me/memory", userHandler.GetMemory)
			// 取り消せない操作のためCSRFトークンを要求する
			r.With(middleware.NewCSRFMiddleware(deps.Identity)).Delete("/me", userHandler.Withdraw)
		})
	})

	return r
}
