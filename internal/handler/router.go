package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/calview/internal/metrics"
	"github.com/hitoshi/calview/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DB を受け付けることができる。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存。UserResolverはauth.Serviceを渡す
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// カレンダー
	EventService EventServiceInterface

	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → (ルートごとの)SessionGuard → RateLimit
//
// ブラウザ向け保護ルートは未認証時に / へリダイレクトし、
// APIの保護ルートは401 {"error": "Unauthorized"} を返す。
// 区別はルート構成で行い、ガードのロジック自体は共通。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.CORSAllowedOrigin != "" {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	eventHandler := NewEventHandler(deps.EventService)
	staticHandler := NewStaticHandler()

	// --- 認証不要のルート ---

	r.Get("/", staticHandler.Index)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/google", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
	})

	if deps.HealthChecker != nil {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
	}

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- ブラウザ向けの保護ルート（未認証はリダイレクト）---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewPageSessionMiddleware(deps.UserResolver))

		r.Get("/events", staticHandler.Events)
		r.Get("/logout", authHandler.Logout)
	})

	// --- APIの保護ルート（未認証は401）---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAPISessionMiddleware(deps.UserResolver))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Get("/api/me", authHandler.Me)

		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.CalendarMiddleware()).Get("/api/events", eventHandler.ListEvents)
		} else {
			r.Get("/api/events", eventHandler.ListEvents)
		}
	})

	return r
}
