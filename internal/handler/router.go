package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/powerfleet/internal/metrics"
	"github.com/hitoshi/powerfleet/internal/middleware"
	"github.com/hitoshi/powerfleet/internal/model"
)

// HealthChecker はヘルスチェックに必要なDB疎通確認のインターフェース。
// *sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenParser       middleware.TokenParser
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// 監視
	HealthChecker  HealthChecker
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 発電所・消費レコード
	PlantService       PlantServiceInterface
	ConsumptionService ConsumptionServiceInterface

	// 集計
	AnalyticsService AnalyticsServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → Logging → Metrics → SecurityHeaders → CORS → CSRF
//	→ TokenAuth → RateLimit(GeneralMiddleware) → RequireRole(Admin、更新系のみ)
//
// 認証ルート（/auth/*）はCSRFとTokenAuthの外に配置し、
// ログイン・登録にはIP単位のレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	plantHandler := NewPlantHandler(deps.PlantService)
	consumptionHandler := NewConsumptionHandler(deps.ConsumptionService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)
	tokenAuth := middleware.NewTokenAuthMiddleware(deps.TokenParser)

	// --- 監視用ルート ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 認証ルート（CSRF保護の外に配置）
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.LoginMiddleware())
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
		})
		r.Post("/logout", authHandler.Logout)
		r.With(tokenAuth).Get("/me", authHandler.Me)
	})

	// --- CSRF保護の対象 ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: TokenAuth → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(tokenAuth)
			r.Use(deps.RateLimiter.GeneralMiddleware())

			// 集計・分析
			r.Get("/api/dashboard", analyticsHandler.Dashboard)
			r.Get("/api/analytics/efficiency", analyticsHandler.Efficiency)
			r.Get("/api/analytics/regions", analyticsHandler.Regions)
			r.Get("/api/maintenance/alerts", analyticsHandler.Alerts)
			r.Get("/api/export/{kind}", analyticsHandler.Export)

			// 消費レコード
			r.Post("/api/consumption", consumptionHandler.RecordConsumption)

			// 発電所管理
			r.Route("/api/plants", func(r chi.Router) {
				r.Get("/", plantHandler.ListPlants)
				r.Get("/capacity", plantHandler.CapacityByRegion)
				r.With(middleware.RequireRole(model.AdminRole)).Post("/", plantHandler.CreatePlant)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", plantHandler.GetPlant)
					r.Get("/report", plantHandler.Report)
					r.Get("/consumption", consumptionHandler.ListByPlant)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRole(model.AdminRole))
						r.Put("/", plantHandler.UpdatePlant)
						r.Delete("/", plantHandler.DeletePlant)
					})
				})
			})
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
