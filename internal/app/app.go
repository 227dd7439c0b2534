package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/powerfleet/internal/analytics"
	"github.com/hitoshi/powerfleet/internal/auth"
	"github.com/hitoshi/powerfleet/internal/config"
	"github.com/hitoshi/powerfleet/internal/consumption"
	"github.com/hitoshi/powerfleet/internal/database"
	"github.com/hitoshi/powerfleet/internal/handler"
	"github.com/hitoshi/powerfleet/internal/logger"
	"github.com/hitoshi/powerfleet/internal/metrics"
	"github.com/hitoshi/powerfleet/internal/middleware"
	"github.com/hitoshi/powerfleet/internal/plant"
	"github.com/hitoshi/powerfleet/internal/repository"
	"github.com/hitoshi/powerfleet/internal/security"
	"github.com/hitoshi/powerfleet/internal/worker/alerts"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. .env由来のLOG_LEVELを反映する
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。ctxがキャンセルされるとサーバーとワーカーは停止する。
func Run(ctx context.Context, w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(ctx, port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// services はserveとworkerで共有するサービス群。
type services struct {
	auth        *auth.Service
	tokens      *auth.TokenManager
	plants      *plant.Service
	consumption *consumption.Service
	analytics   *analytics.Service
}

// buildServices はリポジトリとサービスを構築する。
func buildServices(db *sql.DB, cfg *config.Config, collector metrics.MetricsCollector) *services {
	log := slog.Default()

	// 1. リポジトリの初期化
	plantRepo := repository.NewPostgresPlantRepo(db)
	consumptionRepo := repository.NewPostgresConsumptionRepo(db)
	userRepo := repository.NewPostgresUserRepo(db)

	// 2. セキュリティサービスの初期化
	sanitizer := security.NewTextSanitizer()
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Lifetime: cfg.JWTExpiry,
	})

	// 3. ドメインサービスの初期化
	return &services{
		auth:   auth.NewService(userRepo, hasher, tokens, collector, log),
		tokens: tokens,
		plants: plant.NewService(plantRepo, consumptionRepo, sanitizer, plant.ServiceConfig{
			UnifiedStatusRules: cfg.UnifiedStatusRules,
		}, log),
		consumption: consumption.NewService(consumptionRepo, sanitizer, log),
		analytics:   analytics.NewService(plantRepo, consumptionRepo, policyFromConfig(cfg), collector, log),
	}
}

// policyFromConfig は設定値から集計ポリシーを組み立てる。
// 未設定の項目はanalytics.NewServiceで既定値に補完される。
func policyFromConfig(cfg *config.Config) analytics.Policy {
	return analytics.Policy{
		Intervals: analytics.IntervalTable{
			Days:     cfg.MaintenanceIntervals,
			Fallback: analytics.DefaultMaintenanceInterval,
		},
		Regions:         cfg.ReportRegions,
		DashboardWindow: cfg.DashboardWindow,
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーと保守アラートスキャンを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := database.ConnectWithRetry(ctx, cfg.DatabaseURL, database.DefaultPoolConfig(), cfg.DBConnectAttempts)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. サービスの初期化
	svc := buildServices(db, cfg, collector)

	created, err := svc.auth.EnsureDefaultAdmin(ctx, cfg.AdminBootstrapPassword)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin user: %w", err)
	}
	if !created && cfg.AdminBootstrapPassword == "" {
		slog.Info("admin bootstrap skipped (ADMIN_BOOTSTRAP_PASSWORD not set)")
	}

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitLogin),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		TokenParser:       svc.tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger: slog.Default(),

		HealthChecker:  db,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),

		AuthService: svc.auth,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},

		PlantService:       svc.plants,
		ConsumptionService: svc.consumption,
		AnalyticsService:   svc.analytics,
	}

	router := handler.NewRouter(deps)

	// 5. 保守アラートスキャンをバックグラウンドで起動
	scanner := alerts.NewScanner(svc.analytics, collector, slog.Default())
	go scanner.Start(ctx, cfg.AlertScanInterval)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// APIサーバーとは別プロセスで保守アラートスキャンのみを実行する。
// メトリクスは公開しないため、結果はログにのみ出力される。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := database.ConnectWithRetry(ctx, cfg.DatabaseURL, database.DefaultPoolConfig(), cfg.DBConnectAttempts)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	svc := buildServices(db, cfg, metrics.NopCollector{})
	scanner := alerts.NewScanner(svc.analytics, metrics.NopCollector{}, slog.Default())

	slog.Info("worker starting",
		slog.Duration("alert_scan_interval", cfg.AlertScanInterval),
	)

	// ctxがキャンセルされるまでブロックする
	scanner.Start(ctx, cfg.AlertScanInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(ctx context.Context, port string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://localhost:%s/health", port), nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
