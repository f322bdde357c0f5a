package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/catalog"
	"github.com/hitoshi/medialog/internal/config"
	"github.com/hitoshi/medialog/internal/database"
	"github.com/hitoshi/medialog/internal/handler"
	"github.com/hitoshi/medialog/internal/identity"
	"github.com/hitoshi/medialog/internal/list"
	"github.com/hitoshi/medialog/internal/logger"
	"github.com/hitoshi/medialog/internal/metrics"
	"github.com/hitoshi/medialog/internal/middleware"
	"github.com/hitoshi/medialog/internal/profile"
	"github.com/hitoshi/medialog/internal/recs"
	"github.com/hitoshi/medialog/internal/repository"
	"github.com/hitoshi/medialog/internal/review"
	"github.com/hitoshi/medialog/internal/security"
	"github.com/hitoshi/medialog/internal/stats"
	"github.com/hitoshi/medialog/internal/token"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	identityRepo := repository.NewPostgresIdentityRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)
	listRepo := repository.NewPostgresListRepo(db)
	statsRepo := repository.NewPostgresStatsRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. セキュリティ・認可サービスの初期化
	urlGuard := security.NewURLGuard()
	sanitizer := security.NewContentSanitizer()
	authorizer := authz.NewEngineWithRecorder(collector)

	// 5. トークンサービスの初期化
	tokenService, err := token.NewService(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// 6. ドメインサービスの初期化
	identityService := identity.NewServiceWithRecorder(identityRepo, collector)
	profileService := profile.NewService(profileRepo, authorizer, urlGuard)
	reviewService := review.NewServiceWithRecorder(reviewRepo, authorizer, sanitizer, collector)
	listService := list.NewService(listRepo, authorizer, urlGuard)
	statsService := stats.NewService(statsRepo, authorizer)

	// 7. 外部APIクライアントの初期化
	// 外部APIへのリクエストはSSRF防止機能付きのHTTPクライアントで行う。
	catalogHTTPClient := urlGuard.NewSafeClient(cfg.CatalogTimeout)
	tmdbClient := catalog.NewTMDBClientWithRecorder(catalogHTTPClient, slog.Default(), cfg.TMDBAPIKey, collector)
	openLibraryClient := catalog.NewOpenLibraryClientWithRecorder(catalogHTTPClient, slog.Default(), collector)
	recsClient := recs.NewClient(urlGuard.NewSafeClient(cfg.RecsTimeout), slog.Default(), cfg.OpenAIAPIKey)

	// 8. ルーターの構築
	// configのレート制限値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.WriteRate = rate.Limit(float64(cfg.RateLimitWrite) / 60.0)
	rateLimiterCfg.WriteBurst = cfg.RateLimitWrite

	deps := &handler.RouterDeps{
		TokenVerifier:     tokenService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),

		HealthChecker:   db,
		Logger:          slog.Default(),
		MetricsRecorder: collector,
		MetricsHandler:  metrics.SetupMetricsRoute(registry),

		IdentityService: identityService,
		TokenIssuer:     tokenService,

		ProfileService: profileService,
		ReviewService:  reviewService,
		ListService:    listService,
		StatsService:   statsService,
		Withdrawer:     identityService,

		MovieCatalog: tmdbClient,
		BookCatalog:  openLibraryClient,
		Recommender:  recsClient,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
