package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/medialog/internal/middleware"
)

// HealthChecker はDB接続の死活確認を行う。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用系（nilの場合は対応する機能を無効化する）
	HealthChecker   HealthChecker
	Logger          *slog.Logger
	MetricsRecorder middleware.HTTPMetricsRecorder
	MetricsHandler  http.Handler

	// 登録・認証
	IdentityService IdentityServiceInterface
	TokenIssuer     TokenIssuer

	// ユーザーデータ
	ProfileService ProfileServiceInterface
	ReviewService  ReviewServiceInterface
	ListService    ListServiceInterface
	StatsService   StatsServiceInterface
	Withdrawer     IdentityWithdrawer

	// 外部カタログ・レコメンド
	MovieCatalog MovieCatalogInterface
	BookCatalog  BookCatalogInterface
	Recommender  RecommenderInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CORS
//	→ (Auth or OptionalAuth) → RateLimitMiddleware(GeneralMiddleware)
//
// 公開読み取りルートはOptionalAuthで認証任意とし、書き込み系ルートは
// 認証必須の上で書き込み専用レート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.IdentityService, deps.TokenIssuer)
	profileHandler := NewProfileHandler(deps.ProfileService)
	reviewHandler := NewReviewHandler(deps.ReviewService)
	listHandler := NewListHandler(deps.ListService)
	userHandler := NewUserHandler(deps.Withdrawer, deps.StatsService)
	catalogHandler := NewCatalogHandler(deps.MovieCatalog, deps.BookCatalog)
	recsHandler := NewRecsHandler(deps.Recommender)

	// --- 認証不要のルート ---

	// 死活監視・メトリクス
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// identity登録
	r.Post("/auth/register", authHandler.Register)

	// 外部カタログ参照
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/trending/movies", catalogHandler.TrendingMovies)
		r.Get("/trending/shows", catalogHandler.TrendingShows)
		r.Get("/trending/books", catalogHandler.TrendingBooks)
		r.Get("/movies/{id}", catalogHandler.GetMovie)
		r.Get("/tv/{id}", catalogHandler.GetShow)
		r.Get("/books/{id}", catalogHandler.GetBook)
	})

	// --- 公開読み取りルート（認証任意） ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.TokenVerifier))

		r.Get("/api/profiles/{id}", profileHandler.GetProfile)
		r.Get("/api/users/{id}/reviews", reviewHandler.ListUserReviews)
		r.Get("/api/media/{media_type}/{media_id}/reviews", reviewHandler.ListMediaReviews)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		writeLimit := deps.RateLimiter.WriteMiddleware()

		r.Route("/api/users/me", func(r chi.Router) {
			// 退会
			r.Delete("/", userHandler.Withdraw)

			// プロフィール
			r.Get("/profile", profileHandler.GetMyProfile)
			r.With(writeLimit).Patch("/profile", profileHandler.UpdateMyProfile)

			// レビュー
			r.Get("/reviews", reviewHandler.ListMyReviews)
			r.With(writeLimit).Post("/reviews", reviewHandler.CreateReview)

			// リスト
			r.Get("/lists", listHandler.ListMyItems)
			r.With(writeLimit).Post("/lists", listHandler.AddListItem)

			// 集計
			r.Get("/stats", userHandler.GetMyStats)
		})

		// レビュー個別操作
		r.Route("/api/reviews/{id}", func(r chi.Router) {
			r.With(writeLimit).Patch("/", reviewHandler.UpdateReview)
			r.With(writeLimit).Delete("/", reviewHandler.DeleteReview)
		})

		// リストエントリ個別操作
		r.With(writeLimit).Delete("/api/lists/{id}", listHandler.RemoveListItem)

		// レコメンド生成
		r.With(writeLimit).Post("/api/recommendations", recsHandler.GetRecommendations)
	})

	return r
}

// healthHandler はDB接続を確認して死活状態を返すハンドラーを生成する。
// checkerがnilの場合はプロセスの生存のみを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			if err := checker.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
