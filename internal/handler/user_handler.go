package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/middleware"
	"github.com/hitoshi/medialog/internal/stats"
)

// IdentityWithdrawer は退会処理のためのインターフェース。
type IdentityWithdrawer interface {
	// Withdraw はidentityを削除する。プロフィール・レビュー・リストは
	// ストレージ層のCASCADEで一括削除される。
	Withdraw(ctx context.Context, userID string) error
}

// StatsServiceInterface は集計ハンドラーが必要とするサービスインターフェース。
type StatsServiceInterface interface {
	// Get はユーザーの投稿・リスト集計を返す。閲覧は所有者のみ。
	Get(ctx context.Context, subject authz.Subject, userID string) (*stats.UserStats, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	withdrawer IdentityWithdrawer
	stats      StatsServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(withdrawer IdentityWithdrawer, statsService StatsServiceInterface) *UserHandler {
	return &UserHandler{
		withdrawer: withdrawer,
		stats:      statsService,
	}
}

// userStatsResponse はユーザー集計のAPIレスポンス。
type userStatsResponse struct {
	ReviewCount int `json:"review_count"`
	MovieCount  int `json:"movie_count"`
	ShowCount   int `json:"show_count"`
	BookCount   int `json:"book_count"`
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.withdrawer.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMyStats は認証済みユーザー自身の集計を取得する。
// GET /api/users/me/stats
func (h *UserHandler) GetMyStats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	result, err := h.stats.Get(r.Context(), authz.User(userID), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userStatsResponse{
		ReviewCount: result.ReviewCount,
		MovieCount:  result.MovieCount,
		ShowCount:   result.ShowCount,
		BookCount:   result.BookCount,
	})
}
