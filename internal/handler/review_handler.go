package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/middleware"
	"github.com/hitoshi/medialog/internal/model"
	"github.com/hitoshi/medialog/internal/review"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	// Create はレビューを作成する。作成者は認証済み主体自身のみ。
	Create(ctx context.Context, subject authz.Subject, input review.CreateInput) (*model.Review, error)
	// Update はレビューを更新する。更新できるのは所有者のみ。
	Update(ctx context.Context, subject authz.Subject, reviewID string, input review.UpdateInput) (*model.Review, error)
	// Delete はレビューを削除する。削除できるのは所有者のみ。
	Delete(ctx context.Context, subject authz.Subject, reviewID string) error
	// ListByUser は指定ユーザーのレビュー一覧を返す。閲覧は誰でも可能。
	ListByUser(ctx context.Context, subject authz.Subject, userID string) ([]*model.Review, error)
	// ListByMedia は指定メディアのレビュー一覧を返す。閲覧は誰でも可能。
	ListByMedia(ctx context.Context, subject authz.Subject, mediaType model.MediaType, mediaID string) ([]*model.Review, error)
}

// ReviewHandler はレビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		service: service,
	}
}

// createReviewRequest はレビュー作成リクエストのボディ。
type createReviewRequest struct {
	MediaType  string  `json:"media_type"`
	MediaID    string  `json:"media_id"`
	Rating     int     `json:"rating"`
	ReviewText *string `json:"review_text"`
}

// updateReviewRequest はレビュー更新リクエストのボディ。
// 指定されたフィールドのみ更新する。
type updateReviewRequest struct {
	Rating     *int    `json:"rating"`
	ReviewText *string `json:"review_text"`
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	MediaType  string  `json:"media_type"`
	MediaID    string  `json:"media_id"`
	Rating     int     `json:"rating"`
	ReviewText *string `json:"review_text"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// CreateReview はレビュー作成を処理する。
// POST /api/users/me/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.MediaID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "media_idは必須です。",
			Category: "validation",
			Action:   "対象メディアの識別子を指定してください。",
		})
		return
	}

	created, err := h.service.Create(r.Context(), authz.User(userID), review.CreateInput{
		MediaType:  model.MediaType(req.MediaType),
		MediaID:    req.MediaID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(created))
}

// UpdateReview はレビュー更新を処理する。
// PATCH /api/reviews/:id
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	reviewID := chi.URLParam(r, "id")

	var req updateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), authz.User(userID), reviewID, review.UpdateInput{
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(updated))
}

// DeleteReview はレビュー削除を処理する。
// DELETE /api/reviews/:id
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	reviewID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), authz.User(userID), reviewID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMyReviews は認証済みユーザー自身のレビュー一覧を取得する。
// GET /api/users/me/reviews
func (h *ReviewHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	reviews, err := h.service.ListByUser(r.Context(), authz.User(userID), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

// ListUserReviews は指定ユーザーのレビュー一覧を取得する。
// GET /api/users/:id/reviews
func (h *ReviewHandler) ListUserReviews(w http.ResponseWriter, r *http.Request) {
	targetUserID := chi.URLParam(r, "id")

	reviews, err := h.service.ListByUser(r.Context(), subjectFromRequest(r), targetUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

// ListMediaReviews は指定メディアのレビュー一覧を取得する。
// GET /api/media/:media_type/:media_id/reviews
func (h *ReviewHandler) ListMediaReviews(w http.ResponseWriter, r *http.Request) {
	mediaType := model.MediaType(chi.URLParam(r, "media_type"))
	mediaID := chi.URLParam(r, "media_id")

	reviews, err := h.service.ListByMedia(r.Context(), subjectFromRequest(r), mediaType, mediaID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

// toReviewResponse はmodel.ReviewからAPIレスポンスに変換する。
func toReviewResponse(rev *model.Review) reviewResponse {
	return reviewResponse{
		ID:         rev.ID,
		UserID:     rev.UserID,
		MediaType:  string(rev.MediaType),
		MediaID:    rev.MediaID,
		Rating:     rev.Rating,
		ReviewText: rev.ReviewText,
		CreatedAt:  rev.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  rev.UpdatedAt.Format(time.RFC3339),
	}
}

// toReviewListResponse はレビューのスライスをAPIレスポンスに変換する。
// 空の場合もnullではなく空配列を返す。
func toReviewListResponse(reviews []*model.Review) []reviewResponse {
	results := make([]reviewResponse, len(reviews))
	for i, rev := range reviews {
		results[i] = toReviewResponse(rev)
	}
	return results
}
