package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/medialog/internal/middleware"
	"github.com/hitoshi/medialog/internal/model"
	"github.com/hitoshi/medialog/internal/recs"
)

// RecommenderInterface はレコメンドハンドラーが必要とするインターフェース。
type RecommenderInterface interface {
	// Recommend は評価済みメディアの一覧からレコメンド文面を生成する。
	Recommend(ctx context.Context, rated []recs.RatedMedia) (string, error)
}

// RecsHandler はレコメンド生成のHTTPハンドラー。
type RecsHandler struct {
	recommender RecommenderInterface
}

// NewRecsHandler はRecsHandlerを生成する。
func NewRecsHandler(recommender RecommenderInterface) *RecsHandler {
	return &RecsHandler{
		recommender: recommender,
	}
}

// recsRequest はレコメンド生成リクエストのボディ。
type recsRequest struct {
	Movies []recs.RatedMedia `json:"movies"`
}

// recsResponse はレコメンド生成のAPIレスポンス。
type recsResponse struct {
	Recommendation string `json:"recommendation"`
}

// GetRecommendations は評価済みメディアからレコメンドを生成する。
// POST /api/recommendations
func (h *RecsHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	var req recsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if len(req.Movies) == 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "評価済みメディアが1件も指定されていません。",
			Category: "validation",
			Action:   "moviesフィールドに評価済みメディアを指定してください。",
		})
		return
	}

	recommendation, err := h.recommender.Recommend(r.Context(), req.Movies)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadGateway, &model.APIError{
			Code:     "RECOMMENDATION_FAILED",
			Message:  "レコメンドの生成に失敗しました。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	writeJSON(w, http.StatusOK, recsResponse{Recommendation: recommendation})
}
