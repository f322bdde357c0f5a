package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/list"
	"github.com/hitoshi/medialog/internal/middleware"
	"github.com/hitoshi/medialog/internal/model"
)

// ListServiceInterface はリストハンドラーが必要とするサービスインターフェース。
type ListServiceInterface interface {
	// Add はリストエントリを追加する。追加できるのは所有者のみ。
	Add(ctx context.Context, subject authz.Subject, input list.AddInput) (*model.ListItem, error)
	// Remove はリストエントリを削除する。削除できるのは所有者のみ。
	Remove(ctx context.Context, subject authz.Subject, itemID string) error
	// ListByUser は指定ユーザーの全リストエントリを返す。閲覧も所有者のみ。
	ListByUser(ctx context.Context, subject authz.Subject, userID string) ([]*model.ListItem, error)
	// ListByUserAndType は指定ユーザーの指定種別のエントリを返す。
	ListByUserAndType(ctx context.Context, subject authz.Subject, userID string, listType model.ListType) ([]*model.ListItem, error)
}

// ListHandler はユーザーリストのHTTPハンドラー。
type ListHandler struct {
	service ListServiceInterface
}

// NewListHandler はListHandlerを生成する。
func NewListHandler(service ListServiceInterface) *ListHandler {
	return &ListHandler{
		service: service,
	}
}

// addListItemRequest はリストエントリ追加リクエストのボディ。
type addListItemRequest struct {
	ListType  string  `json:"list_type"`
	MediaType string  `json:"media_type"`
	MediaID   string  `json:"media_id"`
	Title     string  `json:"title"`
	ImageURL  *string `json:"image_url"`
}

// listItemResponse はリストエントリのAPIレスポンス。
type listItemResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	ListType  string  `json:"list_type"`
	MediaType string  `json:"media_type"`
	MediaID   string  `json:"media_id"`
	Title     string  `json:"title"`
	ImageURL  *string `json:"image_url"`
	CreatedAt string  `json:"created_at"`
}

// AddListItem はリストエントリ追加を処理する。
// POST /api/users/me/lists
func (h *ListHandler) AddListItem(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req addListItemRequest
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

	item, err := h.service.Add(r.Context(), authz.User(userID), list.AddInput{
		ListType:  model.ListType(req.ListType),
		MediaType: model.MediaType(req.MediaType),
		MediaID:   req.MediaID,
		Title:     req.Title,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListItemResponse(item))
}

// RemoveListItem はリストエントリ削除を処理する。
// DELETE /api/lists/:id
func (h *ListHandler) RemoveListItem(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	itemID := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), authz.User(userID), itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMyItems は認証済みユーザー自身のリストエントリ一覧を取得する。
// typeクエリパラメータを指定するとリスト種別で絞り込む。
// GET /api/users/me/lists?type=watchlist
func (h *ListHandler) ListMyItems(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var items []*model.ListItem
	if listType := r.URL.Query().Get("type"); listType != "" {
		items, err = h.service.ListByUserAndType(r.Context(), authz.User(userID), userID, model.ListType(listType))
	} else {
		items, err = h.service.ListByUser(r.Context(), authz.User(userID), userID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]listItemResponse, len(items))
	for i, item := range items {
		results[i] = toListItemResponse(item)
	}
	writeJSON(w, http.StatusOK, results)
}

// toListItemResponse はmodel.ListItemからAPIレスポンスに変換する。
func toListItemResponse(item *model.ListItem) listItemResponse {
	return listItemResponse{
		ID:        item.ID,
		UserID:    item.UserID,
		ListType:  string(item.ListType),
		MediaType: string(item.MediaType),
		MediaID:   item.MediaID,
		Title:     item.Title,
		ImageURL:  item.ImageURL,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
	}
}
