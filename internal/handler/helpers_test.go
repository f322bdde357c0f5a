package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/medialog/internal/middleware"
)

// --- テスト共通ヘルパー ---

// withUserID はリクエストコンテキストに認証済みユーザーIDを付与する。
func withUserID(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// withChiURLParam はchiのURLパラメータをリクエストコンテキストに付与する。
// 既にルートコンテキストがあればパラメータを追加する。
func withChiURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return req
}
