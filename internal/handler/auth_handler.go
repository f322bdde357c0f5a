// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/medialog/internal/model"
)

// IdentityServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type IdentityServiceInterface interface {
	// Register はidentityを登録し、プロフィールを同一トランザクションで
	// 自動プロビジョニングする。
	Register(ctx context.Context, id, email string, metadata *model.IdentityMetadata) (*model.Identity, *model.Profile, error)
}

// TokenIssuer はアクセストークン発行のためのインターフェース。
type TokenIssuer interface {
	// Issue はユーザーIDとメールアドレスから署名済みトークンを発行する。
	Issue(userID, email string) (string, error)
}

// AuthHandler は登録・認証のHTTPハンドラー。
type AuthHandler struct {
	service IdentityServiceInterface
	issuer  TokenIssuer
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service IdentityServiceInterface, issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{
		service: service,
		issuer:  issuer,
	}
}

// registerRequest はidentity登録リクエストのボディ。
// IDはIdP側の識別子をそのまま引き継ぐ場合のみ指定する。
type registerRequest struct {
	ID       string `json:"id,omitempty"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// registerResponse はidentity登録のAPIレスポンス。
type registerResponse struct {
	Token    string          `json:"token"`
	Identity identitySummary `json:"identity"`
	Profile  profileResponse `json:"profile"`
}

// identitySummary はレスポンスに含めるidentityの要約。
type identitySummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register はidentity登録とプロフィールのプロビジョニングを処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "メールアドレスは必須です。",
			Category: "validation",
			Action:   "emailフィールドを指定してください。",
		})
		return
	}

	var metadata *model.IdentityMetadata
	if req.Username != "" {
		metadata = &model.IdentityMetadata{Username: req.Username}
	}

	identity, profile, err := h.service.Register(r.Context(), req.ID, req.Email, metadata)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.issuer.Issue(identity.ID, identity.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Token: token,
		Identity: identitySummary{
			ID:    identity.ID,
			Email: identity.Email,
		},
		Profile: toProfileResponse(profile),
	})
}
