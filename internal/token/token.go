// Package token はアイデンティティを表すアクセストークンの発行と検証を提供する。
// HS256で署名したJWTを使い、subにアイデンティティID、emailにメールアドレスを格納する。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "medialog"

// DefaultTokenTTL はアクセストークンの既定の有効期間。
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken はトークンが無効（署名不正・期限切れ・claims不足）の場合に返る。
var ErrInvalidToken = errors.New("invalid token")

// Claims は検証済みトークンから取り出した主体情報。
type Claims struct {
	UserID string
	Email  string
}

// tokenClaims はJWTペイロード。
type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service はアクセストークンの発行と検証を行う。
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService はトークンサービスを生成する。
// 秘密鍵が短すぎる場合はエラーを返す。
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("token secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// Issue はuserIDとemailを含む署名済みトークンを発行する。
func (s *Service) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークン文字列を検証し、含まれる主体情報を返す。
// 署名アルゴリズムをHS256に限定し、発行者と有効期限も検証する。
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenStr,
		&tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{UserID: claims.Subject, Email: claims.Email}, nil
}
