// Package profile はユーザープロフィールのドメインロジックを提供する。
package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/model"
	"github.com/hitoshi/medialog/internal/repository"
	"github.com/hitoshi/medialog/internal/security"
)

// Service はプロフィールのサービス層。
// 操作ごとに認可エンジンで可否を判定してからリポジトリを呼び出す。
type Service struct {
	profileRepo repository.ProfileRepository
	authorizer  *authz.Engine
	urlGuard    security.URLGuardService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	authorizer *authz.Engine,
	urlGuard security.URLGuardService,
) *Service {
	return &Service{
		profileRepo: profileRepo,
		authorizer:  authorizer,
		urlGuard:    urlGuard,
	}
}

// Get は指定IDのプロフィールを取得する。
// プロフィールの閲覧は未認証を含む全主体に許可される。
func (s *Service) Get(ctx context.Context, subject authz.Subject, profileID string) (*model.Profile, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityProfile, authz.OperationRead, profileID); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError(profileID)
	}
	return profile, nil
}

// Update はプロフィールを部分更新する。
// 更新できるのは所有者のみ。nilのフィールドは変更されない。
// avatar_urlを指定する場合は保存前にURLの安全性を検証する。
func (s *Service) Update(ctx context.Context, subject authz.Subject, profileID string, username, avatarURL *string) (*model.Profile, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityProfile, authz.OperationUpdate, profileID); err != nil {
		return nil, err
	}

	if avatarURL != nil && *avatarURL != "" {
		if err := s.urlGuard.ValidateURL(*avatarURL); err != nil {
			return nil, model.NewInvalidURLError(err.Error())
		}
	}

	profile, err := s.profileRepo.Update(ctx, profileID, username, avatarURL)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError(profileID)
	}

	slog.Info("プロフィールを更新しました",
		slog.String("profile_id", profileID),
	)

	return profile, nil
}
