// Package identity はidentity登録イベントの処理と退会処理のドメインロジックを提供する。
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/medialog/internal/model"
	"github.com/hitoshi/medialog/internal/repository"
)

// ProvisioningRecorder はプロビジョニングの成否を記録するインターフェース。
type ProvisioningRecorder interface {
	RecordProvisioningSuccess()
	RecordProvisioningFailure(reason string)
}

// Service はidentityの登録と退会を処理するサービス層。
// 登録時のプロフィール自動プロビジョニングもここで行う。
type Service struct {
	identityRepo repository.IdentityRepository
	recorder     ProvisioningRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(identityRepo repository.IdentityRepository) *Service {
	return &Service{identityRepo: identityRepo}
}

// NewServiceWithRecorder はプロビジョニングの成否をメトリクスに記録するServiceを生成する。
func NewServiceWithRecorder(identityRepo repository.IdentityRepository, recorder ProvisioningRecorder) *Service {
	return &Service{identityRepo: identityRepo, recorder: recorder}
}

// Register はidentity作成イベントを処理し、identityとプロフィールを
// 同一トランザクションで作成する。
// usernameはmetadata.Usernameがあればそれを、なければメールアドレスの
// ローカル部を使う。username重複を含めプロビジョニングが失敗した場合は
// identity作成ごと失敗し、部分状態は残らない。
func (s *Service) Register(ctx context.Context, id, email string, metadata *model.IdentityMetadata) (*model.Identity, *model.Profile, error) {
	if id == "" {
		id = uuid.New().String()
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		s.recordFailure("invalid_email")
		return nil, nil, model.NewProvisioningFailedError("メールアドレスの形式が不正です")
	}

	username := deriveUsername(email, metadata)
	now := time.Now()

	newIdentity := &model.Identity{
		ID:        id,
		Email:     email,
		CreatedAt: now,
	}
	newProfile := &model.Profile{
		ID:        id,
		Username:  &username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.identityRepo.CreateWithProfile(ctx, newIdentity, newProfile); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case model.ErrCodeDuplicateUsername:
				s.recordFailure("duplicate_username")
				return nil, nil, model.NewProvisioningFailedError(
					fmt.Sprintf("ユーザー名 %s は既に使用されています", username))
			case model.ErrCodeDuplicateIdentity:
				s.recordFailure("duplicate_identity")
				return nil, nil, model.NewProvisioningFailedError("このアカウントは既に登録されています")
			}
		}
		s.recordFailure("repository_error")
		return nil, nil, fmt.Errorf("identityとプロフィールの作成に失敗しました: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordProvisioningSuccess()
	}

	slog.Info("新規identityを登録しました",
		slog.String("identity_id", id),
		slog.String("username", username),
	)

	return newIdentity, newProfile, nil
}

// recordFailure はプロビジョニング失敗を理由付きで記録する。
func (s *Service) recordFailure(reason string) {
	if s.recorder != nil {
		s.recorder.RecordProvisioningFailure(reason)
	}
}

// Withdraw は退会処理を実行する。
// identityを削除すると、プロフィール・レビュー・リストエントリはCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	identity, err := s.identityRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("identityの取得に失敗しました: %w", err)
	}
	if identity == nil {
		return model.NewIdentityNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("identity_id", userID),
	)

	if err := s.identityRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("identityの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("identity_id", userID),
	)

	return nil
}

// deriveUsername はプロビジョニング時のusernameを決定する。
// メタデータにusernameが含まれればそれを、なければメールアドレスの
// ローカル部（@より前）を使う。
func deriveUsername(email string, metadata *model.IdentityMetadata) string {
	if metadata != nil && strings.TrimSpace(metadata.Username) != "" {
		return strings.TrimSpace(metadata.Username)
	}
	return email[:strings.Index(email, "@")]
}
