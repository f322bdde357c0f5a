// Package list はユーザーリスト（ウォッチリスト等）のドメインロジックを提供する。
package list

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/model"
	"github.com/hitoshi/medialog/internal/repository"
	"github.com/hitoshi/medialog/internal/security"
)

// Service はユーザーリストのサービス層。
// リストは非公開で、閲覧を含む全操作が所有者のみに許可される。
type Service struct {
	listRepo   repository.ListRepository
	authorizer *authz.Engine
	urlGuard   security.URLGuardService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	listRepo repository.ListRepository,
	authorizer *authz.Engine,
	urlGuard security.URLGuardService,
) *Service {
	return &Service{
		listRepo:   listRepo,
		authorizer: authorizer,
		urlGuard:   urlGuard,
	}
}

// AddInput はリストエントリ追加の入力。
type AddInput struct {
	ListType  model.ListType
	MediaType model.MediaType
	MediaID   string
	Title     string
	ImageURL  *string
}

// Add はリストエントリを追加する。追加できるのは認証済み主体自身のリストのみ。
// 同一リストへの同一メディアの2件目はDUPLICATE_LIST_ITEMとして失敗する。
func (s *Service) Add(ctx context.Context, subject authz.Subject, input AddInput) (*model.ListItem, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityListItem, authz.OperationCreate, subject.UserID); err != nil {
		return nil, err
	}

	if !model.IsValidListType(input.ListType) {
		return nil, model.NewInvalidListTypeError(string(input.ListType))
	}
	if !model.IsValidMediaType(input.MediaType) {
		return nil, model.NewInvalidMediaTypeError(string(input.MediaType))
	}
	if input.ImageURL != nil && *input.ImageURL != "" {
		if err := s.urlGuard.ValidateURL(*input.ImageURL); err != nil {
			return nil, model.NewInvalidURLError(err.Error())
		}
	}

	item := &model.ListItem{
		ID:        uuid.New().String(),
		UserID:    subject.UserID,
		ListType:  input.ListType,
		MediaType: input.MediaType,
		MediaID:   input.MediaID,
		Title:     input.Title,
		ImageURL:  input.ImageURL,
		CreatedAt: time.Now(),
	}

	if err := s.listRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	slog.Info("リストエントリを追加しました",
		slog.String("item_id", item.ID),
		slog.String("user_id", item.UserID),
		slog.String("list_type", string(item.ListType)),
	)

	return item, nil
}

// Remove はリストエントリを削除する。削除できるのは所有者のみ。
func (s *Service) Remove(ctx context.Context, subject authz.Subject, itemID string) error {
	item, err := s.listRepo.FindByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("リストエントリの取得に失敗しました: %w", err)
	}
	if item == nil {
		return model.NewListItemNotFoundError(itemID)
	}

	if err := s.authorizer.Authorize(subject, authz.EntityListItem, authz.OperationDelete, item.UserID); err != nil {
		return err
	}

	if err := s.listRepo.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("リストエントリの削除に失敗しました: %w", err)
	}

	slog.Info("リストエントリを削除しました",
		slog.String("item_id", itemID),
		slog.String("user_id", item.UserID),
	)

	return nil
}

// ListByUser はユーザーの全リストエントリを新しい順で返す。
// 閲覧できるのは所有者のみ。
func (s *Service) ListByUser(ctx context.Context, subject authz.Subject, userID string) ([]*model.ListItem, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityListItem, authz.OperationRead, userID); err != nil {
		return nil, err
	}

	items, err := s.listRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("リストエントリ一覧の取得に失敗しました: %w", err)
	}
	return items, nil
}

// ListByUserAndType はユーザーの指定リスト種別のエントリを新しい順で返す。
// 閲覧できるのは所有者のみ。
func (s *Service) ListByUserAndType(ctx context.Context, subject authz.Subject, userID string, listType model.ListType) ([]*model.ListItem, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityListItem, authz.OperationRead, userID); err != nil {
		return nil, err
	}

	if !model.IsValidListType(listType) {
		return nil, model.NewInvalidListTypeError(string(listType))
	}

	items, err := s.listRepo.ListByUserIDAndType(ctx, userID, listType)
	if err != nil {
		return nil, fmt.Errorf("リストエントリ一覧の取得に失敗しました: %w", err)
	}
	return items, nil
}
