// Package review はメディアレビューのドメインロジックを提供する。
package review

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

// CreationRecorder はレビュー作成の発生を記録するインターフェース。
type CreationRecorder interface {
	RecordReviewCreated(mediaType string)
}

// Service はレビューのサービス層。
// 操作ごとに認可エンジンで可否を判定してからリポジトリを呼び出す。
// 重複レビューの排他はUNIQUE制約に委ね、アプリケーション側でロックは持たない。
type Service struct {
	reviewRepo repository.ReviewRepository
	authorizer *authz.Engine
	sanitizer  security.ContentSanitizerService
	recorder   CreationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reviewRepo repository.ReviewRepository,
	authorizer *authz.Engine,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		reviewRepo: reviewRepo,
		authorizer: authorizer,
		sanitizer:  sanitizer,
	}
}

// NewServiceWithRecorder はレビュー作成をメトリクスに記録するServiceを生成する。
func NewServiceWithRecorder(
	reviewRepo repository.ReviewRepository,
	authorizer *authz.Engine,
	sanitizer security.ContentSanitizerService,
	recorder CreationRecorder,
) *Service {
	return &Service{
		reviewRepo: reviewRepo,
		authorizer: authorizer,
		sanitizer:  sanitizer,
		recorder:   recorder,
	}
}

// CreateInput はレビュー作成の入力。
type CreateInput struct {
	MediaType  model.MediaType
	MediaID    string
	Rating     int
	ReviewText *string
}

// Create はレビューを作成する。作成者は認証済み主体自身のみ。
// 本文はHTMLを除去してから保存する。
// 同一ユーザー・同一メディアへの2件目はDUPLICATE_REVIEWとして失敗する。
func (s *Service) Create(ctx context.Context, subject authz.Subject, input CreateInput) (*model.Review, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityReview, authz.OperationCreate, subject.UserID); err != nil {
		return nil, err
	}

	if !model.IsValidMediaType(input.MediaType) {
		return nil, model.NewInvalidMediaTypeError(string(input.MediaType))
	}
	if input.Rating < model.RatingMin || input.Rating > model.RatingMax {
		return nil, model.NewInvalidRatingError(input.Rating)
	}

	now := time.Now()
	review := &model.Review{
		ID:         uuid.New().String(),
		UserID:     subject.UserID,
		MediaType:  input.MediaType,
		MediaID:    input.MediaID,
		Rating:     input.Rating,
		ReviewText: s.sanitizeText(input.ReviewText),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordReviewCreated(string(review.MediaType))
	}

	slog.Info("レビューを作成しました",
		slog.String("review_id", review.ID),
		slog.String("user_id", review.UserID),
		slog.String("media_type", string(review.MediaType)),
		slog.String("media_id", review.MediaID),
	)

	return review, nil
}

// UpdateInput はレビュー更新の入力。nilのフィールドは変更されない。
type UpdateInput struct {
	Rating     *int
	ReviewText *string
}

// Update はレビューを更新する。更新できるのは所有者のみ。
func (s *Service) Update(ctx context.Context, subject authz.Subject, reviewID string, input UpdateInput) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return nil, model.NewReviewNotFoundError(reviewID)
	}

	if err := s.authorizer.Authorize(subject, authz.EntityReview, authz.OperationUpdate, review.UserID); err != nil {
		return nil, err
	}

	if input.Rating != nil {
		if *input.Rating < model.RatingMin || *input.Rating > model.RatingMax {
			return nil, model.NewInvalidRatingError(*input.Rating)
		}
		review.Rating = *input.Rating
	}
	if input.ReviewText != nil {
		review.ReviewText = s.sanitizeText(input.ReviewText)
	}
	review.UpdatedAt = time.Now()

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// Delete はレビューを削除する。削除できるのは所有者のみ。
func (s *Service) Delete(ctx context.Context, subject authz.Subject, reviewID string) error {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return model.NewReviewNotFoundError(reviewID)
	}

	if err := s.authorizer.Authorize(subject, authz.EntityReview, authz.OperationDelete, review.UserID); err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}

	slog.Info("レビューを削除しました",
		slog.String("review_id", reviewID),
		slog.String("user_id", review.UserID),
	)

	return nil
}

// ListByUser はユーザーのレビュー一覧を新しい順で返す。
// レビューの閲覧は未認証を含む全主体に許可される。
func (s *Service) ListByUser(ctx context.Context, subject authz.Subject, userID string) ([]*model.Review, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityReview, authz.OperationRead, userID); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// ListByMedia は指定メディアの全レビューを新しい順で返す。
func (s *Service) ListByMedia(ctx context.Context, subject authz.Subject, mediaType model.MediaType, mediaID string) ([]*model.Review, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityReview, authz.OperationRead, ""); err != nil {
		return nil, err
	}

	if !model.IsValidMediaType(mediaType) {
		return nil, model.NewInvalidMediaTypeError(string(mediaType))
	}

	reviews, err := s.reviewRepo.ListByMedia(ctx, mediaType, mediaID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// sanitizeText はレビュー本文をサニタイズする。nilはnilのまま返す。
func (s *Service) sanitizeText(text *string) *string {
	if text == nil {
		return nil
	}
	cleaned := s.sanitizer.Sanitize(*text)
	return &cleaned
}
