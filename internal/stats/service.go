// Package stats はユーザー単位の集計機能を提供する。
package stats

import (
	"context"
	"fmt"

	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/model"
	"github.com/hitoshi/medialog/internal/repository"
)

// UserStats はユーザーの活動集計を表す。
type UserStats struct {
	ReviewCount int
	MovieCount  int
	ShowCount   int
	BookCount   int
}

// Service は集計のサービス層。
// 集計にはリストエントリの件数が含まれるため、リストと同じく所有者のみ
// 取得できる。集計クエリ自体は特権サービスロールとして認可エンジンを
// 通過した上でStatsRepositoryで実行される。
type Service struct {
	statsRepo  repository.StatsRepository
	authorizer Authorizer
}

// Authorizer は集計の認可判定に必要なインターフェース。
type Authorizer interface {
	Authorize(subject authz.Subject, entity authz.Entity, op authz.Operation, ownerID string) error
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(statsRepo repository.StatsRepository, authorizer Authorizer) *Service {
	return &Service{
		statsRepo:  statsRepo,
		authorizer: authorizer,
	}
}

// Get はユーザーの活動集計を返す。
func (s *Service) Get(ctx context.Context, subject authz.Subject, userID string) (*UserStats, error) {
	if err := s.authorizer.Authorize(subject, authz.EntityListItem, authz.OperationRead, userID); err != nil {
		return nil, err
	}

	// 集計クエリは特権サービスロールとして実行する。
	svc := authz.Service()

	if err := s.authorizer.Authorize(svc, authz.EntityReview, authz.OperationRead, userID); err != nil {
		return nil, err
	}
	reviewCount, err := s.statsRepo.CountReviewsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("レビュー数の集計に失敗しました: %w", err)
	}

	stats := &UserStats{ReviewCount: reviewCount}

	counts := []struct {
		mediaType model.MediaType
		dest      *int
	}{
		{model.MediaTypeMovie, &stats.MovieCount},
		{model.MediaTypeShow, &stats.ShowCount},
		{model.MediaTypeBook, &stats.BookCount},
	}
	for _, c := range counts {
		if err := s.authorizer.Authorize(svc, authz.EntityListItem, authz.OperationRead, userID); err != nil {
			return nil, err
		}
		n, err := s.statsRepo.CountListItemsByMediaType(ctx, userID, c.mediaType)
		if err != nil {
			return nil, fmt.Errorf("リストエントリ数の集計に失敗しました: %w", err)
		}
		*c.dest = n
	}

	return stats, nil
}
