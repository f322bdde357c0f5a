package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/medialog/internal/model"
)

// PostgresStatsRepo はPostgreSQLを使用した集計リポジトリ。
// 特権サービスロール専用: 行単位の認可述語を経由せずに全行を読めるが、
// テーブル制約の適用は他のリポジトリと変わらない。
// 通常のリクエスト処理からは参照してはならない。
type PostgresStatsRepo struct {
	db *sql.DB
}

// NewPostgresStatsRepo はPostgresStatsRepoを生成する。
func NewPostgresStatsRepo(db *sql.DB) *PostgresStatsRepo {
	return &PostgresStatsRepo{db: db}
}

// CountReviewsByUserID はユーザーのレビュー総数を返す。
func (r *PostgresStatsRepo) CountReviewsByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM reviews WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// CountListItemsByMediaType はユーザーのリストエントリ数をメディア種別で数える。
func (r *PostgresStatsRepo) CountListItemsByMediaType(ctx context.Context, userID string, mediaType model.MediaType) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM user_lists WHERE user_id = $1 AND media_type = $2`,
		userID, mediaType,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count list items: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ StatsRepository = (*PostgresStatsRepo)(nil)
