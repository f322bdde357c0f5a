package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/medialog/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	review := &model.Review{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, media_type, media_id, rating, review_text, created_at, updated_at
		 FROM reviews WHERE id = $1`,
		id,
	).Scan(&review.ID, &review.UserID, &review.MediaType, &review.MediaID,
		&review.Rating, &review.ReviewText, &review.CreatedAt, &review.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}

	return review, nil
}

// Create はレビューを作成する。
// 同一 (user_id, media_type, media_id) の並行書き込みはUNIQUE制約が
// 排他的に解決し、敗者には型付きのDUPLICATE_REVIEWが返る。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, media_type, media_id, rating, review_text, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		review.ID, review.UserID, review.MediaType, review.MediaID,
		review.Rating, review.ReviewText, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		return mapReviewConstraintError(err, review)
	}
	return nil
}

// Update はratingとreview_textを更新する。
func (r *PostgresReviewRepo) Update(ctx context.Context, review *model.Review) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET rating = $2, review_text = $3, updated_at = $4 WHERE id = $1`,
		review.ID, review.Rating, review.ReviewText, review.UpdatedAt,
	)
	if err != nil {
		return mapReviewConstraintError(err, review)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewReviewNotFoundError(review.ID)
	}
	return nil
}

// Delete は指定IDのレビューを削除する。
func (r *PostgresReviewRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewReviewNotFoundError(id)
	}
	return nil
}

// ListByUserID はユーザーのレビュー一覧をcreated_at降順で返す。
// idx_reviews_user_id を使用する。
func (r *PostgresReviewRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, media_type, media_id, rating, review_text, created_at, updated_at
		 FROM reviews WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews by user: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// ListByMedia は指定メディアのレビュー一覧をcreated_at降順で返す。
// idx_reviews_media を使用する。
func (r *PostgresReviewRepo) ListByMedia(ctx context.Context, mediaType model.MediaType, mediaID string) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, media_type, media_id, rating, review_text, created_at, updated_at
		 FROM reviews WHERE media_type = $1 AND media_id = $2 ORDER BY created_at DESC`,
		mediaType, mediaID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews by media: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// scanReviews は複数行の結果セットをスキャンする。
func scanReviews(rows *sql.Rows) ([]*model.Review, error) {
	var reviews []*model.Review
	for rows.Next() {
		review := &model.Review{}
		if err := rows.Scan(&review.ID, &review.UserID, &review.MediaType, &review.MediaID,
			&review.Rating, &review.ReviewText, &review.CreatedAt, &review.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}
	return reviews, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
