package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/medialog/internal/model"
)

// PostgresListRepo はPostgreSQLを使用したユーザーリストリポジトリ。
type PostgresListRepo struct {
	db *sql.DB
}

// NewPostgresListRepo はPostgresListRepoを生成する。
func NewPostgresListRepo(db *sql.DB) *PostgresListRepo {
	return &PostgresListRepo{db: db}
}

// FindByID は指定IDのリストエントリを取得する。見つからない場合はnilを返す。
func (r *PostgresListRepo) FindByID(ctx context.Context, id string) (*model.ListItem, error) {
	item := &model.ListItem{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, list_type, media_type, media_id, title, image_url, created_at
		 FROM user_lists WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.UserID, &item.ListType, &item.MediaType,
		&item.MediaID, &item.Title, &item.ImageURL, &item.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find list item by ID: %w", err)
	}

	return item, nil
}

// Create はリストエントリを作成する。
// 同一 (user_id, list_type, media_type, media_id) の並行書き込みは
// UNIQUE制約が排他的に解決する。
func (r *PostgresListRepo) Create(ctx context.Context, item *model.ListItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_lists (id, user_id, list_type, media_type, media_id, title, image_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.UserID, item.ListType, item.MediaType,
		item.MediaID, item.Title, item.ImageURL, item.CreatedAt,
	)
	if err != nil {
		return mapListConstraintError(err, item)
	}
	return nil
}

// Delete は指定IDのリストエントリを削除する。
func (r *PostgresListRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_lists WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete list item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewListItemNotFoundError(id)
	}
	return nil
}

// ListByUserID はユーザーの全リストエントリをcreated_at降順で返す。
// idx_user_lists_user_id を使用する。
func (r *PostgresListRepo) ListByUserID(ctx context.Context, userID string) ([]*model.ListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, list_type, media_type, media_id, title, image_url, created_at
		 FROM user_lists WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items by user: %w", err)
	}
	defer rows.Close()

	return scanListItems(rows)
}

// ListByUserIDAndType はユーザーの指定リスト種別のエントリをcreated_at降順で返す。
// idx_user_lists_user_list_type を使用する。
func (r *PostgresListRepo) ListByUserIDAndType(ctx context.Context, userID string, listType model.ListType) ([]*model.ListItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, list_type, media_type, media_id, title, image_url, created_at
		 FROM user_lists WHERE user_id = $1 AND list_type = $2 ORDER BY created_at DESC`,
		userID, listType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items by user and type: %w", err)
	}
	defer rows.Close()

	return scanListItems(rows)
}

// scanListItems は複数行の結果セットをスキャンする。
func scanListItems(rows *sql.Rows) ([]*model.ListItem, error) {
	var items []*model.ListItem
	for rows.Next() {
		item := &model.ListItem{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.ListType, &item.MediaType,
			&item.MediaID, &item.Title, &item.ImageURL, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate list item rows: %w", err)
	}
	return items, nil
}

// compile-time interface check
var _ ListRepository = (*PostgresListRepo)(nil)
