package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/medialog/internal/model"
)

// PostgresIdentityRepo はPostgreSQLを使用したidentityリポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// FindByID は指定IDのidentityを取得する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	identity := &model.Identity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM identities WHERE id = $1`,
		id,
	).Scan(&identity.ID, &identity.Email, &identity.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity by ID: %w", err)
	}

	return identity, nil
}

// CreateWithProfile はidentityとプロフィールを同一トランザクションで作成する。
// プロフィールのINSERTが失敗した場合（username重複等）はidentityごと
// ロールバックされ、identityだけが残る中間状態は観測されない。
func (r *PostgresIdentityRepo) CreateWithProfile(ctx context.Context, identity *model.Identity, profile *model.Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// identityを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (id, email, created_at)
		 VALUES ($1, $2, $3)`,
		identity.ID, identity.Email, identity.CreatedAt,
	)
	if err != nil {
		return mapIdentityConstraintError(err)
	}

	// プロフィールを作成（プロビジョニング）
	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, username, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		profile.ID, profile.Username, profile.AvatarURL, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return mapProfileConstraintError(err, profile.Username)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteByID は指定IDのidentityを削除する。
// profiles、reviews、user_listsはFKのON DELETE CASCADEにより
// 同一トランザクションで原子的に削除される。
func (r *PostgresIdentityRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM identities WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewIdentityNotFoundError()
	}
	return nil
}

// compile-time interface check
var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
