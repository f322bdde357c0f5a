// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/medialog/internal/model"
)

// IdentityRepository はidentityレコードの永続化インターフェース。
// identityの作成・削除はIdPイベントの境界でのみ行われる。
type IdentityRepository interface {
	// FindByID は指定IDのidentityを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Identity, error)

	// CreateWithProfile はidentityとプロフィールを同一トランザクションで作成する。
	// プロビジョニングが失敗した場合はidentity作成ごとロールバックされる。
	CreateWithProfile(ctx context.Context, identity *model.Identity, profile *model.Profile) error

	// DeleteByID は指定IDのidentityを削除する。
	// 関連するprofiles、reviews、user_listsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ProfileRepository はプロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// Update はusernameとavatar_urlを部分更新する。
	// nilのフィールドは変更せず既存の値を維持する。
	// 対象が存在しない場合はREVIEW系と同様にnilを返した上で呼び出し側が判断する。
	Update(ctx context.Context, id string, username *string, avatarURL *string) (*model.Profile, error)
}

// ReviewRepository はレビューの永続化インターフェース。
// 重複レビューの排他はアプリケーションロックではなくUNIQUE制約が解決する。
type ReviewRepository interface {
	// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Review, error)

	// Create はレビューを作成する。
	// (user_id, media_type, media_id) の重複はDUPLICATE_REVIEWとして返る。
	Create(ctx context.Context, review *model.Review) error

	// Update はratingとreview_textを更新する。
	Update(ctx context.Context, review *model.Review) error

	// Delete は指定IDのレビューを削除する。
	Delete(ctx context.Context, id string) error

	// ListByUserID はユーザーのレビュー一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Review, error)

	// ListByMedia は指定メディアのレビュー一覧をcreated_at降順で返す。
	ListByMedia(ctx context.Context, mediaType model.MediaType, mediaID string) ([]*model.Review, error)
}

// ListRepository はユーザーリストエントリの永続化インターフェース。
type ListRepository interface {
	// FindByID は指定IDのリストエントリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ListItem, error)

	// Create はリストエントリを作成する。
	// (user_id, list_type, media_type, media_id) の重複はDUPLICATE_LIST_ITEMとして返る。
	Create(ctx context.Context, item *model.ListItem) error

	// Delete は指定IDのリストエントリを削除する。
	Delete(ctx context.Context, id string) error

	// ListByUserID はユーザーの全リストエントリをcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.ListItem, error)

	// ListByUserIDAndType はユーザーの指定リスト種別のエントリをcreated_at降順で返す。
	ListByUserIDAndType(ctx context.Context, userID string, listType model.ListType) ([]*model.ListItem, error)
}

// StatsRepository は集計クエリのインターフェース。
// 信頼されたバックエンド集計コード専用で、行単位の認可を経由しない。
// テーブル制約は通常どおり適用される。
type StatsRepository interface {
	// CountReviewsByUserID はユーザーのレビュー総数を返す。
	CountReviewsByUserID(ctx context.Context, userID string) (int, error)

	// CountListItemsByMediaType はユーザーのリストエントリ数をメディア種別で数える。
	CountListItemsByMediaType(ctx context.Context, userID string, mediaType model.MediaType) (int, error)
}
