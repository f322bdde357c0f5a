// Package model はドメインモデルを定義する。
package model

import "time"

// ListType はユーザーリストのカテゴリを表す。
type ListType string

const (
	// ListTypeWatchlist は視聴予定リスト。
	ListTypeWatchlist ListType = "watchlist"
	// ListTypeFavorites はお気に入りリスト。
	ListTypeFavorites ListType = "favorites"
	// ListTypeReadingList は読書予定リスト。
	ListTypeReadingList ListType = "reading_list"
	// ListTypeCompleted は完了済みリスト。
	ListTypeCompleted ListType = "completed"
)

// IsValidListType はリスト種別が許容値かどうかを返す。
func IsValidListType(t ListType) bool {
	switch t {
	case ListTypeWatchlist, ListTypeFavorites, ListTypeReadingList, ListTypeCompleted:
		return true
	}
	return false
}

// ListItem はユーザーリストの1エントリを表す。
// (UserID, ListType, MediaType, MediaID) の組はUNIQUE制約により高々1行。
// 同一メディアは別のリスト種別には重複して登録できる。
// 作成・閲覧・削除すべて所有者のみに許可される（エンドツーエンドで非公開）。
type ListItem struct {
	ID        string
	UserID    string
	ListType  ListType
	MediaType MediaType
	MediaID   string
	Title     string // 表示用の非正規化コピー
	ImageURL  *string
	CreatedAt time.Time
}
