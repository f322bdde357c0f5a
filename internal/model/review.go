// Package model はドメインモデルを定義する。
package model

import "time"

// MediaType はレビュー・リスト対象のメディア種別を表す。
type MediaType string

const (
	// MediaTypeMovie は映画。
	MediaTypeMovie MediaType = "movie"
	// MediaTypeBook は書籍。
	MediaTypeBook MediaType = "book"
	// MediaTypeShow はTV番組。
	MediaTypeShow MediaType = "show"
)

// IsValidMediaType はメディア種別が許容値かどうかを返す。
// 最終的な強制はスキーマのCHECK制約で行われ、本関数は
// ハンドラーでのクエリ解釈とテストで使用する。
func IsValidMediaType(t MediaType) bool {
	switch t {
	case MediaTypeMovie, MediaTypeBook, MediaTypeShow:
		return true
	}
	return false
}

// RatingMin とRatingMax はレビュー評価の許容範囲。
// reviewsテーブルのCHECK制約と一致させること。
const (
	RatingMin = 1
	RatingMax = 10
)

// Review はユーザーによる1メディアへの評価・感想を表す。
// (UserID, MediaType, MediaID) の組はUNIQUE制約により高々1行。
// 所有者のみ作成・更新・削除でき、閲覧は全員に公開される。
type Review struct {
	ID         string
	UserID     string
	MediaType  MediaType
	MediaID    string // 外部カタログの不透明な識別子
	Rating     int    // 1〜10
	ReviewText *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
