// Package model はドメインモデルを定義する。
package model

import "time"

// Profile はidentityに1対1で対応するユーザープロフィールを表す。
// IDはidentityの外部識別子と常に一致する。
// identity削除時にCASCADEで削除され、直接の削除パスは持たない。
type Profile struct {
	ID        string
	Username  *string // グローバル一意。未設定の場合はnil
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
