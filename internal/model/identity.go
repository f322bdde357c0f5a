// Package model はドメインモデルを定義する。
package model

import "time"

// Identity は外部IdPが発行したプリンシパルを表す。
// 作成・削除のライフサイクルはIdP側が管理し、本サブシステムは
// identity作成イベントを受けてProfileを自動プロビジョニングする。
type Identity struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// IdentityMetadata はidentity作成イベントに付随するメタデータを表す。
// Usernameが空の場合、プロビジョニング時にメールアドレスの
// ローカル部（@より前）からusernameが導出される。
type IdentityMetadata struct {
	Username string
}
