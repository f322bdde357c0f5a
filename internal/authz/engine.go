// Package authz はリソースへのアクセス可否を判定する認可ポリシーエンジンを提供する。
// 行単位の所有権に基づく許可リスト方式で、リストにない組み合わせは常に拒否する。
package authz

import (
	"github.com/hitoshi/medialog/internal/model"
)

// Entity は認可対象のリソース種別。
type Entity string

const (
	EntityProfile  Entity = "profile"
	EntityReview   Entity = "review"
	EntityListItem Entity = "list_item"
)

// Operation はリソースへの操作種別。
type Operation string

const (
	OperationCreate Operation = "create"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Subject は認可判定の主体。未認証・認証済みユーザー・特権サービスの3種類がある。
type Subject struct {
	// UserID は認証済みユーザーのID。未認証の場合は空文字列。
	UserID string
	// Privileged は特権サービスロールかどうか。
	// trueの場合は行単位のポリシーを全てバイパスする。
	Privileged bool
}

// Anonymous は未認証の主体を返す。
func Anonymous() Subject {
	return Subject{}
}

// User は認証済みユーザーの主体を返す。
func User(userID string) Subject {
	return Subject{UserID: userID}
}

// Service は特権サービスロールの主体を返す。
func Service() Subject {
	return Subject{Privileged: true}
}

// IsAuthenticated は認証済みユーザーかどうかを返す。
func (s Subject) IsAuthenticated() bool {
	return s.UserID != ""
}

// policyKey はポリシー表の引き当てキー。
type policyKey struct {
	entity Entity
	op     Operation
}

// effect はポリシー表の1エントリの効果。
type effect int

const (
	// allowOwner は行の所有者のみ許可する。
	allowOwner effect = iota
	// allowAnyone は未認証を含む全主体に許可する。
	allowAnyone
)

// policies は許可リスト。ここに載っていない組み合わせは全て拒否される。
// 暗黙の継承やロール階層は持たず、エントリの追加によってのみ権限が広がる。
var policies = map[policyKey]effect{
	{EntityProfile, OperationCreate}: allowOwner,
	{EntityProfile, OperationRead}:   allowAnyone,
	{EntityProfile, OperationUpdate}: allowOwner,

	{EntityReview, OperationCreate}: allowOwner,
	{EntityReview, OperationRead}:   allowAnyone,
	{EntityReview, OperationUpdate}: allowOwner,
	{EntityReview, OperationDelete}: allowOwner,

	{EntityListItem, OperationCreate}: allowOwner,
	{EntityListItem, OperationRead}:   allowOwner,
	{EntityListItem, OperationUpdate}: allowOwner,
	{EntityListItem, OperationDelete}: allowOwner,
}

// DenialRecorder は認可拒否の発生を記録するインターフェース。
type DenialRecorder interface {
	RecordAuthorizationDenied(entity string)
}

// Engine はポリシー表に基づいて認可判定を行う。
type Engine struct {
	recorder DenialRecorder
}

// NewEngine は認可エンジンを生成する。
func NewEngine() *Engine {
	return &Engine{}
}

// NewEngineWithRecorder は拒否をメトリクスに記録する認可エンジンを生成する。
func NewEngineWithRecorder(recorder DenialRecorder) *Engine {
	return &Engine{recorder: recorder}
}

// Authorize はsubjectがownerIDの所有するentityに対してopを実行できるか判定する。
// 許可される場合はnil、拒否される場合は型付きの認可エラーを返す。
func (e *Engine) Authorize(subject Subject, entity Entity, op Operation, ownerID string) error {
	if subject.Privileged {
		return nil
	}

	eff, ok := policies[policyKey{entity, op}]
	if !ok {
		return e.deny(entity)
	}

	switch eff {
	case allowAnyone:
		return nil
	case allowOwner:
		if subject.IsAuthenticated() && subject.UserID == ownerID {
			return nil
		}
	}
	return e.deny(entity)
}

// deny は拒否を記録して認可エラーを返す。
func (e *Engine) deny(entity Entity) error {
	if e.recorder != nil {
		e.recorder.RecordAuthorizationDenied(string(entity))
	}
	return model.NewAuthorizationDeniedError()
}
