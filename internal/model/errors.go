// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, storage, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	// UniqueViolation系（ストレージ層のUNIQUE制約違反）
	ErrCodeDuplicateReview   = "DUPLICATE_REVIEW"
	ErrCodeDuplicateListItem = "DUPLICATE_LIST_ITEM"
	ErrCodeDuplicateUsername = "DUPLICATE_USERNAME"
	ErrCodeDuplicateIdentity = "DUPLICATE_IDENTITY"

	// CheckViolation系（ストレージ層のCHECK制約違反）
	ErrCodeInvalidRating    = "INVALID_RATING"
	ErrCodeInvalidMediaType = "INVALID_MEDIA_TYPE"
	ErrCodeInvalidListType  = "INVALID_LIST_TYPE"

	// 認可
	ErrCodeAuthorizationDenied = "AUTHORIZATION_DENIED"

	// NotFound系
	ErrCodeIdentityNotFound = "IDENTITY_NOT_FOUND"
	ErrCodeProfileNotFound  = "PROFILE_NOT_FOUND"
	ErrCodeReviewNotFound   = "REVIEW_NOT_FOUND"
	ErrCodeListItemNotFound = "LIST_ITEM_NOT_FOUND"

	// プロビジョニング
	ErrCodeProvisioningFailed = "PROVISIONING_FAILED"

	// バリデーション
	ErrCodeInvalidURL = "INVALID_URL"
)

// NewDuplicateReviewError は同一メディアへのレビュー重複エラーを生成する。
func NewDuplicateReviewError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateReview,
		Message:  "このメディアには既にレビューを投稿しています。",
		Category: "storage",
		Action:   "新規作成ではなく既存レビューの更新を使用してください。",
	}
}

// NewDuplicateListItemError は同一リストへのエントリ重複エラーを生成する。
func NewDuplicateListItemError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateListItem,
		Message:  "このメディアは既に同じリストに登録されています。",
		Category: "storage",
		Action:   "別のリスト種別を指定するか、既存エントリを確認してください。",
	}
}

// NewDuplicateUsernameError はusernameの一意性違反エラーを生成する。
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "storage",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewDuplicateIdentityError はidentityの重複作成エラーを生成する。
func NewDuplicateIdentityError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateIdentity,
		Message:  "このidentityは既に登録されています。",
		Category: "storage",
		Action:   "既存のアカウントでログインしてください。",
	}
}

// NewInvalidRatingError は評価値の範囲外エラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", rating),
		Category: "validation",
		Action:   fmt.Sprintf("評価は%dから%dの整数で指定してください。", RatingMin, RatingMax),
	}
}

// NewInvalidMediaTypeError はメディア種別の範囲外エラーを生成する。
func NewInvalidMediaTypeError(mediaType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMediaType,
		Message:  fmt.Sprintf("無効なメディア種別です: %s", mediaType),
		Category: "validation",
		Action:   "メディア種別には movie、book、show のいずれかを指定してください。",
	}
}

// NewInvalidListTypeError はリスト種別の範囲外エラーを生成する。
func NewInvalidListTypeError(listType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidListType,
		Message:  fmt.Sprintf("無効なリスト種別です: %s", listType),
		Category: "validation",
		Action:   "リスト種別には watchlist、favorites、reading_list、completed のいずれかを指定してください。",
	}
}

// NewAuthorizationDeniedError は認可拒否エラーを生成する。
// ポリシーエンジンはallow/deny以外の情報を持たないため、
// 対象行の詳細は含めない。
func NewAuthorizationDeniedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthorizationDenied,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が所有するデータに対してのみ操作できます。",
	}
}

// NewIdentityNotFoundError はidentityが見つからない場合のエラーを生成する。
func NewIdentityNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityNotFound,
		Message:  "identityが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewProfileNotFoundError はプロフィールが見つからない場合のエラーを生成する。
func NewProfileNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("指定されたプロフィールが見つかりません: %s", id),
		Category: "storage",
		Action:   "プロフィールIDを確認してください。",
	}
}

// NewReviewNotFoundError はレビューが見つからない場合のエラーを生成する。
func NewReviewNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeReviewNotFound,
		Message:  fmt.Sprintf("指定されたレビューが見つかりません: %s", id),
		Category: "storage",
		Action:   "レビューIDを確認してください。",
	}
}

// NewListItemNotFoundError はリストエントリが見つからない場合のエラーを生成する。
func NewListItemNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeListItemNotFound,
		Message:  fmt.Sprintf("指定されたリストエントリが見つかりません: %s", id),
		Category: "storage",
		Action:   "エントリIDを確認してください。",
	}
}

// NewProvisioningFailedError はプロフィール自動作成の失敗エラーを生成する。
// identity作成と同一トランザクションで実行されるため、
// このエラーはサインアップ全体の中断を意味する。
func NewProvisioningFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeProvisioningFailed,
		Message:  fmt.Sprintf("プロフィールの作成に失敗しました: %s", reason),
		Category: "storage",
		Action:   "別のユーザー名を指定して再度登録してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "https:// で始まる公開URLを指定してください。",
	}
}
