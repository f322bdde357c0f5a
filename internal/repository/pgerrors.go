package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/hitoshi/medialog/internal/model"
)

// PostgreSQLのエラーコード。
// 制約違反はストレージ層が原子的に検出し、ここで型付きエラーに変換する。
const (
	pgUniqueViolation     = pq.ErrorCode("23505")
	pgForeignKeyViolation = pq.ErrorCode("23503")
	pgCheckViolation      = pq.ErrorCode("23514")
)

// pqError はerrからpq.Errorを取り出す。pq由来でない場合はnilを返す。
func pqError(err error) *pq.Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr
	}
	return nil
}

// mapReviewConstraintError はreviewsテーブルへの書き込みエラーを
// 制約名で判別し型付きAPIErrorに変換する。該当しない場合はそのまま返す。
func mapReviewConstraintError(err error, review *model.Review) error {
	pqErr := pqError(err)
	if pqErr == nil {
		return err
	}

	switch pqErr.Code {
	case pgUniqueViolation:
		if pqErr.Constraint == "reviews_user_media_key" {
			return model.NewDuplicateReviewError()
		}
	case pgCheckViolation:
		switch pqErr.Constraint {
		case "reviews_rating_check":
			return model.NewInvalidRatingError(review.Rating)
		case "reviews_media_type_check":
			return model.NewInvalidMediaTypeError(string(review.MediaType))
		}
	case pgForeignKeyViolation:
		return model.NewIdentityNotFoundError()
	}
	return err
}

// mapListConstraintError はuser_listsテーブルへの書き込みエラーを
// 制約名で判別し型付きAPIErrorに変換する。該当しない場合はそのまま返す。
func mapListConstraintError(err error, item *model.ListItem) error {
	pqErr := pqError(err)
	if pqErr == nil {
		return err
	}

	switch pqErr.Code {
	case pgUniqueViolation:
		if pqErr.Constraint == "user_lists_user_list_media_key" {
			return model.NewDuplicateListItemError()
		}
	case pgCheckViolation:
		switch pqErr.Constraint {
		case "user_lists_list_type_check":
			return model.NewInvalidListTypeError(string(item.ListType))
		case "user_lists_media_type_check":
			return model.NewInvalidMediaTypeError(string(item.MediaType))
		}
	case pgForeignKeyViolation:
		return model.NewIdentityNotFoundError()
	}
	return err
}

// mapProfileConstraintError はprofilesテーブルへの書き込みエラーを
// 制約名で判別し型付きAPIErrorに変換する。該当しない場合はそのまま返す。
func mapProfileConstraintError(err error, username *string) error {
	pqErr := pqError(err)
	if pqErr == nil {
		return err
	}

	switch pqErr.Code {
	case pgUniqueViolation:
		if pqErr.Constraint == "profiles_username_key" {
			name := ""
			if username != nil {
				name = *username
			}
			return model.NewDuplicateUsernameError(name)
		}
	case pgForeignKeyViolation:
		return model.NewIdentityNotFoundError()
	}
	return err
}

// mapIdentityConstraintError はidentitiesテーブルへの書き込みエラーを
// 制約名で判別し型付きAPIErrorに変換する。該当しない場合はそのまま返す。
func mapIdentityConstraintError(err error) error {
	pqErr := pqError(err)
	if pqErr == nil {
		return err
	}

	if pqErr.Code == pgUniqueViolation {
		// identities_pkey（ID重複）とidentities_email_key（email重複）の両方
		return model.NewDuplicateIdentityError()
	}
	return err
}
