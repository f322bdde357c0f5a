package review

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/model"
)

// --- モック ---

type mockReviewRepo struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Review, error)
	createFn       func(ctx context.Context, review *model.Review) error
	updateFn       func(ctx context.Context, review *model.Review) error
	deleteFn       func(ctx context.Context, id string) error
	listByUserIDFn func(ctx context.Context, userID string) ([]*model.Review, error)
	listByMediaFn  func(ctx context.Context, mediaType model.MediaType, mediaID string) ([]*model.Review, error)
}

func (m *mockReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockReviewRepo) Create(ctx context.Context, review *model.Review) error {
	if m.createFn != nil {
		return m.createFn(ctx, review)
	}
	return nil
}
func (m *mockReviewRepo) Update(ctx context.Context, review *model.Review) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, review)
	}
	return nil
}
func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}
func (m *mockReviewRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Review, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockReviewRepo) ListByMedia(ctx context.Context, mediaType model.MediaType, mediaID string) ([]*model.Review, error) {
	if m.listByMediaFn != nil {
		return m.listByMediaFn(ctx, mediaType, mediaID)
	}
	return nil, nil
}

// passthroughSanitizer はテスト用のサニタイザ。入力をそのまま返す。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return raw }

// markerSanitizer は呼び出しを記録するサニタイザ。
type markerSanitizer struct {
	called bool
}

func (m *markerSanitizer) Sanitize(raw string) string {
	m.called = true
	return "CLEANED"
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newTestService(repo *mockReviewRepo) *Service {
	return NewService(repo, authz.NewEngine(), passthroughSanitizer{})
}

// --- テスト ---

// TestService_Create は認証済みユーザーがレビューを作成できることを検証する。
func TestService_Create(t *testing.T) {
	var created *model.Review
	repo := &mockReviewRepo{
		createFn: func(ctx context.Context, review *model.Review) error {
			created = review
			return nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.Create(context.Background(), authz.User("user-1"), CreateInput{
		MediaType:  model.MediaTypeMovie,
		MediaID:    "tmdb-603",
		Rating:     9,
		ReviewText: strPtr("何度でも観たい"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if got.ID == "" {
		t.Error("expected generated review ID")
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user-1")
	}
	if created == nil || created.Rating != 9 {
		t.Error("review not passed to repository")
	}
}

// TestService_Create_AnonymousDenied は未認証のレビュー作成が
// 拒否されることを検証する。
func TestService_Create_AnonymousDenied(t *testing.T) {
	svc := newTestService(&mockReviewRepo{})

	_, err := svc.Create(context.Background(), authz.Anonymous(), CreateInput{
		MediaType: model.MediaTypeMovie,
		MediaID:   "tmdb-603",
		Rating:    5,
	})
	assertErrCode(t, err, model.ErrCodeAuthorizationDenied)
}

// TestService_Create_InvalidRating は範囲外のratingが拒否されることを検証する。
func TestService_Create_InvalidRating(t *testing.T) {
	svc := newTestService(&mockReviewRepo{})

	for _, rating := range []int{0, -1, 11, 100} {
		_, err := svc.Create(context.Background(), authz.User("user-1"), CreateInput{
			MediaType: model.MediaTypeBook,
			MediaID:   "ol-123",
			Rating:    rating,
		})
		assertErrCode(t, err, model.ErrCodeInvalidRating)
	}
}

// TestService_Create_InvalidMediaType は未知のメディア種別が
// 拒否されることを検証する。
func TestService_Create_InvalidMediaType(t *testing.T) {
	svc := newTestService(&mockReviewRepo{})

	_, err := svc.Create(context.Background(), authz.User("user-1"), CreateInput{
		MediaType: model.MediaType("podcast"),
		MediaID:   "x-1",
		Rating:    5,
	})
	assertErrCode(t, err, model.ErrCodeInvalidMediaType)
}

// TestService_Create_Duplicate は重複レビューのエラーがそのまま
// 伝播することを検証する。
func TestService_Create_Duplicate(t *testing.T) {
	repo := &mockReviewRepo{
		createFn: func(ctx context.Context, review *model.Review) error {
			return model.NewDuplicateReviewError()
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), authz.User("user-1"), CreateInput{
		MediaType: model.MediaTypeShow,
		MediaID:   "tmdb-1396",
		Rating:    8,
	})
	assertErrCode(t, err, model.ErrCodeDuplicateReview)
}

// TestService_Create_SanitizesText は本文がサニタイズされてから
// 保存されることを検証する。
func TestService_Create_SanitizesText(t *testing.T) {
	var created *model.Review
	repo := &mockReviewRepo{
		createFn: func(ctx context.Context, review *model.Review) error {
			created = review
			return nil
		},
	}
	sanitizer := &markerSanitizer{}
	svc := NewService(repo, authz.NewEngine(), sanitizer)

	_, err := svc.Create(context.Background(), authz.User("user-1"), CreateInput{
		MediaType:  model.MediaTypeMovie,
		MediaID:    "tmdb-603",
		Rating:     7,
		ReviewText: strPtr("<script>alert(1)</script>面白い"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !sanitizer.called {
		t.Error("expected sanitizer to be called")
	}
	if created.ReviewText == nil || *created.ReviewText != "CLEANED" {
		t.Errorf("ReviewText = %v, want CLEANED", created.ReviewText)
	}
}

// TestService_Update_Owner は所有者がレビューを更新できることを検証する。
func TestService_Update_Owner(t *testing.T) {
	repo := &mockReviewRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Review, error) {
			return &model.Review{ID: id, UserID: "user-1", Rating: 5}, nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.Update(context.Background(), authz.User("user-1"), "rev-1", UpdateInput{Rating: intPtr(9)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if got.Rating != 9 {
		t.Errorf("Rating = %d, want 9", got.Rating)
	}
}

// TestService_Update_OtherUserDenied は他人のレビュー更新が
// 拒否されることを検証する。
func TestService_Update_OtherUserDenied(t *testing.T) {
	repo := &mockReviewRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Review, error) {
			return &model.Review{ID: id, UserID: "user-1", Rating: 5}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), authz.User("user-2"), "rev-1", UpdateInput{Rating: intPtr(1)})
	assertErrCode(t, err, model.ErrCodeAuthorizationDenied)
}

// TestService_Update_NotFound は存在しないレビューの更新が
// REVIEW_NOT_FOUNDになることを検証する。
func TestService_Update_NotFound(t *testing.T) {
	svc := newTestService(&mockReviewRepo{})

	_, err := svc.Update(context.Background(), authz.User("user-1"), "missing", UpdateInput{Rating: intPtr(5)})
	assertErrCode(t, err, model.ErrCodeReviewNotFound)
}

// TestService_Update_InvalidRating は範囲外への更新が拒否されることを検証する。
func TestService_Update_InvalidRating(t *testing.T) {
	repo := &mockReviewRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Review, error) {
			return &model.Review{ID: id, UserID: "user-1", Rating: 5}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), authz.User("user-1"), "rev-1", UpdateInput{Rating: intPtr(0)})
	assertErrCode(t, err, model.ErrCodeInvalidRating)
}

// TestService_Delete_Owner は所有者がレビューを削除できることを検証する。
func TestService_Delete_Owner(t *testing.T) {
	deleteCalled := false
	repo := &mockReviewRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Review, error) {
			return &model.Review{ID: id, UserID: "user-1"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}
	svc := newTestService(repo)

	if err := svc.Delete(context.Background(), authz.User("user-1"), "rev-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !deleteCalled {
		t.Error("expected Delete to be called")
	}
}

// TestService_Delete_OtherUserDenied は他人のレビュー削除が
// 拒否されることを検証する。
func TestService_Delete_OtherUserDenied(t *testing.T) {
	repo := &mockReviewRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Review, error) {
			return &model.Review{ID: id, UserID: "user-1"}, nil
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), authz.User("user-2"), "rev-1")
	assertErrCode(t, err, model.ErrCodeAuthorizationDenied)
}

// TestService_ListByUser_Anonymous は未認証でも他人のレビュー一覧を
// 閲覧できることを検証する。
func TestService_ListByUser_Anonymous(t *testing.T) {
	repo := &mockReviewRepo{
		listByUserIDFn: func(ctx context.Context, userID string) ([]*model.Review, error) {
			return []*model.Review{{ID: "rev-1", UserID: userID}}, nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.ListByUser(context.Background(), authz.Anonymous(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

// TestService_ListByMedia はメディア単位のレビュー一覧を取得できることを検証する。
func TestService_ListByMedia(t *testing.T) {
	repo := &mockReviewRepo{
		listByMediaFn: func(ctx context.Context, mediaType model.MediaType, mediaID string) ([]*model.Review, error) {
			return []*model.Review{{ID: "rev-1"}, {ID: "rev-2"}}, nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.ListByMedia(context.Background(), authz.Anonymous(), model.MediaTypeMovie, "tmdb-603")
	if err != nil {
		t.Fatalf("ListByMedia returned error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

// TestService_ListByMedia_InvalidMediaType は未知のメディア種別での
// 一覧取得が拒否されることを検証する。
func TestService_ListByMedia_InvalidMediaType(t *testing.T) {
	svc := newTestService(&mockReviewRepo{})

	_, err := svc.ListByMedia(context.Background(), authz.Anonymous(), model.MediaType("podcast"), "x-1")
	assertErrCode(t, err, model.ErrCodeInvalidMediaType)
}

func assertErrCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("code = %q, want %q", apiErr.Code, wantCode)
	}
}

// mockCreationRecorder はレビュー作成記録の呼び出しを捕捉するテスト用レコーダー。
type mockCreationRecorder struct {
	mediaTypes []string
}

func (m *mockCreationRecorder) RecordReviewCreated(mediaType string) {
	m.mediaTypes = append(m.mediaTypes, mediaType)
}

// TestService_Create_RecordsMediaType は作成成功時にメディア種別が
// 記録されることを検証する。
func TestService_Create_RecordsMediaType(t *testing.T) {
	recorder := &mockCreationRecorder{}
	svc := NewServiceWithRecorder(&mockReviewRepo{}, authz.NewEngine(), passthroughSanitizer{}, recorder)

	_, err := svc.Create(context.Background(), authz.User("user-1"), CreateInput{
		MediaType: model.MediaTypeBook,
		MediaID:   "OL123W",
		Rating:    4,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(recorder.mediaTypes) != 1 || recorder.mediaTypes[0] != "book" {
		t.Errorf("recorded media types = %v, want [book]", recorder.mediaTypes)
	}
}

// TestService_Create_FailureNotRecorded は作成失敗時に記録されないことを検証する。
func TestService_Create_FailureNotRecorded(t *testing.T) {
	recorder := &mockCreationRecorder{}
	repo := &mockReviewRepo{
		createFn: func(ctx context.Context, review *model.Review) error {
			return errors.New("insert failed")
		},
	}
	svc := NewServiceWithRecorder(repo, authz.NewEngine(), passthroughSanitizer{}, recorder)

	_, err := svc.Create(context.Background(), authz.User("user-1"), CreateInput{
		MediaType: model.MediaTypeMovie,
		MediaID:   "603",
		Rating:    5,
	})
	if err == nil {
		t.Fatal("Create should fail")
	}

	if len(recorder.mediaTypes) != 0 {
		t.Errorf("recorded media types = %v, want none", recorder.mediaTypes)
	}
}
