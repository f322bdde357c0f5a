package list

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hitoshi/medialog/internal/authz"
	"github.com/hitoshi/medialog/internal/model"
)

// --- モック ---

type mockListRepo struct {
	findByIDFn            func(ctx context.Context, id string) (*model.ListItem, error)
	createFn              func(ctx context.Context, item *model.ListItem) error
	deleteFn              func(ctx context.Context, id string) error
	listByUserIDFn        func(ctx context.Context, userID string) ([]*model.ListItem, error)
	listByUserIDAndTypeFn func(ctx context.Context, userID string, listType model.ListType) ([]*model.ListItem, error)
}

func (m *mockListRepo) FindByID(ctx context.Context, id string) (*model.ListItem, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockListRepo) Create(ctx context.Context, item *model.ListItem) error {
	if m.createFn != nil {
		return m.createFn(ctx, item)
	}
	return nil
}
func (m *mockListRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}
func (m *mockListRepo) ListByUserID(ctx context.Context, userID string) ([]*model.ListItem, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockListRepo) ListByUserIDAndType(ctx context.Context, userID string, listType model.ListType) ([]*model.ListItem, error) {
	if m.listByUserIDAndTypeFn != nil {
		return m.listByUserIDAndTypeFn(ctx, userID, listType)
	}
	return nil, nil
}

type mockURLGuard struct {
	validateErr error
}

func (m *mockURLGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return http.DefaultClient
}
func (m *mockURLGuard) ValidateURL(rawURL string) error {
	return m.validateErr
}

func strPtr(s string) *string { return &s }

func newTestService(repo *mockListRepo) *Service {
	return NewService(repo, authz.NewEngine(), &mockURLGuard{})
}

// --- テスト ---

// TestService_Add は認証済みユーザーが自分のリストにエントリを
// 追加できることを検証する。
func TestService_Add(t *testing.T) {
	var created *model.ListItem
	repo := &mockListRepo{
		createFn: func(ctx context.Context, item *model.ListItem) error {
			created = item
			return nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.Add(context.Background(), authz.User("user-1"), AddInput{
		ListType:  model.ListTypeWatchlist,
		MediaType: model.MediaTypeMovie,
		MediaID:   "tmdb-603",
		Title:     "マトリックス",
	})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if got.ID == "" {
		t.Error("expected generated item ID")
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user-1")
	}
	if created == nil || created.Title != "マトリックス" {
		t.Error("item not passed to repository")
	}
}

// TestService_Add_AnonymousDenied は未認証のエントリ追加が
// 拒否されることを検証する。
func TestService_Add_AnonymousDenied(t *testing.T) {
	svc := newTestService(&mockListRepo{})

	_, err := svc.Add(context.Background(), authz.Anonymous(), AddInput{
		ListType:  model.ListTypeWatchlist,
		MediaType: model.MediaTypeMovie,
		MediaID:   "tmdb-603",
		Title:     "x",
	})
	assertErrCode(t, err, model.ErrCodeAuthorizationDenied)
}

// TestService_Add_InvalidListType は未知のリスト種別が拒否されることを検証する。
func TestService_Add_InvalidListType(t *testing.T) {
	svc := newTestService(&mockListRepo{})

	_, err := svc.Add(context.Background(), authz.User("user-1"), AddInput{
		ListType:  model.ListType("wishlist"),
		MediaType: model.MediaTypeMovie,
		MediaID:   "tmdb-603",
		Title:     "x",
	})
	assertErrCode(t, err, model.ErrCodeInvalidListType)
}

// TestService_Add_InvalidImageURL は危険なimage_urlが拒否されることを検証する。
func TestService_Add_InvalidImageURL(t *testing.T) {
	guard := &mockURLGuard{validateErr: errors.New("blocked IP address")}
	svc := NewService(&mockListRepo{}, authz.NewEngine(), guard)

	_, err := svc.Add(context.Background(), authz.User("user-1"), AddInput{
		ListType:  model.ListTypeFavorites,
		MediaType: model.MediaTypeMovie,
		MediaID:   "tmdb-603",
		Title:     "x",
		ImageURL:  strPtr("http://10.0.0.1/poster.png"),
	})
	assertErrCode(t, err, model.ErrCodeInvalidURL)
}

// TestService_Add_Duplicate は重複エントリのエラーがそのまま
// 伝播することを検証する。
func TestService_Add_Duplicate(t *testing.T) {
	repo := &mockListRepo{
		createFn: func(ctx context.Context, item *model.ListItem) error {
			return model.NewDuplicateListItemError()
		},
	}
	svc := newTestService(repo)

	_, err := svc.Add(context.Background(), authz.User("user-1"), AddInput{
		ListType:  model.ListTypeWatchlist,
		MediaType: model.MediaTypeMovie,
		MediaID:   "tmdb-603",
		Title:     "x",
	})
	assertErrCode(t, err, model.ErrCodeDuplicateListItem)
}

// TestService_Remove_Owner は所有者がエントリを削除できることを検証する。
func TestService_Remove_Owner(t *testing.T) {
	deleteCalled := false
	repo := &mockListRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.ListItem, error) {
			return &model.ListItem{ID: id, UserID: "user-1"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}
	svc := newTestService(repo)

	if err := svc.Remove(context.Background(), authz.User("user-1"), "item-1"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if !deleteCalled {
		t.Error("expected Delete to be called")
	}
}

// TestService_Remove_OtherUserDenied は他人のエントリ削除が
// 拒否されることを検証する。
func TestService_Remove_OtherUserDenied(t *testing.T) {
	repo := &mockListRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.ListItem, error) {
			return &model.ListItem{ID: id, UserID: "user-1"}, nil
		},
	}
	svc := newTestService(repo)

	err := svc.Remove(context.Background(), authz.User("user-2"), "item-1")
	assertErrCode(t, err, model.ErrCodeAuthorizationDenied)
}

// TestService_Remove_NotFound は存在しないエントリの削除が
// LIST_ITEM_NOT_FOUNDになることを検証する。
func TestService_Remove_NotFound(t *testing.T) {
	svc := newTestService(&mockListRepo{})

	err := svc.Remove(context.Background(), authz.User("user-1"), "missing")
	assertErrCode(t, err, model.ErrCodeListItemNotFound)
}

// TestService_ListByUser_Owner は所有者が自分のリストを閲覧できることを検証する。
func TestService_ListByUser_Owner(t *testing.T) {
	repo := &mockListRepo{
		listByUserIDFn: func(ctx context.Context, userID string) ([]*model.ListItem, error) {
			return []*model.ListItem{{ID: "item-1", UserID: userID}}, nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.ListByUser(context.Background(), authz.User("user-1"), "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

// TestService_ListByUser_OtherUserDenied は他人のリスト閲覧が
// 拒否されることを検証する。リストは非公開である。
func TestService_ListByUser_OtherUserDenied(t *testing.T) {
	repoCalled := false
	repo := &mockListRepo{
		listByUserIDFn: func(ctx context.Context, userID string) ([]*model.ListItem, error) {
			repoCalled = true
			return nil, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.ListByUser(context.Background(), authz.User("user-2"), "user-1")
	assertErrCode(t, err, model.ErrCodeAuthorizationDenied)
	if repoCalled {
		t.Error("repository should not be called when authorization is denied")
	}
}

// TestService_ListByUser_AnonymousDenied は未認証のリスト閲覧が
// 拒否されることを検証する。
func TestService_ListByUser_AnonymousDenied(t *testing.T) {
	svc := newTestService(&mockListRepo{})

	_, err := svc.ListByUser(context.Background(), authz.Anonymous(), "user-1")
	assertErrCode(t, err, model.ErrCodeAuthorizationDenied)
}

// TestService_ListByUserAndType はリスト種別での絞り込みを検証する。
func TestService_ListByUserAndType(t *testing.T) {
	var gotType model.ListType
	repo := &mockListRepo{
		listByUserIDAndTypeFn: func(ctx context.Context, userID string, listType model.ListType) ([]*model.ListItem, error) {
			gotType = listType
			return []*model.ListItem{{ID: "item-1", UserID: userID, ListType: listType}}, nil
		},
	}
	svc := newTestService(repo)

	got, err := svc.ListByUserAndType(context.Background(), authz.User("user-1"), "user-1", model.ListTypeFavorites)
	if err != nil {
		t.Fatalf("ListByUserAndType returned error: %v", err)
	}
	if len(got) != 1 || gotType != model.ListTypeFavorites {
		t.Errorf("unexpected result: items=%d type=%s", len(got), gotType)
	}
}

// TestService_ListByUserAndType_InvalidType は未知のリスト種別での
// 絞り込みが拒否されることを検証する。
func TestService_ListByUserAndType_InvalidType(t *testing.T) {
	svc := newTestService(&mockListRepo{})

	_, err := svc.ListByUserAndType(context.Background(), authz.User("user-1"), "user-1", model.ListType("wishlist"))
	assertErrCode(t, err, model.ErrCodeInvalidListType)
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
