package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/medialog/internal/catalog"
	"github.com/hitoshi/medialog/internal/model"
)

// MovieCatalogInterface は映画・TV番組カタログのインターフェース。
type MovieCatalogInterface interface {
	// TrendingMovies は今週のトレンド映画を返す。
	TrendingMovies(ctx context.Context) ([]catalog.TrendingItem, error)
	// TrendingShows は今週のトレンドTV番組を返す。
	TrendingShows(ctx context.Context) ([]catalog.TrendingItem, error)
	// Movie は映画詳細を返す。
	Movie(ctx context.Context, movieID int) (*catalog.MovieDetail, error)
	// Show はTV番組詳細を返す。
	Show(ctx context.Context, showID int) (*catalog.ShowDetail, error)
}

// BookCatalogInterface は書籍カタログのインターフェース。
type BookCatalogInterface interface {
	// TrendingBooks は今日のトレンド書籍を返す。
	TrendingBooks(ctx context.Context) ([]catalog.TrendingBook, error)
	// Book は書籍詳細を返す。
	Book(ctx context.Context, bookID string) (*catalog.BookDetail, error)
}

// CatalogHandler は外部カタログ参照のHTTPハンドラー。
// レスポンスはカタログクライアントの型をそのまま返す。
type CatalogHandler struct {
	movies MovieCatalogInterface
	books  BookCatalogInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(movies MovieCatalogInterface, books BookCatalogInterface) *CatalogHandler {
	return &CatalogHandler{
		movies: movies,
		books:  books,
	}
}

// trendingItemsResponse はトレンド映画・TV番組一覧のAPIレスポンス。
type trendingItemsResponse struct {
	Results []catalog.TrendingItem `json:"results"`
}

// trendingBooksResponse はトレンド書籍一覧のAPIレスポンス。
type trendingBooksResponse struct {
	Results []catalog.TrendingBook `json:"results"`
}

// TrendingMovies はトレンド映画一覧を取得する。
// GET /api/catalog/trending/movies
func (h *CatalogHandler) TrendingMovies(w http.ResponseWriter, r *http.Request) {
	items, err := h.movies.TrendingMovies(r.Context())
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trendingItemsResponse{Results: items})
}

// TrendingShows はトレンドTV番組一覧を取得する。
// GET /api/catalog/trending/shows
func (h *CatalogHandler) TrendingShows(w http.ResponseWriter, r *http.Request) {
	items, err := h.movies.TrendingShows(r.Context())
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trendingItemsResponse{Results: items})
}

// TrendingBooks はトレンド書籍一覧を取得する。
// GET /api/catalog/trending/books
func (h *CatalogHandler) TrendingBooks(w http.ResponseWriter, r *http.Request) {
	items, err := h.books.TrendingBooks(r.Context())
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trendingBooksResponse{Results: items})
}

// GetMovie は映画詳細を取得する。
// GET /api/catalog/movies/:id
func (h *CatalogHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeCatalogIDError(w)
		return
	}

	detail, err := h.movies.Movie(r.Context(), movieID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetShow はTV番組詳細を取得する。
// GET /api/catalog/tv/:id
func (h *CatalogHandler) GetShow(w http.ResponseWriter, r *http.Request) {
	showID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeCatalogIDError(w)
		return
	}

	detail, err := h.movies.Show(r.Context(), showID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetBook は書籍詳細を取得する。
// GET /api/catalog/books/:id
func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	detail, err := h.books.Book(r.Context(), bookID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// writeCatalogIDError はカタログIDが数値でない場合の400レスポンスを書き込む。
func writeCatalogIDError(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "カタログIDは数値で指定してください。",
		Category: "validation",
		Action:   "URLパスのIDを確認してください。",
	})
}

// handleCatalogError は外部カタログのエラーをHTTPレスポンスに変換する。
// 上流の障害はそのまま伝播させず502として返す。
func handleCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "MEDIA_NOT_FOUND",
			Message:  "指定されたメディアがカタログに見つかりません。",
			Category: "storage",
			Action:   "メディアIDを確認してください。",
		})
		return
	}

	writeAPIErrorResponse(w, http.StatusBadGateway, &model.APIError{
		Code:     "CATALOG_UNAVAILABLE",
		Message:  "外部カタログへの問い合わせに失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
