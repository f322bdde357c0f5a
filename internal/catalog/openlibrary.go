package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// openLibraryDefaultEndpoint はOpen Library APIのベースURL。
	openLibraryDefaultEndpoint = "https://openlibrary.org"
	// openLibraryCoverBase は表紙画像URLのプレフィックス。
	openLibraryCoverBase = "https://covers.openlibrary.org/b/id"
	// maxBookSubjects は詳細に含めるジャンルの最大数。
	maxBookSubjects = 10
)

// TrendingBook はトレンド書籍一覧の1件を表す。
type TrendingBook struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Author           string  `json:"author"`
	CoverURL         *string `json:"cover_url"`
	FirstPublishYear int     `json:"first_publish_year,omitempty"`
}

// BookAuthor は書籍の著者を表す。
type BookAuthor struct {
	Name string `json:"name"`
	Bio  string `json:"bio,omitempty"`
}

// BookDetail は書籍詳細を表す。
type BookDetail struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	CoverURL    *string      `json:"cover_url"`
	Authors     []BookAuthor `json:"authors"`
	Subjects    []string     `json:"subjects"`
}

// OpenLibraryClient はOpen Library APIのクライアント。APIキーは不要。
type OpenLibraryClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
	recorder   RequestRecorder
}

// NewOpenLibraryClient はOpenLibraryClientの新しいインスタンスを生成する。
func NewOpenLibraryClient(httpClient *http.Client, logger *slog.Logger) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   openLibraryDefaultEndpoint,
	}
}

// NewOpenLibraryClientWithRecorder はリクエスト発行をメトリクスに記録する
// OpenLibraryClientを生成する。
func NewOpenLibraryClientWithRecorder(httpClient *http.Client, logger *slog.Logger, recorder RequestRecorder) *OpenLibraryClient {
	c := NewOpenLibraryClient(httpClient, logger)
	c.recorder = recorder
	return c
}

// olTrendingResponse はトレンドAPIのレスポンス。
type olTrendingResponse struct {
	Works []struct {
		Key              string   `json:"key"`
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		CoverI           int      `json:"cover_i"`
		FirstPublishYear int      `json:"first_publish_year"`
	} `json:"works"`
}

// TrendingBooks は日間トレンドの書籍一覧を返す。
func (c *OpenLibraryClient) TrendingBooks(ctx context.Context) ([]TrendingBook, error) {
	body, err := c.get(ctx, "/trending/daily.json?limit=12")
	if err != nil {
		return nil, err
	}

	var resp olTrendingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	books := make([]TrendingBook, 0, maxTrendingResults)
	for _, work := range resp.Works {
		if len(books) >= maxTrendingResults {
			break
		}
		author := "Unknown"
		if len(work.AuthorName) > 0 {
			author = work.AuthorName[0]
		}
		books = append(books, TrendingBook{
			ID:               strings.TrimPrefix(work.Key, "/works/"),
			Title:            work.Title,
			Author:           author,
			CoverURL:         coverURL(work.CoverI, "M"),
			FirstPublishYear: work.FirstPublishYear,
		})
	}
	return books, nil
}

// olWorkResponse は作品詳細APIのレスポンス。
// descriptionは文字列と{"value": ...}オブジェクトの両形式がある。
type olWorkResponse struct {
	Title       string          `json:"title"`
	Description json.RawMessage `json:"description"`
	Covers      []int           `json:"covers"`
	Subjects    []string        `json:"subjects"`
	Authors     []struct {
		Author struct {
			Key string `json:"key"`
		} `json:"author"`
	} `json:"authors"`
}

// olAuthorResponse は著者詳細APIのレスポンス。
type olAuthorResponse struct {
	Name string          `json:"name"`
	Bio  json.RawMessage `json:"bio"`
}

// Book は書籍の詳細を返す。該当IDが存在しない場合はErrNotFoundを返す。
// 著者情報の取得に失敗した場合、その著者はスキップして処理を続行する。
func (c *OpenLibraryClient) Book(ctx context.Context, bookID string) (*BookDetail, error) {
	body, err := c.get(ctx, fmt.Sprintf("/works/%s.json", bookID))
	if err != nil {
		return nil, err
	}

	var resp olWorkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	detail := &BookDetail{
		ID:          bookID,
		Title:       resp.Title,
		Description: decodeTextOrValue(resp.Description),
		Subjects:    resp.Subjects,
		Authors:     []BookAuthor{},
	}
	if len(detail.Subjects) > maxBookSubjects {
		detail.Subjects = detail.Subjects[:maxBookSubjects]
	}
	if len(resp.Covers) > 0 {
		detail.CoverURL = coverURL(resp.Covers[0], "L")
	}

	for _, ref := range resp.Authors {
		key := ref.Author.Key
		if key == "" {
			continue
		}
		author, err := c.fetchAuthor(ctx, key)
		if err != nil {
			c.logger.Warn("著者情報の取得に失敗しました",
				slog.String("author_key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		detail.Authors = append(detail.Authors, *author)
	}

	return detail, nil
}

// fetchAuthor は著者詳細を取得する。
func (c *OpenLibraryClient) fetchAuthor(ctx context.Context, key string) (*BookAuthor, error) {
	body, err := c.get(ctx, key+".json")
	if err != nil {
		return nil, err
	}

	var resp olAuthorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return &BookAuthor{
		Name: resp.Name,
		Bio:  decodeTextOrValue(resp.Bio),
	}, nil
}

// get はOpen Library APIへのGETリクエストを実行しレスポンスボディを返す。
func (c *OpenLibraryClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	if c.recorder != nil {
		c.recorder.RecordCatalogRequest("openlibrary")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Open Library APIの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Open Library APIがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("Open Library APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	return body, nil
}

// coverURL は表紙IDから画像URLを組み立てる。IDが0ならnil。
// sizeは "M"（一覧用）または "L"（詳細用）。
func coverURL(coverID int, size string) *string {
	if coverID == 0 {
		return nil
	}
	u := fmt.Sprintf("%s/%d-%s.jpg", openLibraryCoverBase, coverID, size)
	return &u
}

// decodeTextOrValue は文字列または{"value": "..."}形式のJSONをデコードする。
func decodeTextOrValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	return ""
}
