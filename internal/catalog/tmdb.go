// Package catalog は外部メディアカタログAPI（TMDB、Open Library）の
// 読み取り専用クライアントを提供する。
// カタログデータはアプリケーションには永続化せず、毎回取得する。
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const (
	// tmdbDefaultEndpoint はTMDB APIのベースURL。
	tmdbDefaultEndpoint = "https://api.themoviedb.org/3"
	// tmdbImageBase はポスター画像URLのプレフィックス。
	tmdbImageBase = "https://image.tmdb.org/t/p/w500"
	// tmdbProfileImageBase は人物画像URLのプレフィックス。
	tmdbProfileImageBase = "https://image.tmdb.org/t/p/w185"
	// maxTrendingResults はトレンド一覧の最大件数。
	maxTrendingResults = 12
	// maxCastMembers は詳細に含めるキャストの最大人数。
	maxCastMembers = 10
)

// ErrNotFound はカタログに該当メディアが存在しない場合に返る。
var ErrNotFound = errors.New("catalog: media not found")

// RequestRecorder は外部カタログAPIへのリクエスト発行をプロバイダ別に記録する
// インターフェース。
type RequestRecorder interface {
	RecordCatalogRequest(provider string)
}

// TrendingItem はトレンド一覧の1件を表す。
type TrendingItem struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterURL   *string `json:"poster_url"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average"`
	Overview    string  `json:"overview,omitempty"`
}

// CastMember は出演者を表す。
type CastMember struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Character  string  `json:"character,omitempty"`
	ProfileURL *string `json:"profile_url"`
}

// MovieDetail は映画詳細を表す。
type MovieDetail struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Overview    string       `json:"overview,omitempty"`
	PosterURL   *string      `json:"poster_url"`
	ReleaseDate string       `json:"release_date,omitempty"`
	Runtime     int          `json:"runtime,omitempty"`
	VoteAverage float64      `json:"vote_average"`
	VoteCount   int          `json:"vote_count"`
	Genres      []string     `json:"genres"`
	Tagline     string       `json:"tagline,omitempty"`
	Director    string       `json:"director,omitempty"`
	Cast        []CastMember `json:"cast"`
	TrailerURL  string       `json:"trailer_url,omitempty"`
}

// ShowDetail はTV番組詳細を表す。
type ShowDetail struct {
	ID               int          `json:"id"`
	Title            string       `json:"title"`
	Overview         string       `json:"overview,omitempty"`
	PosterURL        *string      `json:"poster_url"`
	FirstAirDate     string       `json:"first_air_date,omitempty"`
	NumberOfSeasons  int          `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int          `json:"number_of_episodes,omitempty"`
	VoteAverage      float64      `json:"vote_average"`
	VoteCount        int          `json:"vote_count"`
	Genres           []string     `json:"genres"`
	Creators         []string     `json:"creators"`
	Cast             []CastMember `json:"cast"`
	TrailerURL       string       `json:"trailer_url,omitempty"`
}

// TMDBClient はTMDB APIのクライアント。
type TMDBClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	endpoint   string // テスト用にエンドポイントを差し替え可能
	recorder   RequestRecorder
}

// NewTMDBClient はTMDBClientの新しいインスタンスを生成する。
func NewTMDBClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *TMDBClient {
	return &TMDBClient{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		endpoint:   tmdbDefaultEndpoint,
	}
}

// NewTMDBClientWithRecorder はリクエスト発行をメトリクスに記録するTMDBClientを生成する。
func NewTMDBClientWithRecorder(httpClient *http.Client, logger *slog.Logger, apiKey string, recorder RequestRecorder) *TMDBClient {
	c := NewTMDBClient(httpClient, logger, apiKey)
	c.recorder = recorder
	return c
}

// tmdbTrendingResponse はトレンドAPIのレスポンス。
type tmdbTrendingResponse struct {
	Results []struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		Name        string  `json:"name"` // TV番組はnameフィールドを使う
		PosterPath  string  `json:"poster_path"`
		ReleaseDate string  `json:"release_date"`
		VoteAverage float64 `json:"vote_average"`
		Overview    string  `json:"overview"`
	} `json:"results"`
}

// TrendingMovies は週間トレンドの映画一覧を返す。
func (c *TMDBClient) TrendingMovies(ctx context.Context) ([]TrendingItem, error) {
	return c.trending(ctx, "movie")
}

// TrendingShows は週間トレンドのTV番組一覧を返す。
func (c *TMDBClient) TrendingShows(ctx context.Context) ([]TrendingItem, error) {
	return c.trending(ctx, "tv")
}

func (c *TMDBClient) trending(ctx context.Context, mediaType string) ([]TrendingItem, error) {
	body, err := c.get(ctx, fmt.Sprintf("/trending/%s/week", mediaType), nil)
	if err != nil {
		return nil, err
	}

	var resp tmdbTrendingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	items := make([]TrendingItem, 0, maxTrendingResults)
	for _, r := range resp.Results {
		if len(items) >= maxTrendingResults {
			break
		}
		title := r.Title
		if title == "" {
			title = r.Name
		}
		items = append(items, TrendingItem{
			ID:          r.ID,
			Title:       title,
			PosterURL:   tmdbImageURL(tmdbImageBase, r.PosterPath),
			ReleaseDate: r.ReleaseDate,
			VoteAverage: r.VoteAverage,
			Overview:    truncate(r.Overview, 150),
		})
	}
	return items, nil
}

// tmdbDetailResponse は映画・TV詳細APIのレスポンス。
// append_to_response=credits,videos を指定して1回で取得する。
type tmdbDetailResponse struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Runtime          int     `json:"runtime"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Tagline          string  `json:"tagline"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	CreatedBy []struct {
		Name string `json:"name"`
	} `json:"created_by"`
	Credits struct {
		Cast []struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			Character   string `json:"character"`
			ProfilePath string `json:"profile_path"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
	Videos struct {
		Results []struct {
			Key  string `json:"key"`
			Site string `json:"site"`
			Type string `json:"type"`
		} `json:"results"`
	} `json:"videos"`
}

// Movie は映画の詳細を返す。該当IDが存在しない場合はErrNotFoundを返す。
func (c *TMDBClient) Movie(ctx context.Context, movieID int) (*MovieDetail, error) {
	body, err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), map[string]string{
		"append_to_response": "credits,videos",
	})
	if err != nil {
		return nil, err
	}

	var resp tmdbDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	detail := &MovieDetail{
		ID:          resp.ID,
		Title:       resp.Title,
		Overview:    resp.Overview,
		PosterURL:   tmdbImageURL(tmdbImageBase, resp.PosterPath),
		ReleaseDate: resp.ReleaseDate,
		Runtime:     resp.Runtime,
		VoteAverage: resp.VoteAverage,
		VoteCount:   resp.VoteCount,
		Genres:      genreNames(resp),
		Tagline:     resp.Tagline,
		Cast:        castMembers(resp),
		TrailerURL:  trailerURL(resp),
	}
	for _, person := range resp.Credits.Crew {
		if person.Job == "Director" {
			detail.Director = person.Name
			break
		}
	}
	return detail, nil
}

// Show はTV番組の詳細を返す。該当IDが存在しない場合はErrNotFoundを返す。
func (c *TMDBClient) Show(ctx context.Context, showID int) (*ShowDetail, error) {
	body, err := c.get(ctx, fmt.Sprintf("/tv/%d", showID), map[string]string{
		"append_to_response": "credits,videos",
	})
	if err != nil {
		return nil, err
	}

	var resp tmdbDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	creators := make([]string, 0, len(resp.CreatedBy))
	for _, creator := range resp.CreatedBy {
		creators = append(creators, creator.Name)
	}

	return &ShowDetail{
		ID:               resp.ID,
		Title:            resp.Name,
		Overview:         resp.Overview,
		PosterURL:        tmdbImageURL(tmdbImageBase, resp.PosterPath),
		FirstAirDate:     resp.FirstAirDate,
		NumberOfSeasons:  resp.NumberOfSeasons,
		NumberOfEpisodes: resp.NumberOfEpisodes,
		VoteAverage:      resp.VoteAverage,
		VoteCount:        resp.VoteCount,
		Genres:           genreNames(resp),
		Creators:         creators,
		Cast:             castMembers(resp),
		TrailerURL:       trailerURL(resp),
	}, nil
}

// get はTMDB APIへのGETリクエストを実行しレスポンスボディを返す。
func (c *TMDBClient) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("TMDB APIキーが設定されていません")
	}

	reqURL, err := url.Parse(c.endpoint + path)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("api_key", c.apiKey)
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	if c.recorder != nil {
		c.recorder.RecordCatalogRequest("tmdb")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("TMDB APIの呼び出しに失敗しました",
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
		c.logger.Error("TMDB APIがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("TMDB APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	return body, nil
}

// tmdbImageURL は画像パスから完全な画像URLを組み立てる。パスが空ならnil。
func tmdbImageURL(base, path string) *string {
	if path == "" {
		return nil
	}
	u := base + path
	return &u
}

func genreNames(resp tmdbDetailResponse) []string {
	names := make([]string, 0, len(resp.Genres))
	for _, g := range resp.Genres {
		names = append(names, g.Name)
	}
	return names
}

func castMembers(resp tmdbDetailResponse) []CastMember {
	cast := make([]CastMember, 0, maxCastMembers)
	for _, person := range resp.Credits.Cast {
		if len(cast) >= maxCastMembers {
			break
		}
		cast = append(cast, CastMember{
			ID:         person.ID,
			Name:       person.Name,
			Character:  person.Character,
			ProfileURL: tmdbImageURL(tmdbProfileImageBase, person.ProfilePath),
		})
	}
	return cast
}

// trailerURL はYouTubeのトレーラー動画URLを探す。見つからなければ空文字列。
func trailerURL(resp tmdbDetailResponse) string {
	for _, v := range resp.Videos.Results {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			return "https://www.youtube.com/watch?v=" + v.Key
		}
	}
	return ""
}

// truncate は文字列を最大n文字に切り詰める。
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
