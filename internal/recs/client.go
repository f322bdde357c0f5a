// Package recs はOpenAI互換のチャット補完APIを使った
// メディアレコメンド機能を提供する。
package recs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// defaultEndpoint はOpenAI APIのベースURL。
	defaultEndpoint = "https://api.openai.com/v1"
	// defaultModel はレコメンド生成に使うモデル。
	defaultModel = "gpt-4o-mini"

	systemPrompt = "You are a movie recommendation expert. And you will only respond with what I ask. Nothing more, nothing less"
)

// RatedMedia はレコメンドの入力となる評価済みメディアを表す。
type RatedMedia struct {
	Title  string `json:"title"`
	Rating int    `json:"rating"`
}

// Client はOpenAI互換チャット補完APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		model:      defaultModel,
		endpoint:   defaultEndpoint,
	}
}

// chatRequest はチャット補完APIのリクエストボディ。
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse はチャット補完APIのレスポンスボディ。
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Recommend は評価済みメディアのリストからレコメンド文を生成する。
// APIキーが未設定の場合や入力が空の場合はエラーを返す。
func (c *Client) Recommend(ctx context.Context, rated []RatedMedia) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenAI APIキーが設定されていません")
	}
	if len(rated) == 0 {
		return "", fmt.Errorf("評価済みメディアが1件も指定されていません")
	}

	titles := make([]string, 0, len(rated))
	for _, m := range rated {
		titles = append(titles, fmt.Sprintf("%s (rated %d/10)", m.Title, m.Rating))
	}
	userPrompt := fmt.Sprintf(
		"Given the following movies and my ratings, recommend me a new movie to watch. The movies are: %s. Give me a list of movies and explain why the user will enjoy it in a sentence. Do not wrap the title in *",
		strings.Join(titles, ", "),
	)

	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("リクエストJSONの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("チャット補完APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("チャット補完APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("チャット補完APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("チャット補完APIが選択肢を返しませんでした")
	}

	return chatResp.Choices[0].Message.Content, nil
}
