// Package ai はAIコラボレーター（chat completions API）との連携機能を提供する。
// プロンプトの組み立て、管理者指示の集約、各AI機能のオーケストレーションを含む。
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/fintrack/internal/model"
)

// ChatParams は1回のchat completions呼び出しのパラメータ。
type ChatParams struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// ChatResult はchat completions呼び出しの結果。
type ChatResult struct {
	Content    string
	TokensUsed int
}

// ClientConfig はClientの設定を保持する。
type ClientConfig struct {
	BaseURL string // テスト用にエンドポイントを差し替え可能
	APIKey  string
	Model   string
	Timeout time.Duration // 1リクエストあたりのタイムアウト
}

// Client はchat completions APIのクライアント。
// APIキーは設定から注入され、クライアントには一切露出しない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     ClientConfig
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, config ClientConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete はsystem+userメッセージでchat completions APIを呼び出す。
// タイムアウトはAI_TIMEOUT、上流の失敗はAI_UPSTREAM、
// 応答の構造不正はAI_RESPONSE_MALFORMEDにマップされる。
func (c *Client) Complete(ctx context.Context, params ChatParams) (*ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: params.SystemPrompt},
			{Role: "user", Content: params.UserPrompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("AI request timed out",
				slog.Duration("timeout", c.config.Timeout),
			)
			return nil, model.NewAITimeoutError()
		}
		c.logger.Error("AI request failed",
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIUpstreamError()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("AI service returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewAIUpstreamError()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read AI response body",
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIUpstreamError()
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("failed to parse AI response",
			slog.String("error", err.Error()),
		)
		return nil, model.NewAIResponseMalformedError()
	}
	if len(parsed.Choices) == 0 {
		c.logger.Error("AI response contained no choices")
		return nil, model.NewAIResponseMalformedError()
	}

	return &ChatResult{
		Content:    parsed.Choices[0].Message.Content,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}
