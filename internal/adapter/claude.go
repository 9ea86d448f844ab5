package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mlorentedev/doctran/internal/prompt"
)

const (
	claudeDefaultBaseURL   = "https://api.anthropic.com"
	claudeDefaultMaxTokens = 4096
)

// ClaudeProvider translates through the Anthropic Messages API.
type ClaudeProvider struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeMessagesRequest struct {
	Model     string          `json:"model"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

type claudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeMessagesResponse struct {
	Content []claudeContentBlock `json:"content"`
}

type claudeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *ClaudeProvider) Name() string {
	return fmt.Sprintf("Claude (%s)", c.Model)
}

func (c *ClaudeProvider) Translate(ctx context.Context, req prompt.Request) (Response, error) {
	if c.APIKey == "" {
		return Response{}, Classify("claude", errMissingKey)
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}
	reqBody := claudeMessagesRequest{
		Model:  c.Model,
		System: req.System,
		Messages: []claudeMessage{
			{Role: "user", Content: req.User},
		},
		MaxTokens: maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, fmt.Errorf("claude: marshal request: %w", err)
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = claudeDefaultBaseURL
	}
	url := strings.TrimRight(baseURL, "/") + "/v1/messages"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("claude: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client().Do(httpReq)
	if err != nil {
		return Response{}, Classify("claude", fmt.Errorf("claude: request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp claudeErrorResponse
		msg := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return Response{}, Classify("claude", &StatusError{Provider: "claude", Code: resp.StatusCode, Message: msg})
	}

	var msgResp claudeMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return Response{}, Classify("claude", fmt.Errorf("claude: decode response: %w", err))
	}

	var result strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(result.String())
	if text == "" {
		return Response{}, Classify("claude", errEmptyCompletion)
	}

	return newResponse(c.Name(), text), nil
}

func (c *ClaudeProvider) Available() bool {
	return c.APIKey != ""
}

func (c *ClaudeProvider) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}
