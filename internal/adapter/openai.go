package adapter

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/mlorentedev/doctran/internal/prompt"
)

const (
	openAIDefaultModel     = "gpt-4o-mini"
	openAIDefaultMaxTokens = 4000
)

// OpenAIProvider translates through an OpenAI-compatible chat completion
// endpoint. BaseURL may point at any compatible server.
type OpenAIProvider struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	// Temperature is sent as given; 0 means deterministic output.
	Temperature float32
	Client      *http.Client

	client *openai.Client
}

// NewOpenAIProvider fills defaults and builds the underlying client.
func NewOpenAIProvider(p OpenAIProvider) *OpenAIProvider {
	if p.Model == "" {
		p.Model = openAIDefaultModel
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = openAIDefaultMaxTokens
	}

	cfg := openai.DefaultConfig(p.APIKey)
	if p.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(p.BaseURL, "/")
	}
	if p.Client != nil {
		cfg.HTTPClient = p.Client
	}
	p.client = openai.NewClientWithConfig(cfg)
	return &p
}

func (o *OpenAIProvider) Name() string {
	return fmt.Sprintf("OpenAI (%s)", o.Model)
}

func (o *OpenAIProvider) Translate(ctx context.Context, req prompt.Request) (Response, error) {
	if o.client == nil {
		return Response{}, fmt.Errorf("openai: provider not initialised, use NewOpenAIProvider")
	}
	if o.APIKey == "" {
		return Response{}, Classify("openai", errMissingKey)
	}

	completion, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   o.MaxTokens,
		Temperature: wireTemperature(o.Temperature),
	})
	if err != nil {
		return Response{}, Classify("openai", fmt.Errorf("openai: chat completion: %w", err))
	}

	if len(completion.Choices) == 0 {
		return Response{}, Classify("openai", errEmptyCompletion)
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return Response{}, Classify("openai", errEmptyCompletion)
	}

	return newResponse(o.Name(), text), nil
}

// wireTemperature keeps an explicit 0 on the wire; go-openai drops a zero
// temperature and the API would then apply its own default.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func (o *OpenAIProvider) Available() bool {
	return o.APIKey != ""
}
