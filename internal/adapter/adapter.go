package adapter

import (
	"context"
	"time"

	"github.com/mlorentedev/doctran/internal/prompt"
)

// Provider defines the contract for translation backends.
type Provider interface {
	Name() string
	Translate(ctx context.Context, req prompt.Request) (Response, error)
	Available() bool
}

// Response is the translated text returned by a provider.
type Response struct {
	Text                   string
	DetectedSourceLanguage string
	Provider               string
	Timestamp              time.Time
	Fallback               bool
}

// ProviderInfo is exposed via GET /api/providers.
type ProviderInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Model string `json:"model,omitempty"`
}

func newResponse(provider, text string) Response {
	return Response{
		Text:      text,
		Provider:  provider,
		Timestamp: time.Now().UTC(),
	}
}
