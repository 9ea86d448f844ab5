package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mlorentedev/doctran/internal/adapter"
	"github.com/mlorentedev/doctran/internal/config"
)

const providerHTTPTimeout = 60 * time.Second

// BuildProviders registers every configured provider. DeepL and the mock are
// always present; chat providers are registered even without a key so that
// requests naming them fail with a configuration error rather than as
// unknown. With useMock only the mock is registered.
func BuildProviders(cfg config.Config, useMock bool, logger *slog.Logger) (map[string]adapter.Provider, []adapter.ProviderInfo) {
	providers := make(map[string]adapter.Provider)
	var infos []adapter.ProviderInfo

	mock := &adapter.MockProvider{}
	if useMock {
		mock.Delay = 500 * time.Millisecond
		providers["mock"] = mock
		infos = append(infos, adapter.ProviderInfo{ID: "mock", Name: "Mock (dev)", Kind: "mock"})
		logger.Info("mode: mock provider only")
		return providers, infos
	}

	client := &http.Client{Timeout: providerHTTPTimeout}

	openai := adapter.NewOpenAIProvider(adapter.OpenAIProvider{
		BaseURL:     cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: float32(cfg.OpenAITemperature),
		Client:      client,
	})
	providers["openai"] = openai
	infos = append(infos, adapter.ProviderInfo{ID: "openai", Name: openai.Name(), Kind: "chat", Model: openai.Model})

	claude := &adapter.ClaudeProvider{
		APIKey: cfg.ClaudeAPIKey,
		Model:  cfg.ClaudeModel,
		Client: client,
	}
	providers["claude"] = claude
	infos = append(infos, adapter.ProviderInfo{ID: "claude", Name: claude.Name(), Kind: "chat", Model: cfg.ClaudeModel})

	deepl := &adapter.DeepLProvider{
		BaseURL: cfg.DeepLBaseURL,
		APIKey:  cfg.DeepLAPIKey,
		Client:  client,
		Logger:  logger,
	}
	providers["deepl"] = deepl
	infos = append(infos, adapter.ProviderInfo{ID: "deepl", Name: deepl.Name(), Kind: "translation"})

	providers["mock"] = mock
	infos = append(infos, adapter.ProviderInfo{ID: "mock", Name: "Mock (dev)", Kind: "mock"})

	for _, info := range infos {
		logger.Info("provider registered",
			"id", info.ID,
			"model", info.Model,
			"available", providers[info.ID].Available(),
		)
	}
	return providers, infos
}
