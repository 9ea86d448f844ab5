package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mlorentedev/doctran/internal/lang"
	"github.com/mlorentedev/doctran/internal/prompt"
)

const (
	deeplDefaultBaseURL = "https://api-free.deepl.com"
	deeplQuotaExceeded  = 456

	// OfflineFallbackName is the provider name reported for stand-in
	// translations.
	OfflineFallbackName = "deepl (offline fallback)"
)

// DeepLProvider translates through the DeepL REST API. A missing key,
// rejected credentials or an unreachable service produce a deterministic
// offline translation instead of an error.
type DeepLProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Logger  *slog.Logger
}

type deeplRequest struct {
	Text       []string `json:"text"`
	TargetLang string   `json:"target_lang"`
}

type deeplTranslation struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
}

type deeplResponse struct {
	Translations []deeplTranslation `json:"translations"`
}

type deeplErrorResponse struct {
	Message string `json:"message"`
}

func (d *DeepLProvider) Name() string { return "DeepL" }

func (d *DeepLProvider) Translate(ctx context.Context, req prompt.Request) (Response, error) {
	if d.APIKey == "" {
		return d.fallback(req, errMissingKey), nil
	}

	body, err := json.Marshal(deeplRequest{
		Text:       []string{req.SourceText},
		TargetLang: lang.DeepLCode(req.TargetLanguage),
	})
	if err != nil {
		return Response{}, fmt.Errorf("deepl: marshal request: %w", err)
	}

	baseURL := d.BaseURL
	if baseURL == "" {
		baseURL = deeplDefaultBaseURL
	}
	url := strings.TrimRight(baseURL, "/") + "/v2/translate"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("deepl: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+d.APIKey)

	resp, err := d.client().Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, Classify("deepl", fmt.Errorf("deepl: request: %w", ctxErr))
		}
		return d.fallback(req, err), nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return d.fallback(req, &StatusError{Provider: "deepl", Code: resp.StatusCode, Message: "credentials rejected"}), nil
	case resp.StatusCode != http.StatusOK:
		var errResp deeplErrorResponse
		msg := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			msg = errResp.Message
		}
		return Response{}, Classify("deepl", &StatusError{Provider: "deepl", Code: resp.StatusCode, Message: msg})
	}

	var out deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, Classify("deepl", fmt.Errorf("deepl: decode response: %w", err))
	}
	if len(out.Translations) == 0 || out.Translations[0].Text == "" {
		return Response{}, Classify("deepl", errEmptyCompletion)
	}

	r := newResponse(d.Name(), out.Translations[0].Text)
	r.DetectedSourceLanguage = out.Translations[0].DetectedSourceLanguage
	return r, nil
}

// Available reports whether a key is configured. The provider still answers
// without one, through the offline fallback.
func (d *DeepLProvider) Available() bool {
	return d.APIKey != ""
}

func (d *DeepLProvider) fallback(req prompt.Request, reason error) Response {
	d.logger().Warn("deepl unavailable, serving offline fallback",
		"language", req.TargetLanguage,
		"reason", reason,
	)
	r := newResponse(OfflineFallbackName, lang.FallbackPrefix(req.TargetLanguage)+req.SourceText)
	r.Fallback = true
	return r
}

func (d *DeepLProvider) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

func (d *DeepLProvider) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
