package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/mlorentedev/doctran/internal/apperr"
)

var (
	errEmptyCompletion = errors.New("empty response content")
	errMissingKey      = errors.New("api key not configured")
)

// StatusError is a non-2xx answer from a provider's HTTP API.
type StatusError struct {
	Provider string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.Code, e.Message)
}

var providerLabels = map[string]string{
	"openai": "OpenAI",
	"claude": "Claude",
	"deepl":  "DeepL",
}

// Classify maps a raw provider failure to an apperr envelope. Errors that
// already carry an envelope are returned unchanged.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != "" {
		return err
	}

	label := providerLabels[provider]
	if label == "" {
		label = provider
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Provider("Translation request timed out. Please try again with a smaller file.", err)
	case errors.Is(err, context.Canceled):
		return apperr.Provider("Translation request was cancelled", err)
	case errors.Is(err, errEmptyCompletion):
		return apperr.Provider("No response from AI service", err)
	}

	status := statusCode(err)
	msg := strings.ToLower(err.Error())
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(msg, "api key") || strings.Contains(msg, "authentication"):
		return apperr.Provider(fmt.Sprintf("%s API key not configured. Please check the provider credentials.", label), err)
	case status == http.StatusTooManyRequests || status == deeplQuotaExceeded || strings.Contains(msg, "quota"):
		return apperr.Quota(fmt.Sprintf("%s API quota exceeded. Please check your account limits.", label), err)
	case strings.Contains(msg, "target_lang"):
		return apperr.New(apperr.KindValidation, "Invalid target language code.", err)
	}
	return apperr.Provider("Translation service temporarily unavailable", err)
}

func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
