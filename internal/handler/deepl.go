package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/mlorentedev/doctran/internal/apperr"
	"github.com/mlorentedev/doctran/internal/pipeline"
)

// deeplProviderID is the provider key DeepL is registered under.
const deeplProviderID = "deepl"

type deeplRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type deeplResponse struct {
	Success                bool      `json:"success"`
	Translation            string    `json:"translation"`
	DetectedSourceLanguage string    `json:"detectedSourceLanguage"`
	TargetLanguage         string    `json:"targetLanguage"`
	Timestamp              time.Time `json:"timestamp"`
	Fallback               bool      `json:"fallback"`
}

// DeepL translates plain text with the DeepL provider. Without a usable
// key the offline fallback answers and fallback is true.
func DeepL(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowPost(w, r) {
			return
		}

		var req deeplRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeAppError(w, apperr.Validation("Text content is required"))
			return
		}
		if strings.TrimSpace(req.TargetLanguage) == "" {
			writeAppError(w, apperr.Validation("Target language is required"))
			return
		}

		out := p.TranslateText(r.Context(), pipeline.TextInput{
			Content:  req.Text,
			Language: req.TargetLanguage,
			Provider: deeplProviderID,
		})
		if !out.OK() {
			writeAppError(w, out.Err)
			return
		}

		writeJSON(w, http.StatusOK, deeplResponse{
			Success:                true,
			Translation:            out.Response.Text,
			DetectedSourceLanguage: out.Response.DetectedSourceLanguage,
			TargetLanguage:         req.TargetLanguage,
			Timestamp:              out.Response.Timestamp,
			Fallback:               out.Response.Fallback,
		})
	}
}
