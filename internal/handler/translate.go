package handler

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/mlorentedev/doctran/internal/apperr"
	"github.com/mlorentedev/doctran/internal/extract"
	"github.com/mlorentedev/doctran/internal/pipeline"
	"github.com/mlorentedev/doctran/internal/render"
)

type translateRequest struct {
	Message     string `json:"message"`
	FileContent string `json:"fileContent"`
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	Language    string `json:"language"`
	Tone        string `json:"tone"`
	ContentType string `json:"contentType"`
	Provider    string `json:"provider"`
	// Encoding "base64" marks FileContent as raw file bytes.
	Encoding string `json:"encoding"`
}

type translateResponse struct {
	Success                bool            `json:"success"`
	Translation            string          `json:"translation"`
	Language               string          `json:"language"`
	Timestamp              time.Time       `json:"timestamp"`
	Provider               string          `json:"provider"`
	DetectedSourceLanguage string          `json:"detectedSourceLanguage,omitempty"`
	Fallback               bool            `json:"fallback,omitempty"`
	HTML                   string          `json:"html,omitempty"`
	Summary                *render.Summary `json:"summary,omitempty"`
}

// Translate handles a message or a document sent as JSON.
func Translate(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowPost(w, r) {
			return
		}

		var req translateRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		hasMessage := strings.TrimSpace(req.Message) != ""
		hasFile := strings.TrimSpace(req.FileContent) != ""
		if hasMessage && hasFile {
			writeAppError(w, apperr.Validation("Provide either message or fileContent, not both"))
			return
		}

		var out pipeline.Outcome
		switch {
		case hasFile && strings.EqualFold(req.Encoding, "base64"):
			data, err := base64.StdEncoding.DecodeString(req.FileContent)
			if err != nil {
				writeAppError(w, apperr.Validation("fileContent is not valid base64"))
				return
			}
			out = p.TranslateFile(r.Context(), pipeline.FileInput{
				Upload:      extract.Upload{Data: data, MediaType: req.FileType, Name: req.FileName},
				Language:    req.Language,
				Tone:        req.Tone,
				ContentType: req.ContentType,
				Provider:    req.Provider,
			})
		case hasFile:
			out = p.TranslateText(r.Context(), pipeline.TextInput{
				Content:     req.FileContent,
				FileName:    req.FileName,
				FileType:    req.FileType,
				Language:    req.Language,
				Tone:        req.Tone,
				ContentType: req.ContentType,
				Provider:    req.Provider,
			})
		default:
			out = p.TranslateMessage(r.Context(), pipeline.MessageInput{
				Message:  req.Message,
				Language: req.Language,
				Provider: req.Provider,
			})
		}

		if !out.OK() {
			writeAppError(w, out.Err)
			return
		}

		resp := translateResponse{
			Success:                true,
			Translation:            out.Response.Text,
			Language:               req.Language,
			Timestamp:              out.Response.Timestamp,
			Provider:               out.Response.Provider,
			DetectedSourceLanguage: out.Response.DetectedSourceLanguage,
			Fallback:               out.Response.Fallback,
			HTML:                   out.Rendered.HTML,
		}
		if hasFile {
			resp.Summary = &out.Rendered.Summary
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
