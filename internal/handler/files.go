package handler

import (
	"net/http"
	"time"

	"github.com/mlorentedev/doctran/internal/pipeline"
	"github.com/mlorentedev/doctran/internal/render"
)

type processFileResponse struct {
	Success  bool   `json:"success"`
	Content  string `json:"content"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// ProcessFile extracts an uploaded file and returns its text with the
// processing summary appended.
func ProcessFile(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowPost(w, r) {
			return
		}

		up, ok := readUpload(w, r)
		if !ok {
			return
		}

		out := p.ProcessFile(r.Context(), up)
		if !out.OK() {
			writeAppError(w, out.Err)
			return
		}

		writeJSON(w, http.StatusOK, processFileResponse{
			Success:  true,
			Content:  out.Content,
			FileName: up.Name,
			FileType: up.MediaType,
			FileSize: up.Size,
		})
	}
}

type translateFileResponse struct {
	Success     bool           `json:"success"`
	Translation string         `json:"translation"`
	HTML        string         `json:"html"`
	Summary     render.Summary `json:"summary"`
	Language    string         `json:"language"`
	Provider    string         `json:"provider"`
	Fallback    bool           `json:"fallback,omitempty"`
	FileName    string         `json:"fileName"`
	FileType    string         `json:"fileType"`
	FileSize    int64          `json:"fileSize"`
	Timestamp   time.Time      `json:"timestamp"`
}

// TranslateFile runs an uploaded file through the whole pipeline.
func TranslateFile(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowPost(w, r) {
			return
		}

		up, ok := readUpload(w, r)
		if !ok {
			return
		}

		language := r.FormValue("language")
		out := p.TranslateFile(r.Context(), pipeline.FileInput{
			Upload:      up,
			Language:    language,
			Tone:        r.FormValue("tone"),
			ContentType: r.FormValue("contentType"),
			Provider:    r.FormValue("provider"),
		})
		if !out.OK() {
			writeAppError(w, out.Err)
			return
		}

		writeJSON(w, http.StatusOK, translateFileResponse{
			Success:     true,
			Translation: out.Response.Text,
			HTML:        out.Rendered.HTML,
			Summary:     out.Rendered.Summary,
			Language:    language,
			Provider:    out.Response.Provider,
			Fallback:    out.Response.Fallback,
			FileName:    up.Name,
			FileType:    out.Extraction.Source,
			FileSize:    up.Size,
			Timestamp:   out.Response.Timestamp,
		})
	}
}
