package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mlorentedev/doctran/internal/apperr"
	"github.com/mlorentedev/doctran/internal/design"
)

// Analyzer inspects the design of a web page.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (design.Analysis, error)
}

type designRequest struct {
	URL string `json:"url"`
}

type designResponse struct {
	Success   bool            `json:"success"`
	Data      design.Analysis `json:"data"`
	URL       string          `json:"url"`
	Timestamp time.Time       `json:"timestamp"`
}

func AnalyzeDesign(a Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowPost(w, r) {
			return
		}

		var req designRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeAppError(w, apperr.Validation("URL is required"))
			return
		}

		data, err := a.Analyze(r.Context(), req.URL)
		if err != nil {
			writeAppError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, designResponse{
			Success:   true,
			Data:      data,
			URL:       req.URL,
			Timestamp: time.Now().UTC(),
		})
	}
}
