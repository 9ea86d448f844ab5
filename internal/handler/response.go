package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mlorentedev/doctran/internal/apperr"
	"github.com/mlorentedev/doctran/internal/extract"
)

// multipartMemory is the in-memory share of a parsed multipart form; larger
// parts spill to temporary files.
const multipartMemory = 32 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeAppError writes err with the status and kind of its envelope.
func writeAppError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	writeJSON(w, e.Status, errorResponse{Error: e.Message, Kind: string(e.Kind)})
}

// decodeJSON reads a JSON body into v and writes the error response itself
// when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeAppError(w, apperr.Validation("invalid JSON body"))
		return false
	}
	return true
}

// readUpload reads the "file" part of a multipart request.
func readUpload(w http.ResponseWriter, r *http.Request) (extract.Upload, bool) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return extract.Upload{}, false
		}
		writeAppError(w, apperr.Validation("No file uploaded"))
		return extract.Upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAppError(w, apperr.Validation("No file uploaded"))
		return extract.Upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeAppError(w, apperr.Extraction("Unable to read uploaded file", err))
		return extract.Upload{}, false
	}

	return extract.Upload{
		Data:      data,
		MediaType: header.Header.Get("Content-Type"),
		Name:      header.Filename,
		Size:      header.Size,
	}, true
}

func allowPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}
