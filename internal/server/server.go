package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mlorentedev/doctran/internal/adapter"
	"github.com/mlorentedev/doctran/internal/handler"
	"github.com/mlorentedev/doctran/internal/middleware"
	"github.com/mlorentedev/doctran/internal/pipeline"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Pipeline      *pipeline.Pipeline
	Providers     map[string]adapter.Provider
	ProviderInfos []adapter.ProviderInfo
	Inspector     handler.Analyzer
	Version       string
	Middleware    middleware.Options
}

// SetupMux wires handlers with the full middleware chain.
func SetupMux(d Deps) http.Handler {
	mux := http.NewServeMux()

	translate := handler.Translate(d.Pipeline)
	processFile := handler.ProcessFile(d.Pipeline)

	mux.HandleFunc("/api/translate", translate)
	mux.HandleFunc("/translate", translate)
	mux.HandleFunc("/api/process-file", processFile)
	mux.HandleFunc("/process-file", processFile)
	mux.HandleFunc("/api/translate-file", handler.TranslateFile(d.Pipeline))
	mux.HandleFunc("/api/translate-deepl", handler.DeepL(d.Pipeline))
	if d.Inspector != nil {
		mux.HandleFunc("/api/analyze-design", handler.AnalyzeDesign(d.Inspector))
	}
	mux.HandleFunc("/api/health", handler.Health(d.Providers, d.Pipeline.DefaultProvider(), d.Version))
	mux.HandleFunc("/api/providers", handler.Providers(d.ProviderInfos))
	mux.HandleFunc("/api/languages", handler.Languages())
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.Chain(mux, d.Middleware)
}
