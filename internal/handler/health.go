package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/mlorentedev/doctran/internal/adapter"
	"github.com/mlorentedev/doctran/internal/lang"
	"github.com/mlorentedev/doctran/internal/metrics"
)

type providerStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type healthResponse struct {
	Status          string                    `json:"status"`
	Version         string                    `json:"version"`
	DefaultProvider string                    `json:"defaultProvider"`
	Providers       map[string]providerStatus `json:"providers"`
	Timestamp       time.Time                 `json:"timestamp"`
}

// Health reports per-provider availability and refreshes the availability
// gauge.
func Health(providers map[string]adapter.Provider, defaultProvider, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := make(map[string]providerStatus, len(providers))
		for id, p := range providers {
			s := providerStatus{Name: p.Name(), Available: p.Available()}
			gauge := 0.0
			if s.Available {
				gauge = 1
			} else {
				s.Reason = unavailableReason(p)
			}
			metrics.ProviderAvailable.WithLabelValues(id).Set(gauge)
			statuses[id] = s
		}

		writeJSON(w, http.StatusOK, healthResponse{
			Status:          "ok",
			Version:         version,
			DefaultProvider: defaultProvider,
			Providers:       statuses,
			Timestamp:       time.Now().UTC(),
		})
	}
}

func unavailableReason(p adapter.Provider) string {
	switch p.(type) {
	case *adapter.OpenAIProvider, *adapter.ClaudeProvider:
		return "no API key"
	case *adapter.DeepLProvider:
		return "no API key, offline fallback active"
	default:
		return "unavailable"
	}
}

// Providers lists the configured providers sorted by id.
func Providers(infos []adapter.ProviderInfo) http.HandlerFunc {
	sorted := append([]adapter.ProviderInfo(nil), infos...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sorted)
	}
}

func Languages() http.HandlerFunc {
	languages := lang.All()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, languages)
	}
}
