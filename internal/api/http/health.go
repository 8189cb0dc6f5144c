package http

import (
	"context"
	"net/http"
	"time"
)

// Pinger is satisfied by records.SQLStore.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
}

// ReadyzHandler reports 503 while the record store does not answer. A nil
// pinger means the service runs without a store and is always ready.
func ReadyzHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p == nil {
			writeJSON(w, http.StatusOK, map[string]string{"store": "none"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"store": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"store": "up"})
	}
}
