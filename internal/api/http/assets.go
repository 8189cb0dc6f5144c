package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/triangle-practice/internal/storage"
)

// MountAssets serves item images and screenshots from the blob store.
// Stores that hand out absolute signed URLs (minio) get a redirect; the
// rest are streamed. Snapshots live in the same store and are never served.
func MountAssets(r chi.Router, bs storage.BlobStore, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	// GET /assets/*   -> returns the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key, err := storage.CleanKey(chi.URLParam(r, "*"))
		if err != nil || strings.HasPrefix(key, "snapshots/") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		signed, err := bs.SignedURL(r.Context(), key)
		if err != nil {
			log.Warn("signing asset url failed", zap.String("key", key), zap.Error(err))
		} else if u, perr := url.Parse(signed); perr == nil && u.IsAbs() {
			http.Redirect(w, r, signed, http.StatusFound)
			return
		}

		rc, err := bs.Get(r.Context(), key)
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "store error", http.StatusBadGateway)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", storage.ContentType(key))
		_, _ = io.Copy(w, rc)
	})
}
