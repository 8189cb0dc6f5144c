package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/triangle-practice/internal/storage"
)

// presigningStore behaves like the minio store: it hands out absolute URLs.
type presigningStore struct{ *storage.FSStore }

func (presigningStore) SignedURL(_ context.Context, key string) (string, error) {
	return "https://blobs.example.com/practice/" + key + "?X-Amz-Signature=abc", nil
}

func assetsRouter(bs storage.BlobStore) chi.Router {
	r := chi.NewRouter()
	r.Route("/assets", func(ar chi.Router) { MountAssets(ar, bs, nil) })
	return r
}

func TestAssets_RedirectsToSignedURL(t *testing.T) {
	fs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	r := assetsRouter(presigningStore{fs})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/items/3.png", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://blobs.example.com/practice/items/3.png?X-Amz-Signature=abc", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/snapshots/Clark/A.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "snapshots are never signed")
}

func TestAssets_StreamsRelativeURLStores(t *testing.T) {
	fs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	_, err = fs.Put(context.Background(), "items/7.png", strings.NewReader("png"), 3)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	assetsRouter(fs).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/items/7.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}
