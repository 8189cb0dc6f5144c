package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/auth"
	"github.com/mind-engage/triangle-practice/internal/dashboard"
	"github.com/mind-engage/triangle-practice/internal/metrics"
	"github.com/mind-engage/triangle-practice/internal/practice"
	"github.com/mind-engage/triangle-practice/internal/records"
	"github.com/mind-engage/triangle-practice/internal/roster"
	"github.com/mind-engage/triangle-practice/internal/storage"
)

type harness struct {
	srv   *httptest.Server
	store records.Store
	blobs *storage.FSStore
	auth  *auth.AuthService
}

type downStore struct{ records.Unavailable }

func (downStore) Select(context.Context, records.Filter, records.Page) ([]attempt.Record, error) {
	return nil, errors.Join(records.ErrOperationFailed, errors.New("pq: relation missing"))
}

func (downStore) Ping(context.Context) error { return records.ErrUnavailable }

func newHarness(t *testing.T, store records.Store) *harness {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("triangles"), bcrypt.MinCost)
	require.NoError(t, err)
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	svc := auth.NewAuthService("test-secret")
	m := metrics.New()
	d := Deps{
		Auth:          svc,
		Authenticator: auth.NewAuthenticator(svc, roster.Default(), map[string]string{"Clark": string(hash)}),
		Practice:      practice.NewService(practice.Deps{Store: store, Metrics: m}),
		Dashboard:     dashboard.NewService(dashboard.Deps{Store: store, Metrics: m}),
		Blobs:         blobs,
		Metrics:       m,
		CORSOrigins:   []string{"http://localhost:5173"},
	}
	if p, ok := store.(Pinger); ok {
		d.Ready = p
	}
	h := &harness{srv: httptest.NewServer(NewRouter(d)), store: store, blobs: blobs, auth: svc}
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func (h *harness) login(t *testing.T, path string, body any) string {
	t.Helper()
	resp, b := h.do(t, http.MethodPost, path, "", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(b, &tok))
	return tok.AccessToken
}

func TestStudentFlow(t *testing.T) {
	h := newHarness(t, records.NewMemStore())

	resp, b := h.do(t, http.MethodPost, "/auth/student", "", map[string]string{"teacher": "Clark"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(b), "Please select your teacher and your name.")

	tok := h.login(t, "/auth/student", map[string]string{"teacher": "Clark", "student": "Violet A"})

	resp, b = h.do(t, http.MethodGet, "/practice/questions", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(b), `"correct":"c"`)

	resp, b = h.do(t, http.MethodPost, "/practice/sessions", tok, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))
	var scr practice.Screen
	require.NoError(t, json.Unmarshal(b, &scr))
	require.NotEmpty(t, scr.SessionID)

	resp, b = h.do(t, http.MethodPost, "/practice/sessions/"+scr.SessionID+"/intents", tok,
		map[string]any{"type": "check_answer", "question_id": 3, "answer": "c"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	var res practice.Result
	require.NoError(t, json.Unmarshal(b, &res))
	require.NotNil(t, res.Outcome.Feedback)
	assert.Equal(t, "Correct!", res.Outcome.Feedback.Message)
	assert.True(t, res.Persisted)

	resp, _ = h.do(t, http.MethodPost, "/practice/sessions/"+scr.SessionID+"/intents", tok, map[string]any{"type": "explode"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/practice/sessions/"+scr.SessionID+"/intents", tok, map[string]any{"type": "navigate", "index": 40})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/practice/sessions/"+scr.SessionID, tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	other := h.login(t, "/auth/student", map[string]string{"teacher": "Clark", "student": "Angela A"})
	resp, _ = h.do(t, http.MethodGet, "/practice/sessions/"+scr.SessionID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/practice/sessions/nope", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/dashboard/overview", tok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "students cannot see the dashboard")
}

func TestTeacherFlow(t *testing.T) {
	at := time.Date(2025, 11, 3, 14, 7, 0, 0, time.UTC)
	store := records.NewMemStore(
		attempt.Record{Teacher: "Clark", StudentName: "Violet A", QuestionID: 3, SBG: 0.5, Correct: true, AttemptKey: 500, CreatedAt: at},
		attempt.Record{Teacher: "Clark", StudentName: "Violet A", QuestionID: 7, SBG: 1.0, Correct: false, CreatedAt: at},
		attempt.Record{Teacher: "Miller", StudentName: "Rico B", QuestionID: 3, SBG: 0.5, CreatedAt: at},
	)
	h := newHarness(t, store)

	resp, _ := h.do(t, http.MethodPost, "/auth/teacher", "", map[string]string{"teacher": "Clark", "password": "squares"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok := h.login(t, "/auth/teacher", map[string]string{"teacher": "Clark", "password": "triangles"})

	resp, _ = h.do(t, http.MethodGet, "/dashboard/overview", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, b := h.do(t, http.MethodGet, "/dashboard/overview", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ov dashboard.Overview
	require.NoError(t, json.Unmarshal(b, &ov))
	assert.Equal(t, 1, ov.Stats.Students, "only the teacher's own class")
	assert.Equal(t, 2, ov.Stats.Attempts)

	resp, _ = h.do(t, http.MethodGet, "/dashboard/questions", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, b = h.do(t, http.MethodGet, "/dashboard/students/Violet%20A", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sum dashboard.StudentSummary
	require.NoError(t, json.Unmarshal(b, &sum))
	assert.Equal(t, "Violet A", sum.Student)
	assert.Equal(t, 2, sum.Attempts)

	resp, _ = h.do(t, http.MethodGet, "/dashboard/students/Violet%20A/items", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/dashboard/students/Violet%20A/attempts/500", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = h.do(t, http.MethodGet, "/dashboard/students/Violet%20A/attempts/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = h.do(t, http.MethodGet, "/dashboard/students/Violet%20A/attempts/501", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/dashboard/export.xlsx", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Clark-")

	resp, b = h.do(t, http.MethodDelete, "/dashboard/students/Violet%20A/attempts/500", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"deleted":1}`, string(b))

	resp, b = h.do(t, http.MethodDelete, "/dashboard/students/Violet%20A", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"deleted":1}`, string(b))
	assert.Equal(t, 1, store.Len(), "other teachers' records stay")
}

func TestStoreFailureIsGeneric(t *testing.T) {
	h := newHarness(t, downStore{})
	tok := h.login(t, "/auth/teacher", map[string]string{"teacher": "Clark", "password": "triangles"})

	resp, b := h.do(t, http.MethodGet, "/dashboard/overview", tok, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(b), msgStoreFailed)
	assert.NotContains(t, string(b), "pq:")

	resp, _ = h.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnavailableStore(t *testing.T) {
	h := newHarness(t, records.Unavailable{})
	tok := h.login(t, "/auth/teacher", map[string]string{"teacher": "Clark", "password": "triangles"})

	resp, _ := h.do(t, http.MethodGet, "/dashboard/overview", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "empty dashboard")

	resp, b := h.do(t, http.MethodDelete, "/dashboard/students/Violet%20A", tok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(b), msgStoreUnavailable)

	resp, _ = h.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAssetsHealthMetrics(t *testing.T) {
	h := newHarness(t, records.NewMemStore())
	ctx := context.Background()
	_, err := h.blobs.Put(ctx, "items/3.png", strings.NewReader("png"), 3)
	require.NoError(t, err)
	_, err = h.blobs.Put(ctx, "snapshots/Clark/Violet%20A.json", strings.NewReader("[]"), 2)
	require.NoError(t, err)
	tok := h.login(t, "/auth/student", map[string]string{"teacher": "Clark", "student": "Violet A"})

	resp, b := h.do(t, http.MethodGet, "/assets/items/3.png", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png", string(b))
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, _ = h.do(t, http.MethodGet, "/assets/snapshots/Clark/Violet%2520A.json", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = h.do(t, http.MethodGet, "/assets/items/404.png", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	teacher := h.login(t, "/auth/teacher", map[string]string{"teacher": "Clark", "password": "triangles"})
	resp, _ = h.do(t, http.MethodGet, "/assets/items/3.png", teacher, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "teachers see item screenshots")

	guest, err := h.auth.IssueJWT("someone", "guest", "Clark")
	require.NoError(t, err)
	resp, _ = h.do(t, http.MethodGet, "/assets/items/3.png", guest, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, b = h.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "http_requests_total")
}

func TestLoginRateLimit(t *testing.T) {
	svc := auth.NewAuthService("x")
	r := NewRouter(Deps{
		Auth:          svc,
		Authenticator: auth.NewAuthenticator(svc, nil, nil),
		Limiter:       auth.NewLoginLimiter(1),
	})
	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/teacher", strings.NewReader(`{"teacher":"Clark","password":"x"}`))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusUnauthorized, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}
