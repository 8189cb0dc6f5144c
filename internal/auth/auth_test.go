package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/triangle-practice/internal/rbac"
	"github.com/mind-engage/triangle-practice/internal/roster"
)

func TestIssueParse(t *testing.T) {
	a := NewAuthService("s3cret")
	tok, err := a.IssueJWT("Kiya", RoleStudent, "Clark")
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "Kiya", c.Sub)
	assert.Equal(t, RoleStudent, c.Role)
	assert.Equal(t, "Clark", c.Teacher)

	_, err = NewAuthService("other").Parse(tok)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestParse_Expired(t *testing.T) {
	a := NewAuthService("s3cret")
	issued := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }
	tok, err := a.IssueJWT("Clark", RoleTeacher, "Clark")
	require.NoError(t, err)

	a.now = func() time.Time { return issued.Add(9 * time.Hour) }
	_, err = a.Parse(tok)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("s3cret")
	var seen *Claims
	var role string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	tok, _ := a.IssueJWT("Clark", RoleTeacher, "Clark")
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "Clark", seen.Teacher)
	assert.Equal(t, RoleTeacher, role)
}

func TestAuthenticator_Student(t *testing.T) {
	svc := NewAuthService("s3cret")
	au := NewAuthenticator(svc, roster.Default(), nil)

	_, err := au.Student("", "Eduardo")
	assert.ErrorIs(t, err, ErrMissingStudent)
	_, err = au.Student("Englade", "  ")
	assert.ErrorIs(t, err, ErrMissingStudent)
	_, err = au.Student("Englade", "Nobody")
	assert.ErrorIs(t, err, ErrUnknownStudent)
	var le *LoginError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, MsgUnknownStudent, le.Msg)

	tok, err := au.Student(" Englade ", "Eduardo")
	require.NoError(t, err)
	c, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "Eduardo", c.Sub)
	assert.Equal(t, "Englade", c.Teacher)
}

func TestAuthenticator_Teacher(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("triangles"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewAuthService("s3cret")
	au := NewAuthenticator(svc, roster.Default(), map[string]string{"Clark": string(hash), "Ghost": string(hash)})

	_, err = au.Teacher("Clark", "")
	assert.ErrorIs(t, err, ErrMissingTeacher)
	_, err = au.Teacher("Clark", "squares")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = au.Teacher("Miller", "triangles")
	assert.ErrorIs(t, err, ErrInvalidPassword, "no hash configured")
	_, err = au.Teacher("Ghost", "triangles")
	assert.ErrorIs(t, err, ErrInvalidPassword, "not on the roster")

	var le *LoginError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, MsgInvalidPassword, le.UserMessage())
	assert.Equal(t, "invalid password", err.Error())

	tok, err := au.Teacher("Clark", "triangles")
	require.NoError(t, err)
	c, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleTeacher, c.Role)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pw")))
	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "limits are per client")

	now = now.Add(31 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"))

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, l.Sweep(time.Minute))
}

func TestLoginLimiter_Middleware(t *testing.T) {
	l := NewLoginLimiter(1)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/teacher", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
