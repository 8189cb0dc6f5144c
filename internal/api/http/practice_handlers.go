package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/triangle-practice/internal/auth"
	"github.com/mind-engage/triangle-practice/internal/practice"
	"github.com/mind-engage/triangle-practice/internal/session"
)

func ListQuestionsHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Questions())
	}
}

// POST /practice/sessions logs the token's student in and restores their
// latest attempt.
func CreateSessionHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.ClaimsFromContext(r.Context())
		if c == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		scr, err := svc.Login(r.Context(), c.Teacher, c.Sub)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, scr)
	}
}

func GetSessionHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		if !ownsSession(w, r, svc, id) {
			return
		}
		scr, err := svc.Current(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scr)
	}
}

// POST /practice/sessions/{sessionID}/intents {"type": "check_answer", ...}
func PostIntentHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		if !ownsSession(w, r, svc, id) {
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad body"})
			return
		}
		in, err := session.DecodeIntent(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		res, err := svc.Dispatch(r.Context(), id, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ownsSession rejects access to sessions opened by another student.
func ownsSession(w http.ResponseWriter, r *http.Request, svc *practice.Service, id string) bool {
	owner, err := svc.Owner(id)
	if err != nil {
		writeError(w, err)
		return false
	}
	c := auth.ClaimsFromContext(r.Context())
	if c == nil || c.Sub != owner.Student || c.Teacher != owner.Teacher {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}
