package http

import (
	"net/http"

	"github.com/mind-engage/triangle-practice/internal/auth"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}

// POST /auth/student {"teacher": "...", "student": "..."}
func StudentLoginHandler(a *auth.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Teacher string `json:"teacher"`
			Student string `json:"student"`
		}
		if !decode(w, r, &req) {
			return
		}
		tok, err := a.Student(req.Teacher, req.Student)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, Role: auth.RoleStudent})
	}
}

// POST /auth/teacher {"teacher": "...", "password": "..."}
func TeacherLoginHandler(a *auth.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Teacher  string `json:"teacher"`
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		tok, err := a.Teacher(req.Teacher, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, Role: auth.RoleTeacher})
	}
}
