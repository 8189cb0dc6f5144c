package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/auth"
	"github.com/mind-engage/triangle-practice/internal/dashboard"
)

// teacherOf is the class the caller may see; teachers only see their own.
func teacherOf(r *http.Request) string {
	if c := auth.ClaimsFromContext(r.Context()); c != nil {
		return c.Teacher
	}
	return ""
}

func OverviewHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ov, err := svc.Overview(r.Context(), teacherOf(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ov)
	}
}

func QuestionCardsHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.QuestionCards(r.Context(), teacherOf(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)
	}
}

func StudentSummaryHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Student(r.Context(), teacherOf(r), chi.URLParam(r, "student"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func StudentItemsHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.StudentItems(r.Context(), teacherOf(r), chi.URLParam(r, "student"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func AttemptItemsHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := attempt.ParseKey(chi.URLParam(r, "key"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		strip, err := svc.AttemptItems(r.Context(), teacherOf(r), chi.URLParam(r, "student"), key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, strip)
	}
}

type deleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func DeleteAttemptHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := attempt.ParseKey(chi.URLParam(r, "key"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		n, err := svc.DeleteAttempt(r.Context(), teacherOf(r), chi.URLParam(r, "student"), key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
	}
}

func ResetStudentHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.ResetStudent(r.Context(), teacherOf(r), chi.URLParam(r, "student"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Deleted: n})
	}
}

// GET /dashboard/export.xlsx. The workbook is built in memory so a failure
// can still produce a JSON error.
func ExportHandler(svc *dashboard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teacher := teacherOf(r)
		var buf bytes.Buffer
		if err := svc.Export(r.Context(), teacher, &buf); err != nil {
			writeError(w, err)
			return
		}
		name := fmt.Sprintf("%s-%s.xlsx", teacher, time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		_, _ = buf.WriteTo(w)
	}
}
