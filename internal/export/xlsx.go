// Package export writes a teacher's dashboard numbers to an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/triangle-practice/internal/analytics"
	"github.com/mind-engage/triangle-practice/internal/attempt"
	"github.com/mind-engage/triangle-practice/internal/mastery"
)

const (
	SheetOverview = "Overview"
	SheetItems    = "Items"
	SheetStudents = "Students"
	SheetRecords  = "Records"
)

// Workbook builds the export for one teacher's records.
func Workbook(teacher string, recs []attempt.Record, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetItems, SheetStudents, SheetRecords} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &sheetWriter{f: f, header: header}
	w.overview(teacher, analytics.Overview(recs), generated)
	w.items(analytics.ItemTable(recs))
	w.students(analytics.StudentRows(recs))
	w.records(recs)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the workbook to out.
func Write(out io.Writer, teacher string, recs []attempt.Record, generated time.Time) error {
	f, err := Workbook(teacher, recs, generated)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so the row writers stay linear.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err == nil {
		err = w.f.SetSheetRow(sheet, cell, &values)
	}
	w.err = err
}

func (w *sheetWriter) head(sheet string, cols ...any) {
	w.row(sheet, 1, cols...)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err == nil {
		err = w.f.SetCellStyle(sheet, "A1", last, w.header)
	}
	w.err = err
}

func (w *sheetWriter) overview(teacher string, st analytics.OverviewStats, generated time.Time) {
	s := SheetOverview
	w.row(s, 1, "Teacher", teacher)
	w.row(s, 2, "Generated", generated.UTC().Format(time.RFC3339))
	w.row(s, 3, "Students", st.Students)
	w.row(s, 4, "Practice attempts", st.Attempts)
	w.row(s, 5, "Overall accuracy %", st.Accuracy)

	n := 7
	w.row(s, n, "SBG band", "Students")
	for _, b := range mastery.Bands {
		n++
		w.row(s, n, string(b), st.Bands[b])
	}
	n += 2
	w.row(s, n, "SBG level", "Students", "Percent")
	for _, l := range st.Levels {
		n++
		w.row(s, n, l.Level, l.Count, l.Percent)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(s, "A", "A", 22)
	}
}

func (w *sheetWriter) items(rows []analytics.ItemRow) {
	s := SheetItems
	w.head(s, "Question", "SBG", "Correct", "Total", "Percent")
	for i, r := range rows {
		w.row(s, i+2, r.QuestionID, r.SBG, r.Correct, r.Total, r.Percent)
	}
}

func (w *sheetWriter) students(rows []analytics.StudentRow) {
	s := SheetStudents
	w.head(s, "Student", "Attempts", "Current SBG", "Band", "Last active")
	for i, r := range rows {
		w.row(s, i+2, r.Student, r.Attempts, r.Mastery, string(r.Band), r.LastActive.UTC().Format(time.RFC3339))
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(s, "A", "A", 20)
	}
}

func (w *sheetWriter) records(recs []attempt.Record) {
	s := SheetRecords
	sorted := append([]attempt.Record(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	w.head(s, "Student", "Attempt", "Question", "SBG", "Correct", "Tries", "Answer", "Created")
	for i, r := range sorted {
		w.row(s, i+2, r.StudentName, attempt.ResolveKey(r).String(), r.QuestionID, r.SBG,
			strconv.FormatBool(r.Correct), r.Attempts, string(r.Answer), r.CreatedAt.UTC().Format(time.RFC3339))
	}
}
