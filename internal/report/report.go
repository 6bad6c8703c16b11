// Package report renders a class progress overview as an xlsx workbook for
// the teacher to download and keep in the school records.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hanhtrang/lop1-engine/internal/progress"
	"github.com/hanhtrang/lop1-engine/internal/roster"
)

const sheetName = "Tiến độ lớp"

var header = []string{"Họ và tên", "Mã học sinh", "Số bài đã học", "Điểm trung bình", "Hoạt động cuối"}

// Row is one student line of the class report.
type Row struct {
	FullName     string
	StudentID    string
	Lessons      int
	AverageScore int
	LastActivity string
}

// BuildRows flattens roster entries and their progress records into report
// rows. Students without a record yet show up with zeroes, not gaps; the
// teacher needs to see who has not started.
func BuildRows(students []roster.Student, records map[string]progress.Record) []Row {
	rows := make([]Row, 0, len(students))
	for _, st := range students {
		row := Row{FullName: st.FullName, StudentID: st.ID}
		if rec, ok := records[st.ID]; ok {
			row.Lessons = len(rec.CompletedLessons)
			row.AverageScore = averageScore(rec)
			if !rec.LastActivity.IsZero() {
				row.LastActivity = rec.LastActivity.Format("02/01/2006")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// averageScore is the rounded mean over the lessons a student has scores for.
func averageScore(rec progress.Record) int {
	if len(rec.Scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range rec.Scores {
		sum += s
	}
	return (sum + len(rec.Scores)/2) / len(rec.Scores)
}

// Render writes the rows into a new xlsx workbook.
func Render(classID string, rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", fmt.Sprintf("Lớp %s — Hành Trang Lớp 1", classID)); err != nil {
		return nil, fmt.Errorf("writing title: %w", err)
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	for r, row := range rows {
		values := []any{row.FullName, row.StudentID, row.Lessons, row.AverageScore, row.LastActivity}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+3)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", r+1, err)
			}
		}
	}

	// wide enough for long Vietnamese full names
	if err := f.SetColWidth(sheetName, "A", "A", 28); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "E", 16); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}
	return f, nil
}
