// Package exporter renders course records into an xlsx workbook for
// download.
package exporter

import (
	"io"

	"uaftools-backend/lib/transcript"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Results"

var columns = []struct {
	header string
	value  func(transcript.CourseRecord) string
}{
	{"Registration No", func(r transcript.CourseRecord) string { return r.RegistrationNo }},
	{"Student Name", func(r transcript.CourseRecord) string { return r.StudentName }},
	{"Semester", func(r transcript.CourseRecord) string { return r.Semester }},
	{"Course Code", func(r transcript.CourseRecord) string { return r.CourseCode }},
	{"Course Title", func(r transcript.CourseRecord) string { return r.CourseTitle }},
	{"Credit Hours", func(r transcript.CourseRecord) string { return r.CreditHours }},
	{"Teacher", func(r transcript.CourseRecord) string { return r.TeacherName }},
	{"Mid", func(r transcript.CourseRecord) string { return r.Mid }},
	{"Assignment", func(r transcript.CourseRecord) string { return r.Assignment }},
	{"Final", func(r transcript.CourseRecord) string { return r.Final }},
	{"Practical", func(r transcript.CourseRecord) string { return r.Practical }},
	{"Total", func(r transcript.CourseRecord) string { return r.Total }},
	{"Grade", func(r transcript.CourseRecord) string { return r.Grade }},
}

// WriteXlsx writes a single-sheet workbook with one row per record.
func WriteXlsx(w io.Writer, records []transcript.CourseRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName(f.GetSheetName(0), sheetName)
	if err != nil {
		return err
	}

	for col, c := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, c.header); err != nil {
			return err
		}
	}

	for row, record := range records {
		for col, c := range columns {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, c.value(record)); err != nil {
				return err
			}
		}
	}

	_, err = f.WriteTo(w)
	return err
}
