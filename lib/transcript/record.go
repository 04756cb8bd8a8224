// Package transcript holds the canonical course-record model, the HTML
// table extractor that produces it from portal result pages, and the
// reconciler that merges records from both portals into one list.
package transcript

import "uaftools-backend/lib/textutil"

// CourseRecord is one row of transcript data. All fields are kept as the
// raw strings scraped off the page; CreditHours keeps the "3(2-1)" form.
type CourseRecord struct {
	RegistrationNo string `json:"RegistrationNo"`
	StudentName    string `json:"StudentName"`
	SrNo           string `json:"SrNo"`
	Semester       string `json:"Semester"`
	TeacherName    string `json:"TeacherName"`
	CourseCode     string `json:"CourseCode"`
	CourseTitle    string `json:"CourseTitle"`
	CreditHours    string `json:"CreditHours"`
	Mid            string `json:"Mid"`
	Assignment     string `json:"Assignment"`
	Final          string `json:"Final"`
	Practical      string `json:"Practical"`
	Total          string `json:"Total"`
	Grade          string `json:"Grade"`
}

// Valid reports whether the record carries enough identity to keep:
// a course code and/or a course title.
func (r CourseRecord) Valid() bool {
	return r.CourseCode != "" || r.CourseTitle != ""
}

// NormalizedCode is the dedup key: uppercased, whitespace removed.
func (r CourseRecord) NormalizedCode() string {
	return textutil.NormalizeCode(r.CourseCode)
}

// Outcome is the tri-state result of a portal fetch. Records is nil on
// failure; an empty non-nil slice is a valid success with zero rows.
type Outcome struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Records []CourseRecord `json:"resultData,omitempty"`
}

func Failure(message string) Outcome {
	return Outcome{Success: false, Message: message}
}
