package transcript

import (
	"fmt"
	"regexp"
	"strconv"
)

// Layout maps row cells to CourseRecord fields by position. The portals
// publish no stable markup for their result tables, so positional
// mapping is unavoidable; keeping every index in one table per source
// means schema drift is a one-line change here rather than scattered
// literals.
//
// An index of -1 means the source does not carry that field.
type Layout struct {
	Name string

	// rows with fewer cells than this are skipped
	MinCells int

	RegistrationNo int
	SrNo           int
	Semester       int
	TeacherName    int
	CourseCode     int
	CourseTitle    int
	CreditHours    int
	Mid            int
	Assignment     int
	Final          int
	Practical      int
	Total          int
	Grade          int

	// the attendance portal does not publish credit hours; they are
	// inferred from a trailing "-<digit>" on the course code
	InferCreditHours bool
}

// LMSLayout is the row shape of the LMS result table.
var LMSLayout = Layout{
	Name:           "lms",
	MinCells:       12,
	RegistrationNo: -1,
	SrNo:           0,
	Semester:       1,
	TeacherName:    2,
	CourseCode:     3,
	CourseTitle:    4,
	CreditHours:    5,
	Mid:            6,
	Assignment:     7,
	Final:          8,
	Practical:      9,
	Total:          10,
	Grade:          11,
}

// AttendanceLayout is the row shape of the attendance portal's student
// information table (16 cells wide).
var AttendanceLayout = Layout{
	Name:             "attendance",
	MinCells:         14,
	RegistrationNo:   0,
	SrNo:             -1,
	Semester:         -1,
	TeacherName:      4,
	CourseCode:       5,
	CourseTitle:      6,
	CreditHours:      -1,
	Mid:              8,
	Assignment:       9,
	Final:            10,
	Practical:        11,
	Total:            12,
	Grade:            13,
	InferCreditHours: true,
}

func pick(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// numeric marks-like fields default to "0" rather than ""
func pickNumeric(cells []string, idx int) string {
	v := pick(cells, idx)
	if v == "" {
		return "0"
	}
	return v
}

var trailingCreditRegex = regexp.MustCompile(`-(\d)\s*$`)

// inferCreditHours derives a "n(n-0)" credit string from the trailing
// digit of a course code like "CS-301-3", defaulting to 3 credit hours.
func inferCreditHours(courseCode string) string {
	n := 3
	groups := trailingCreditRegex.FindStringSubmatch(courseCode)
	if len(groups) == 2 {
		parsed, err := strconv.Atoi(groups[1])
		if err == nil {
			n = parsed
		}
	}
	return fmt.Sprintf("%d(%d-0)", n, n)
}

// Apply maps one cleaned cell slice to a CourseRecord. It does not
// validate; callers discard records per CourseRecord.Valid.
func (l Layout) Apply(cells []string, registration, studentName string) CourseRecord {
	rec := CourseRecord{
		RegistrationNo: registration,
		StudentName:    studentName,
		SrNo:           pick(cells, l.SrNo),
		Semester:       pick(cells, l.Semester),
		TeacherName:    pick(cells, l.TeacherName),
		CourseCode:     pick(cells, l.CourseCode),
		CourseTitle:    pick(cells, l.CourseTitle),
		CreditHours:    pick(cells, l.CreditHours),
		Mid:            pickNumeric(cells, l.Mid),
		Assignment:     pickNumeric(cells, l.Assignment),
		Final:          pickNumeric(cells, l.Final),
		Practical:      pickNumeric(cells, l.Practical),
		Total:          pickNumeric(cells, l.Total),
		Grade:          pick(cells, l.Grade),
	}
	if reg := pick(cells, l.RegistrationNo); reg != "" {
		rec.RegistrationNo = reg
	}
	if l.InferCreditHours {
		rec.CreditHours = inferCreditHours(rec.CourseCode)
	}
	return rec
}
