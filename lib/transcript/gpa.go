package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingCreditRegex = regexp.MustCompile(`^\s*(\d+)`)

// ParseCreditHours reads the credit count out of the raw "3(2-1)" form.
// Returns 0 when the string carries no leading number.
func ParseCreditHours(raw string) int {
	groups := leadingCreditRegex.FindStringSubmatch(raw)
	if len(groups) != 2 {
		return 0
	}
	n, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0
	}
	return n
}

// gradePoints maps a letter grade to its grade-point value. Withdrawn,
// incomplete and pass/fail style grades carry no points.
func gradePoints(grade string) (float64, bool) {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "A":
		return 4.0, true
	case "B":
		return 3.0, true
	case "C":
		return 2.0, true
	case "D":
		return 1.0, true
	case "F":
		return 0.0, true
	}
	return 0, false
}

// pointsFromTotal falls back to the obtained-marks percentage when a row
// has no letter grade. Course totals are marked out of 20 per credit
// hour, so the percentage is total/(20*credits).
func pointsFromTotal(total string, credits int) (float64, bool) {
	if credits <= 0 {
		return 0, false
	}
	marks, err := strconv.ParseFloat(strings.TrimSpace(total), 64)
	if err != nil {
		return 0, false
	}
	pct := marks / (20.0 * float64(credits)) * 100

	switch {
	case pct >= 80:
		return 4.0, true
	case pct >= 65:
		return 3.0, true
	case pct >= 50:
		return 2.0, true
	case pct >= 40:
		return 1.0, true
	}
	return 0.0, true
}

type SemesterGPA struct {
	Semester    string  `json:"semester"`
	CreditHours int     `json:"creditHours"`
	GPA         float64 `json:"gpa"`
}

type GPASummary struct {
	CreditHours int           `json:"creditHours"`
	GradePoints float64       `json:"gradePoints"`
	CGPA        float64       `json:"cgpa"`
	Semesters   []SemesterGPA `json:"semesters"`
}

// SummarizeGPA computes per-semester and cumulative GPA over a merged
// record list. Rows whose grade and total are both unusable are skipped.
func SummarizeGPA(records []CourseRecord) GPASummary {
	type bucket struct {
		credits int
		points  float64
	}
	perSemester := map[string]*bucket{}
	var order []string

	total := bucket{}
	for _, rec := range records {
		credits := ParseCreditHours(rec.CreditHours)
		if credits <= 0 {
			continue
		}
		points, ok := gradePoints(rec.Grade)
		if !ok {
			points, ok = pointsFromTotal(rec.Total, credits)
		}
		if !ok {
			continue
		}

		total.credits += credits
		total.points += points * float64(credits)

		b := perSemester[rec.Semester]
		if b == nil {
			b = &bucket{}
			perSemester[rec.Semester] = b
			order = append(order, rec.Semester)
		}
		b.credits += credits
		b.points += points * float64(credits)
	}

	summary := GPASummary{
		CreditHours: total.credits,
		GradePoints: total.points,
	}
	if total.credits > 0 {
		summary.CGPA = total.points / float64(total.credits)
	}
	for _, sem := range order {
		b := perSemester[sem]
		gpa := 0.0
		if b.credits > 0 {
			gpa = b.points / float64(b.credits)
		}
		summary.Semesters = append(summary.Semesters, SemesterGPA{
			Semester:    sem,
			CreditHours: b.credits,
			GPA:         gpa,
		})
	}
	return summary
}
