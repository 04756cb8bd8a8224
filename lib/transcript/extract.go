package transcript

import (
	"fmt"
	"strings"

	"uaftools-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// keywords that identify the header row of a results table; at least two
// must match since single words like "course" also appear in layout and
// navigation tables
var resultIndicators = []string{
	"sr", "semester", "course", "teacher", "credit",
	"mid", "assignment", "final", "practical", "total", "grade",
}

var blockedTerms = []string{"blocked", "access denied", "not available", "suspended", "forbidden"}
var noResultTerms = []string{"no result", "no records"}

// minimum tr count for a table to be considered a results candidate;
// anything smaller is a header/layout fragment
const minResultRows = 3

// Extract pulls course records out of a portal result page.
//
// The pages carry several structurally similar tables (student info,
// results, layout scaffolding) and no stable identifier for the one
// holding course data, so detection is by content: a two-column table is
// treated as student metadata, and the results table is recognized by
// header keywords. When that fails, a last-resort pass accepts any row
// whose first cell is a serial number.
func Extract(body, registration string, layout Layout) Outcome {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Failure(fmt.Sprintf("failed to parse %s response: %s", layout.Name, err))
	}

	pageText := strings.ToLower(doc.Text())
	if textutil.MatchAny(pageText, blockedTerms) {
		return Failure(fmt.Sprintf("access blocked by the %s portal", layout.Name))
	}
	if textutil.MatchAny(pageText, noResultTerms) {
		return Failure(fmt.Sprintf("no results found for registration number: %s", registration))
	}

	info := studentInfo(doc)
	if registration == "" {
		registration = info["registration"]
	}
	studentName := info["studentfullname"]
	if studentName == "" {
		studentName = info["studentname"]
	}

	records, tableFound := parseResultTables(doc, registration, studentName, layout)
	if len(records) == 0 {
		records = fallbackParse(doc, registration, studentName, layout)
		if len(records) > 0 {
			return Outcome{
				Success: true,
				Message: fmt.Sprintf("extracted %d records for %s using the fallback parser", len(records), registration),
				Records: records,
			}
		}
	}

	if len(records) > 0 {
		return Outcome{
			Success: true,
			Message: fmt.Sprintf("extracted %d records for %s", len(records), registration),
			Records: records,
		}
	}

	if tableFound {
		// distinct from the portal's own "no results" answer: the page
		// had a results table but its rows no longer match the layout
		return Failure(fmt.Sprintf("located a results table but no rows matched the %s layout", layout.Name))
	}
	return Failure(fmt.Sprintf("no result data found for registration number: %s", registration))
}

// studentInfo reads every two-column table on the page as key/value
// metadata ("Registration", "Student Full Name", ...).
func studentInfo(doc *goquery.Document) map[string]string {
	info := map[string]string{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cols := row.Find("td")
			if cols.Length() != 2 {
				return
			}
			k := textutil.CleanCell(cols.Eq(0).Text())
			v := textutil.CleanCell(cols.Eq(1).Text())
			if k != "" && v != "" {
				info[textutil.NormalizeKey(k)] = v
			}
		})
	})
	return info
}

func rowCells(row *goquery.Selection) []string {
	var cells []string
	row.Find("td,th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, textutil.CleanCell(cell.Text()))
	})
	return cells
}

func parseResultTables(doc *goquery.Document, registration, studentName string, layout Layout) ([]CourseRecord, bool) {
	var records []CourseRecord
	tableFound := false

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < minResultRows {
			return
		}

		header := strings.ToLower(rows.First().Text())
		if textutil.CountMatches(header, resultIndicators) < 2 {
			return
		}
		tableFound = true

		rows.Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := rowCells(row)
			if len(cells) < layout.MinCells {
				return
			}
			rec := layout.Apply(cells, registration, studentName)
			if rec.Valid() {
				records = append(records, rec)
			}
		})
	})

	return records, tableFound
}

func isSerialNo(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// fallbackParse handles pages whose results table lost its header row:
// any row with at least 6 cells whose first cell is a bare number is
// treated as a course row.
func fallbackParse(doc *goquery.Document, registration, studentName string, layout Layout) []CourseRecord {
	var records []CourseRecord

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := rowCells(row)
			if len(cells) < 6 || !isSerialNo(cells[0]) {
				return
			}
			rec := layout.Apply(cells, registration, studentName)
			if rec.Valid() {
				records = append(records, rec)
			}
		})
	})

	return records
}
