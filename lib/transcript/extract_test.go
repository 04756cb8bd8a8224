package transcript

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const lmsResultPage = `
<html><body>
<table>
  <tr><td>Registration:</td><td>2020-ag-1234</td></tr>
  <tr><td>Student Full Name:</td><td>Ali Raza</td></tr>
</table>
<table>
  <tr>
    <th>Sr</th><th>Semester</th><th>Teacher Name</th><th>Course Code</th>
    <th>Course Title</th><th>Credit Hours</th><th>Mid</th><th>Assignment</th>
    <th>Final</th><th>Practical</th><th>Total</th><th>Grade</th>
  </tr>
  <tr>
    <td>1</td><td>Winter 2020-21</td><td>Dr. Khan</td><td>CS-301</td>
    <td>Data Structures</td><td>3(2-1)</td><td>12</td><td>9</td>
    <td>35</td><td>8</td><td>64</td><td>B</td>
  </tr>
  <tr>
    <td>2</td><td>Winter 2020-21</td><td>Dr. Ahmed</td><td>MATH-101</td>
    <td>Calculus&nbsp;I</td><td>3(3-0)</td><td>15</td><td>10</td>
    <td>40</td><td></td><td>65</td><td>B</td>
  </tr>
</table>
</body></html>`

func TestExtractLMS(t *testing.T) {
	out := Extract(lmsResultPage, "2020-ag-1234", LMSLayout)
	require.True(t, out.Success, out.Message)
	require.Len(t, out.Records, 2)

	want := CourseRecord{
		RegistrationNo: "2020-ag-1234",
		StudentName:    "Ali Raza",
		SrNo:           "1",
		Semester:       "Winter 2020-21",
		TeacherName:    "Dr. Khan",
		CourseCode:     "CS-301",
		CourseTitle:    "Data Structures",
		CreditHours:    "3(2-1)",
		Mid:            "12",
		Assignment:     "9",
		Final:          "35",
		Practical:      "8",
		Total:          "64",
		Grade:          "B",
	}
	if diff := cmp.Diff(want, out.Records[0]); diff != "" {
		t.Fatal(diff)
	}

	// nbsp stripped, empty numeric cell defaulted to "0"
	require.Equal(t, "Calculus I", out.Records[1].CourseTitle)
	require.Equal(t, "0", out.Records[1].Practical)
}

func TestExtractIdempotent(t *testing.T) {
	a := Extract(lmsResultPage, "2020-ag-1234", LMSLayout)
	b := Extract(lmsResultPage, "2020-ag-1234", LMSLayout)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractNoResults(t *testing.T) {
	page := `<html><body><p>No result found against this registration.</p></body></html>`
	out := Extract(page, "2020-ag-9999", LMSLayout)
	require.False(t, out.Success)
	require.Contains(t, out.Message, "no results")
	require.Nil(t, out.Records)
}

func TestExtractBlocked(t *testing.T) {
	page := `<html><body><h1>Access Denied</h1><p>Your IP has been blocked.</p></body></html>`
	out := Extract(page, "2020-ag-1234", LMSLayout)
	require.False(t, out.Success)
	require.Contains(t, out.Message, "blocked")
	require.Nil(t, out.Records)
}

func TestExtractParseAmbiguity(t *testing.T) {
	// header matches but every data row is too narrow for the layout
	page := `
	<table>
	  <tr><th>Sr</th><th>Course</th><th>Grade</th></tr>
	  <tr><td>1</td><td>CS-301</td><td>B</td></tr>
	  <tr><td>2</td><td>CS-302</td><td>A</td></tr>
	</table>`
	out := Extract(page, "2020-ag-1234", LMSLayout)
	require.False(t, out.Success)
	require.NotContains(t, out.Message, "no results")
	require.Contains(t, out.Message, "no rows matched")
}

func TestExtractFallbackParser(t *testing.T) {
	// headerless table: rows are only acceptable via the serial-number pass
	rows := []string{"<table>"}
	rows = append(rows,
		"<tr><td>heading</td><td>junk</td></tr>",
		"<tr><td>1</td><td>Spring 2021</td><td>Dr. Khan</td><td>CS-301</td><td>Data Structures</td><td>3(2-1)</td><td>12</td><td>9</td><td>35</td><td>8</td><td>64</td><td>B</td></tr>",
		"<tr><td>x</td><td>not a record row</td><td>a</td><td></td><td></td><td></td></tr>",
		"</table>")
	out := Extract(strings.Join(rows, "\n"), "2020-ag-1234", LMSLayout)
	require.True(t, out.Success, out.Message)
	require.Len(t, out.Records, 1)
	require.Equal(t, "CS-301", out.Records[0].CourseCode)
	require.Contains(t, out.Message, "fallback")
}

func TestExtractDiscardsRowsWithoutIdentity(t *testing.T) {
	page := `
	<table>
	  <tr><th>Sr</th><th>Semester</th><th>Teacher</th><th>Course Code</th><th>Course Title</th><th>Credit</th><th>Mid</th><th>Assignment</th><th>Final</th><th>Practical</th><th>Total</th><th>Grade</th></tr>
	  <tr><td>1</td><td>Spring</td><td>Dr. A</td><td></td><td></td><td>3(3-0)</td><td>1</td><td>2</td><td>3</td><td>4</td><td>10</td><td>F</td></tr>
	  <tr><td>2</td><td>Spring</td><td>Dr. B</td><td>CS-302</td><td>OS</td><td>3(3-0)</td><td>1</td><td>2</td><td>3</td><td>4</td><td>10</td><td>F</td></tr>
	</table>`
	out := Extract(page, "2020-ag-1234", LMSLayout)
	require.True(t, out.Success)
	require.Len(t, out.Records, 1)
	require.Equal(t, "CS-302", out.Records[0].CourseCode)
}

const attendancePage = `
<html><body>
<table>
  <tr>
    <th>Reg No</th><th>Name</th><th>Session</th><th>Section</th><th>Teacher</th>
    <th>Course Code</th><th>Course Title</th><th>Enrolled</th><th>Mid</th>
    <th>Assignment</th><th>Final</th><th>Practical</th><th>Total</th><th>Grade</th>
    <th>Lectures</th><th>Percentage</th>
  </tr>
  <tr>
    <td>2020-ag-1234</td><td>Ali Raza</td><td>2020</td><td>A</td><td>Dr. Sana</td>
    <td>CS-399-2</td><td>Special Topics</td><td>Yes</td><td>10</td>
    <td>8</td><td>30</td><td>0</td><td>48</td><td>C</td>
    <td>30</td><td>80%</td>
  </tr>
  <tr>
    <td>2020-ag-1234</td><td>Ali Raza</td><td>2020</td><td>A</td><td>Dr. Khan</td>
    <td>CS-301</td><td>Data Structures</td><td>Yes</td><td>12</td>
    <td>9</td><td>35</td><td>8</td><td>64</td><td>B</td>
    <td>32</td><td>91%</td>
  </tr>
</table>
</body></html>`

func TestExtractAttendance(t *testing.T) {
	out := Extract(attendancePage, "2020-ag-1234", AttendanceLayout)
	require.True(t, out.Success, out.Message)
	require.Len(t, out.Records, 2)

	first := out.Records[0]
	require.Equal(t, "2020-ag-1234", first.RegistrationNo)
	require.Equal(t, "Dr. Sana", first.TeacherName)
	require.Equal(t, "CS-399-2", first.CourseCode)
	require.Equal(t, "Special Topics", first.CourseTitle)
	require.Equal(t, "48", first.Total)
	require.Equal(t, "C", first.Grade)
	// credit hours inferred from the trailing "-2"
	require.Equal(t, "2(2-0)", first.CreditHours)
	// no trailing digit: default of 3
	require.Equal(t, "3(3-0)", out.Records[1].CreditHours)
}
