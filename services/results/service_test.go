package results

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"uaftools-backend/lib/cache"
	"uaftools-backend/lib/resultstore"
	"uaftools-backend/lib/scrapers/attendance"
	"uaftools-backend/lib/scrapers/lms"
	"uaftools-backend/lib/sessionstore"
	"uaftools-backend/lib/transcript"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const lmsToken = "665ea5fb2c76aaa5806d4103314fcf0f"

const lmsResultPage = `
<html><body>
<table>
  <tr><td>Registration:</td><td>%s</td></tr>
  <tr><td>Student Full Name:</td><td>Ali Raza</td></tr>
</table>
<table>
  <tr><th>Sr</th><th>Semester</th><th>Teacher</th><th>Course Code</th><th>Course Title</th><th>Credit Hours</th><th>Mid</th><th>Assignment</th><th>Final</th><th>Practical</th><th>Total</th><th>Grade</th></tr>
  <tr><td>1</td><td>Winter 2020-21</td><td>Dr. Khan</td><td>CS-301</td><td>Data Structures</td><td>3(2-1)</td><td>12</td><td>9</td><td>35</td><td>8</td><td>64</td><td>B</td></tr>
  <tr><td>2</td><td>Winter 2020-21</td><td>Dr. Ahmed</td><td>MATH-101</td><td>Calculus I</td><td>3(3-0)</td><td>15</td><td>10</td><td>40</td><td>0</td><td>65</td><td>B</td></tr>
</table>
</body></html>`

const attendanceLanding = `
<html><form method="post" action="./">
<input type="hidden" name="__VIEWSTATE" value="dDwtMTYxMjU5017Ts="/>
<input type="hidden" name="__VIEWSTATEGENERATOR" value="CA0B0334"/>
<input type="hidden" name="__EVENTVALIDATION" value="/wEWAgL+1="/>
</form></html>`

const attendanceDetail = `
<html><body>
<table>
  <tr><th>Reg No</th><th>Name</th><th>Session</th><th>Section</th><th>Teacher</th><th>Course Code</th><th>Course Title</th><th>Enrolled</th><th>Mid</th><th>Assignment</th><th>Final</th><th>Practical</th><th>Total</th><th>Grade</th><th>Lectures</th><th>Percentage</th></tr>
  <tr><td>%s</td><td>Ali Raza</td><td>2020</td><td>A</td><td>Dr. Khan</td><td>CS-301</td><td>Data Structures</td><td>Yes</td><td>12</td><td>9</td><td>35</td><td>8</td><td>64</td><td>B</td><td>32</td><td>91%%</td></tr>
  <tr><td>%s</td><td>Ali Raza</td><td>2020</td><td>A</td><td>Dr. Sana</td><td>CS-399-2</td><td>Special Topics</td><td>Yes</td><td>10</td><td>8</td><td>30</td><td>0</td><td>48</td><td>C</td><td>30</td><td>80%%</td></tr>
</table>
</body></html>`

func lmsPortal(t *testing.T, healthy bool) (*lms.Client, *int) {
	loginHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/login/index.php", func(w http.ResponseWriter, r *http.Request) {
		loginHits++
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `<input type="hidden" id="token" value="%s"/>`, lmsToken)
	})
	mux.HandleFunc("/course/uaf_student_result.php", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		fmt.Fprintf(w, lmsResultPage, r.PostFormValue("Register"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	client, err := lms.NewClient(lms.ClientOptions{
		Host:        u.Host,
		SchemeOrder: []string{"http"},
	})
	require.NoError(t, err)
	return client, &loginHits
}

func attendancePortal(t *testing.T, healthy bool) *attendance.Client {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Method == http.MethodGet {
			fmt.Fprint(w, attendanceLanding)
			return
		}
		http.Redirect(w, r, "/StudentProfile.aspx", http.StatusFound)
	})
	mux.HandleFunc("/StudentProfile.aspx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, attendanceDetail, "2020-ag-1234", "2020-ag-1234")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := attendance.NewClient(attendance.ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	return client
}

func testService(t *testing.T, lmsClient *lms.Client, attClient *attendance.Client, opts Options) Service {
	sessions, err := sessionstore.New(t.TempDir())
	require.NoError(t, err)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	saved, err := resultstore.NewStore(db)
	require.NoError(t, err)

	return NewService(lmsClient, attClient, sessions, saved, opts)
}

func TestScrapeMergesBothPortals(t *testing.T) {
	lmsClient, _ := lmsPortal(t, true)
	svc := testService(t, lmsClient, attendancePortal(t, true), Options{})

	out := svc.Scrape(context.Background(), "2020-ag-1234", "")
	require.True(t, out.Success, out.Message)

	// CS-301 appears on both portals and must not be duplicated;
	// CS-399-2 only exists on the attendance side
	require.Len(t, out.Records, 3)
	require.Equal(t, "CS-301", out.Records[0].CourseCode)
	require.Equal(t, "MATH-101", out.Records[1].CourseCode)
	require.Equal(t, "CS-399-2", out.Records[2].CourseCode)
	require.Equal(t, transcript.AttendanceSemesterLabel, out.Records[2].Semester)
}

func TestScrapeLmsDownAttendanceUp(t *testing.T) {
	lmsClient, _ := lmsPortal(t, false)
	svc := testService(t, lmsClient, attendancePortal(t, true), Options{})

	out := svc.Scrape(context.Background(), "2020-ag-1234", "")
	require.True(t, out.Success, out.Message)
	require.Len(t, out.Records, 2)
	require.Equal(t, transcript.AttendanceSemesterLabel, out.Records[0].Semester)
}

func TestScrapeBothPortalsDown(t *testing.T) {
	lmsClient, _ := lmsPortal(t, false)
	svc := testService(t, lmsClient, attendancePortal(t, false), Options{})

	out := svc.Scrape(context.Background(), "2020-ag-1234", "")
	require.False(t, out.Success)
	require.Contains(t, out.Message, "lms:")
	require.Contains(t, out.Message, "attendance:")
	require.Nil(t, out.Records)
}

func TestScrapeWithoutAttendanceClient(t *testing.T) {
	lmsClient, _ := lmsPortal(t, true)
	svc := testService(t, lmsClient, nil, Options{})

	out := svc.Scrape(context.Background(), "2020-ag-1234", "")
	require.True(t, out.Success, out.Message)
	require.Len(t, out.Records, 2)
}

func TestScrapeResponseCache(t *testing.T) {
	lmsClient, loginHits := lmsPortal(t, true)
	svc := testService(t, lmsClient, attendancePortal(t, true), Options{
		ResponseCache: cache.NewWithClock(time.Now),
	})

	first := svc.Scrape(context.Background(), "2020-ag-1234", "")
	require.True(t, first.Success, first.Message)
	hitsAfterFirst := *loginHits

	second := svc.Scrape(context.Background(), "2020-ag-1234", "")
	require.True(t, second.Success, second.Message)
	require.Equal(t, hitsAfterFirst, *loginHits, "cached scrape should not touch the portal")
	require.Equal(t, first.Records, second.Records)
}

func TestScrapeAppendsToSession(t *testing.T) {
	lmsClient, _ := lmsPortal(t, true)
	svc := testService(t, lmsClient, attendancePortal(t, true), Options{})

	sessionID, err := sessionstore.NewSessionID()
	require.NoError(t, err)

	out := svc.Scrape(context.Background(), "2020-ag-1234", sessionID)
	require.True(t, out.Success, out.Message)

	records, err := svc.SessionRecords(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NoError(t, svc.ClearSession(context.Background(), sessionID))
	records, err = svc.SessionRecords(context.Background(), sessionID)
	require.NoError(t, err)
	require.Nil(t, records)
}

func TestSavedResultsRoundTrip(t *testing.T) {
	lmsClient, _ := lmsPortal(t, true)
	svc := testService(t, lmsClient, attendancePortal(t, true), Options{})
	ctx := context.Background()

	out := svc.Scrape(ctx, "2020-ag-1234", "")
	require.True(t, out.Success, out.Message)

	id, err := svc.SaveResult(ctx, "2020-ag-1234", out.Records)
	require.NoError(t, err)

	saved, err := svc.SavedResults(ctx, "2020-ag-1234")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, id, saved[0].ID)
	require.Len(t, saved[0].Records, 3)

	require.NoError(t, svc.DeleteSavedResult(ctx, id))
	saved, err = svc.SavedResults(ctx, "2020-ag-1234")
	require.NoError(t, err)
	require.Empty(t, saved)
}

func TestBulkScrape(t *testing.T) {
	lmsClient, _ := lmsPortal(t, true)
	svc := testService(t, lmsClient, attendancePortal(t, true), Options{BulkWorkers: 2})

	id, err := svc.StartBulk(context.Background(), []string{"2020-ag-1234", "2020-ag-5678", "2020-ag-9012"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, ok := svc.BulkStatus(id)
		return ok && job.Done
	}, time.Second*30, time.Millisecond*50)

	job, ok := svc.BulkStatus(id)
	require.True(t, ok)
	require.Equal(t, 3, job.Total)
	require.Equal(t, 3, job.Completed)
	require.Len(t, job.Results, 3)
	require.False(t, job.FinishedAt.IsZero())
	for _, r := range job.Results {
		require.True(t, r.Outcome.Success, r.Outcome.Message)
	}
}

func TestBulkStatusUnknownJob(t *testing.T) {
	lmsClient, _ := lmsPortal(t, true)
	svc := testService(t, lmsClient, attendancePortal(t, true), Options{})

	_, ok := svc.BulkStatus("nope")
	require.False(t, ok)

	_, err := svc.StartBulk(context.Background(), nil)
	require.Error(t, err)
}
