package transcript

import "fmt"

// AttendanceSemesterLabel tags merged records that only the attendance
// portal reported, so consumers can separate them from LMS terms.
const AttendanceSemesterLabel = "Attendance based Courses"

// Merge reconciles the two portal outcomes into one course list.
//
// The LMS is authoritative: its records are kept verbatim and in order.
// Attendance records are purely additive — one record per course code
// (case- and whitespace-insensitive) not already reported by the LMS,
// with the student name backfilled from the LMS when available.
func Merge(lms, attendance Outcome) Outcome {
	if !lms.Success && !attendance.Success {
		return Failure(fmt.Sprintf("lms: %s; attendance: %s", lms.Message, attendance.Message))
	}

	merged := make([]CourseRecord, 0, len(lms.Records)+len(attendance.Records))
	merged = append(merged, lms.Records...)

	seen := make(map[string]bool, len(merged))
	for _, rec := range merged {
		if code := rec.NormalizedCode(); code != "" {
			seen[code] = true
		}
	}

	studentName := ""
	if len(lms.Records) > 0 {
		studentName = lms.Records[0].StudentName
	}

	added := 0
	for _, rec := range attendance.Records {
		code := rec.NormalizedCode()
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		rec.Semester = AttendanceSemesterLabel
		if studentName != "" {
			rec.StudentName = studentName
		}
		merged = append(merged, rec)
		added++
	}

	if len(merged) == 0 {
		return Failure(fmt.Sprintf("no records from either portal (lms: %s; attendance: %s)", lms.Message, attendance.Message))
	}

	// a degraded source's diagnostic rides along on the success message
	// so the caller can tell a full merge from a one-portal one
	message := fmt.Sprintf("merged %d lms records and %d attendance-only records", len(lms.Records), added)
	if !lms.Success {
		message = fmt.Sprintf("%s; lms: %s", message, lms.Message)
	}
	if !attendance.Success {
		message = fmt.Sprintf("%s; attendance: %s", message, attendance.Message)
	}

	return Outcome{
		Success: true,
		Message: message,
		Records: merged,
	}
}
