package model

// SubjectRecord is one row of attendance for a subject as emitted by the
// scraping backend. The JSON keys are the column labels the backend uses.
type SubjectRecord struct {
	SubjectCode    string `json:"Subject Code"`
	SubjectName    string `json:"Subject Name"`
	ClassesPresent int    `json:"Classes Present" binding:"gte=0"`
	ClassesAbsent  int    `json:"Classes Absent" binding:"gte=0"`
	// TotalClasses is expected to equal ClassesPresent + ClassesAbsent.
	// The backend guarantees it; nothing here checks it.
	TotalClasses int `json:"Total Classes" binding:"gte=0"`
	// AttendancePercent is supplied by the backend and may drift from
	// ClassesPresent/TotalClasses.
	AttendancePercent float64 `json:"Attendance %" binding:"gte=0,lte=100"`
}

// AttendanceSummary is derived from a sequence of SubjectRecord. It is never
// persisted.
type AttendanceSummary struct {
	TotalSubjects            int     `json:"total_subjects"`
	OverallAttendancePercent float64 `json:"overall_attendance_percent"`
	SubjectsBelowThreshold   int     `json:"subjects_below_threshold"`
	TotalPresent             int     `json:"total_present"`
	TotalClasses             int     `json:"total_classes"`
}

// SubjectView is a SubjectRecord annotated for presentation.
type SubjectView struct {
	SubjectRecord
	Band string `json:"band"`
	// Drift is |server percent - recomputed percent|.
	Drift float64 `json:"drift"`
}

// DashboardView is the payload of the logged-in screen.
type DashboardView struct {
	Summary      AttendanceSummary `json:"summary"`
	OverallBand  string            `json:"overall_band"`
	Subjects     []SubjectView     `json:"subjects"`
	Recalculated bool              `json:"recalculated"`
}

// SummaryRequest is the payload for stateless aggregation.
type SummaryRequest struct {
	Data []SubjectRecord `json:"data" binding:"omitempty,dive"`
}
