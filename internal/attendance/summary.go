// Package attendance turns per-subject attendance records into the summary
// shown on the dashboard.
package attendance

import (
	"math"

	"github.com/nsit-tools/attendance-dashboard/internal/model"
)

// Threshold is the minimum attendance percentage a subject needs to not be
// flagged at risk.
const Threshold = 75.0

// Options tunes aggregation.
type Options struct {
	// RecomputePercent counts a subject as below threshold using
	// Recompute(record) rather than the backend-supplied percentage.
	RecomputePercent bool
}

// Summarize aggregates records in a single pass, trusting each record's
// AttendancePercent for the threshold count. An empty or nil slice yields
// the zero summary.
func Summarize(records []model.SubjectRecord) model.AttendanceSummary {
	return SummarizeWith(records, Options{})
}

// SummarizeWith is Summarize with explicit options.
func SummarizeWith(records []model.SubjectRecord, opts Options) model.AttendanceSummary {
	var s model.AttendanceSummary

	for _, r := range records {
		s.TotalPresent += r.ClassesPresent
		s.TotalClasses += r.TotalClasses

		pct := r.AttendancePercent
		if opts.RecomputePercent {
			pct = Recompute(r)
		}
		if pct < Threshold {
			s.SubjectsBelowThreshold++
		}
	}

	s.TotalSubjects = len(records)
	s.OverallAttendancePercent = Percent(s.TotalPresent, s.TotalClasses)
	return s
}

// Percent returns 100*part/whole rounded to two decimals, or 0 when whole
// is not positive.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return Round2(float64(part) / float64(whole) * 100)
}

// Recompute derives a record's percentage from its counts.
func Recompute(r model.SubjectRecord) float64 {
	return Percent(r.ClassesPresent, r.TotalClasses)
}

// Drift is the absolute difference between the backend-supplied percentage
// and the recomputed one.
func Drift(r model.SubjectRecord) float64 {
	return Round2(math.Abs(r.AttendancePercent - Recompute(r)))
}

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
