package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsit-tools/attendance-dashboard/internal/model"
)

func record(code string, present, absent int, pct float64) model.SubjectRecord {
	return model.SubjectRecord{
		SubjectCode:       code,
		SubjectName:       "Subject " + code,
		ClassesPresent:    present,
		ClassesAbsent:     absent,
		TotalClasses:      present + absent,
		AttendancePercent: pct,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, model.AttendanceSummary{}, Summarize(nil))
	assert.Equal(t, model.AttendanceSummary{}, Summarize([]model.SubjectRecord{}))
}

func TestSummarizeExample(t *testing.T) {
	records := []model.SubjectRecord{
		record("CS101", 18, 2, 90.0),
		record("CS102", 10, 10, 50.0),
	}

	got := Summarize(records)

	assert.Equal(t, model.AttendanceSummary{
		TotalSubjects:            2,
		OverallAttendancePercent: 70.00,
		SubjectsBelowThreshold:   1,
		TotalPresent:             28,
		TotalClasses:             40,
	}, got)
}

func TestSummarizeSumsAndCount(t *testing.T) {
	records := []model.SubjectRecord{
		record("A1", 7, 3, 70),
		record("A2", 0, 0, 0),
		record("A3", 12, 1, 92.31),
		record("A4", 3, 0, 100),
	}

	got := Summarize(records)

	require.Equal(t, len(records), got.TotalSubjects)
	assert.Equal(t, 22, got.TotalPresent)
	assert.Equal(t, 26, got.TotalClasses)
	assert.Equal(t, Round2(100*22.0/26.0), got.OverallAttendancePercent)
	assert.Equal(t, 84.62, got.OverallAttendancePercent)
}

func TestSummarizeZeroClasses(t *testing.T) {
	records := []model.SubjectRecord{
		record("Z1", 0, 0, 0),
		record("Z2", 0, 0, 80),
	}

	got := Summarize(records)

	assert.Equal(t, 2, got.TotalSubjects)
	assert.Zero(t, got.OverallAttendancePercent)
	// The threshold count ignores totals: only the reported percentage matters.
	assert.Equal(t, 1, got.SubjectsBelowThreshold)
}

func TestSummarizeThresholdIsStrict(t *testing.T) {
	records := []model.SubjectRecord{
		record("T1", 3, 1, 75.0),
		record("T2", 3, 1, 74.99),
	}

	assert.Equal(t, 1, Summarize(records).SubjectsBelowThreshold)
}

func TestSummarizeTrustsServerPercent(t *testing.T) {
	// Counts say 50% but the backend reports 80%.
	drifted := record("D1", 5, 5, 80)

	trusted := Summarize([]model.SubjectRecord{drifted})
	recomputed := SummarizeWith([]model.SubjectRecord{drifted}, Options{RecomputePercent: true})

	assert.Equal(t, 0, trusted.SubjectsBelowThreshold)
	assert.Equal(t, 1, recomputed.SubjectsBelowThreshold)
	assert.Equal(t, trusted.OverallAttendancePercent, recomputed.OverallAttendancePercent)
}

func TestRecomputeAndDrift(t *testing.T) {
	r := record("R1", 2, 1, 70)

	assert.Equal(t, 66.67, Recompute(r))
	assert.Equal(t, 3.33, Drift(r))
	assert.Zero(t, Recompute(record("R2", 0, 0, 0)))
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		70:      70,
		66.666:  66.67,
		0.125:   0.13,
		99.994:  99.99,
		12.3456: 12.35,
	}
	for in, want := range cases {
		assert.InDelta(t, want, Round2(in), 1e-9, "Round2(%v)", in)
	}
}
