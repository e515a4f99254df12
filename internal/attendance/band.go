package attendance

import "github.com/nsit-tools/attendance-dashboard/internal/model"

// Band is a presentation severity for an attendance percentage.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandAtRisk    Band = "at risk"
)

// ExcellentFrom is the inclusive lower bound of BandExcellent.
const ExcellentFrom = 85.0

// Classify maps a percentage to its band. Lower bounds are inclusive.
func Classify(pct float64) Band {
	switch {
	case pct >= ExcellentFrom:
		return BandExcellent
	case pct >= Threshold:
		return BandGood
	default:
		return BandAtRisk
	}
}

// Label is the legend text for the band.
func (b Band) Label() string {
	switch b {
	case BandExcellent:
		return "≥85% - Excellent"
	case BandGood:
		return "75-84% - Good"
	default:
		return "<75% - At Risk"
	}
}

// Legend lists the bands from best to worst.
func Legend() []Band {
	return []Band{BandExcellent, BandGood, BandAtRisk}
}

// Dashboard builds the logged-in view for records.
func Dashboard(records []model.SubjectRecord, opts Options) model.DashboardView {
	summary := SummarizeWith(records, opts)

	subjects := make([]model.SubjectView, 0, len(records))
	for _, r := range records {
		pct := r.AttendancePercent
		if opts.RecomputePercent {
			pct = Recompute(r)
		}
		subjects = append(subjects, model.SubjectView{
			SubjectRecord: r,
			Band:          string(Classify(pct)),
			Drift:         Drift(r),
		})
	}

	return model.DashboardView{
		Summary:      summary,
		OverallBand:  string(Classify(summary.OverallAttendancePercent)),
		Subjects:     subjects,
		Recalculated: opts.RecomputePercent,
	}
}
