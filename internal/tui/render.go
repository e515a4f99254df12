// Package tui renders the login and dashboard screens on a terminal.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/nsit-tools/attendance-dashboard/internal/attendance"
	"github.com/nsit-tools/attendance-dashboard/internal/model"
)

// subjectNameWidth truncates long subject names so the table fits 100 columns.
const subjectNameWidth = 36

// Renderer writes screens to a terminal.
type Renderer struct {
	out                      io.Writer
	bold, red, green, yellow *color.Color
}

// NewRenderer creates a Renderer. colored forces band colors on or off
// regardless of what the color package detects for os.Stdout.
func NewRenderer(out io.Writer, colored bool) *Renderer {
	r := &Renderer{
		out:    out,
		bold:   color.New(color.Bold),
		red:    color.New(color.FgRed),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{r.bold, r.red, r.green, r.yellow} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Error prints an inline error message.
func (r *Renderer) Error(msg string) {
	fmt.Fprintln(r.out, r.red.Sprint("! "+msg))
}

// Info prints a plain status line.
func (r *Renderer) Info(msg string) {
	fmt.Fprintln(r.out, msg)
}

// Dashboard prints the summary cards, the subject table and the legend.
func (r *Renderer) Dashboard(identifier string, dash model.DashboardView) {
	s := dash.Summary

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.bold.Sprint("Attendance Dashboard"))
	if identifier != "" {
		fmt.Fprintf(r.out, "Roll No: %s\n", identifier)
	}
	fmt.Fprintln(r.out)

	cards := [][2]string{
		{"Total Subjects", fmt.Sprintf("%d", s.TotalSubjects)},
		{"Overall Attendance", r.band(attendance.Band(dash.OverallBand), fmt.Sprintf("%.2f%%", s.OverallAttendancePercent))},
		{fmt.Sprintf("Below %.0f%%", attendance.Threshold), fmt.Sprintf("%d", s.SubjectsBelowThreshold)},
		{"Classes Attended", fmt.Sprintf("%d / %d", s.TotalPresent, s.TotalClasses)},
	}
	for _, c := range cards {
		fmt.Fprintf(r.out, "  %s %s\n", runewidth.FillRight(c[0], 20), c[1])
	}
	fmt.Fprintln(r.out)

	if len(dash.Subjects) == 0 {
		fmt.Fprintln(r.out, "  No subjects found.")
	} else {
		r.table(dash.Subjects, dash.Recalculated)
	}

	if dash.Recalculated {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "  Percentages recomputed from class counts.")
	}

	fmt.Fprintln(r.out)
	r.Legend()
}

// Legend prints the band legend.
func (r *Renderer) Legend() {
	labels := make([]string, 0, 3)
	for _, b := range attendance.Legend() {
		labels = append(labels, r.band(b, b.Label()))
	}
	fmt.Fprintf(r.out, "Legend: %s\n", strings.Join(labels, "   "))
}

func (r *Renderer) table(subjects []model.SubjectView, recomputed bool) {
	header := []string{"CODE", "SUBJECT", "PRESENT", "ABSENT", "TOTAL", "ATTENDANCE"}
	rows := make([][]string, 0, len(subjects))
	for _, sv := range subjects {
		pct := sv.AttendancePercent
		if recomputed {
			pct = attendance.Recompute(sv.SubjectRecord)
		}
		rows = append(rows, []string{
			sv.SubjectCode,
			runewidth.Truncate(sv.SubjectName, subjectNameWidth, "…"),
			fmt.Sprintf("%d", sv.ClassesPresent),
			fmt.Sprintf("%d", sv.ClassesAbsent),
			fmt.Sprintf("%d", sv.TotalClasses),
			fmt.Sprintf("%.2f%%", pct),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	fmt.Fprintln(r.out, "  "+r.bold.Sprint(joinRow(header, widths)))
	for i, row := range rows {
		line := joinRow(row, widths)
		fmt.Fprintf(r.out, "  %s  %s\n", line, r.band(attendance.Band(subjects[i].Band), subjects[i].Band))
	}
}

func joinRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = runewidth.FillRight(c, widths[i])
	}
	return strings.Join(padded, "  ")
}

func (r *Renderer) band(b attendance.Band, text string) string {
	switch b {
	case attendance.BandExcellent:
		return r.green.Sprint(text)
	case attendance.BandGood:
		return r.yellow.Sprint(text)
	default:
		return r.red.Sprint(text)
	}
}
