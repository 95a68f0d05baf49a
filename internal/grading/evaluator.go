// Package grading holds the deterministic aggregation rules that turn raw
// grade and attendance rows into the derived figures the rest of the API
// serves. Everything here is pure: no I/O, no shared state, safe to call
// from any number of requests at once.
package grading

import (
	"math"

	"github.com/daneshm/school-records-api/internal/models"
	appErrors "github.com/daneshm/school-records-api/pkg/errors"
)

// Evaluation is the outcome of scoring a single exam.
type Evaluation struct {
	Percentage float64 `json:"percentage"`
	Letter     string  `json:"letter"`
}

type letterBand struct {
	min    float64
	letter string
}

// Bands are checked highest first; thresholds are inclusive, so an exact
// 90.00 lands in "A", not "B+".
var letterBands = []letterBand{
	{95, "A+"},
	{90, "A"},
	{85, "B+"},
	{80, "B"},
	{75, "B-"},
	{70, "C+"},
	{65, "C"},
	{60, "C-"},
	{55, "D+"},
	{50, "D"},
}

// Evaluate computes the percentage and letter grade for an exam result.
// Callers validate marks <= total; a non-positive total or negative marks is
// a contract violation and yields INVALID_INPUT rather than NaN or Inf.
func Evaluate(marksObtained, totalMarks float64) (Evaluation, error) {
	if totalMarks <= 0 {
		return Evaluation{}, appErrors.Clone(appErrors.ErrInvalidInput, "total marks must be positive")
	}
	if marksObtained < 0 {
		return Evaluation{}, appErrors.Clone(appErrors.ErrInvalidInput, "marks obtained cannot be negative")
	}
	percentage := round2(marksObtained / totalMarks * 100)
	return Evaluation{Percentage: percentage, Letter: LetterFor(percentage)}, nil
}

// LetterFor maps a percentage onto the fixed letter-grade table.
func LetterFor(percentage float64) string {
	for _, band := range letterBands {
		if percentage >= band.min {
			return band.letter
		}
	}
	return "F"
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SummarizeAttendance tallies attendance rows by status. Only Present days
// feed the percentage numerator; Late days still count in the denominator.
// An empty history yields an explicit zero percentage, never an error.
func SummarizeAttendance(records []models.Attendance) models.AttendanceSummary {
	summary := models.AttendanceSummary{}
	for _, record := range records {
		switch record.Status {
		case models.AttendanceStatusPresent:
			summary.PresentDays++
		case models.AttendanceStatusAbsent:
			summary.AbsentDays++
		case models.AttendanceStatusLate:
			summary.LateDays++
		default:
			continue
		}
		summary.TotalDays++
	}
	if summary.TotalDays > 0 {
		summary.AttendancePercentage = round2(float64(summary.PresentDays) / float64(summary.TotalDays) * 100)
	}
	return summary
}

// ComposeSummary rolls a student's grades and attendance summary into the
// figures every presentation path shares. Empty grades yield an average of
// zero, matching the aggregator's zero-division policy.
func ComposeSummary(grades []models.Grade, attendance models.AttendanceSummary) models.PerformanceSummary {
	summary := models.PerformanceSummary{AttendancePercentage: attendance.AttendancePercentage}
	if len(grades) == 0 {
		return summary
	}
	total := 0.0
	for _, grade := range grades {
		total += grade.Percentage
	}
	summary.AverageGrade = round2(total / float64(len(grades)))
	return summary
}
