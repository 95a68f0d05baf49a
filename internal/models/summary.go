package models

// PerformanceSummary is the dashboard-ready rollup for a single student:
// the mean of per-exam percentages and the attendance rate.
type PerformanceSummary struct {
	AverageGrade         float64 `json:"average_grade"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}
