package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
	AttendanceStatusLate    AttendanceStatus = "Late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// Attendance represents one logical record per student per date. The
// (student_id, date) pair is the natural key; re-submissions overwrite.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Remarks   *string          `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord extends the attendance row with student metadata.
type AttendanceRecord struct {
	Attendance
	RollNumber  string `db:"roll_number" json:"roll_number"`
	StudentName string `db:"student_name" json:"student_name"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	StudentID string
	Date      *time.Time
	Status    *AttendanceStatus
	Page      int
	PageSize  int
}

// AttendanceSummary tallies a student's attendance history. Derived, never
// persisted. Late days count toward the total but not toward the numerator.
type AttendanceSummary struct {
	PresentDays          int     `json:"present_days"`
	AbsentDays           int     `json:"absent_days"`
	LateDays             int     `json:"late_days"`
	TotalDays            int     `json:"total_days"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}
