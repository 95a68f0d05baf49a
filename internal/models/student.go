package models

import "time"

// StudentStatus captures the enrollment state of a student.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "Active"
	StudentStatusInactive  StudentStatus = "Inactive"
	StudentStatusGraduated StudentStatus = "Graduated"
)

// Valid returns true when the status is a supported value.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive, StudentStatusGraduated:
		return true
	default:
		return false
	}
}

// Student represents a learner registered in the institution. The roll number
// is the human-readable identifier and must stay unique alongside the email.
type Student struct {
	ID             string        `db:"id" json:"id"`
	RollNumber     string        `db:"roll_number" json:"roll_number"`
	FirstName      string        `db:"first_name" json:"first_name"`
	LastName       string        `db:"last_name" json:"last_name"`
	Email          string        `db:"email" json:"email"`
	Phone          *string       `db:"phone" json:"phone,omitempty"`
	DateOfBirth    *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender         *string       `db:"gender" json:"gender,omitempty"`
	Address        *string       `db:"address" json:"address,omitempty"`
	Class          string        `db:"class" json:"class"`
	EnrollmentDate time.Time     `db:"enrollment_date" json:"enrollment_date"`
	Status         StudentStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display and exports.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Class     string
	Status    *StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentOverview is a roster row: a student plus the derived performance
// figures the dashboard listing renders.
type StudentOverview struct {
	Student
	AverageGrade         float64 `json:"average_grade"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// StudentDetails bundles a student with related records for the detail view.
type StudentDetails struct {
	Student
	Grades            []Grade            `json:"grades"`
	Attendance        []Attendance       `json:"attendance"`
	AttendanceSummary AttendanceSummary  `json:"attendance_summary"`
	Performance       PerformanceSummary `json:"performance"`
}
