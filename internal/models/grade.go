package models

import "time"

// Grade represents a single exam result. Percentage and Letter are derived
// from MarksObtained/TotalMarks and are recomputed together on every write.
type Grade struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Subject       string    `db:"subject" json:"subject"`
	Semester      *string   `db:"semester" json:"semester,omitempty"`
	MarksObtained float64   `db:"marks_obtained" json:"marks_obtained"`
	TotalMarks    float64   `db:"total_marks" json:"total_marks"`
	Percentage    float64   `db:"percentage" json:"percentage"`
	Letter        string    `db:"letter" json:"letter"`
	ExamDate      time.Time `db:"exam_date" json:"exam_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// GradeRecord extends a grade row with student metadata for listings.
type GradeRecord struct {
	Grade
	RollNumber  string `db:"roll_number" json:"roll_number"`
	StudentName string `db:"student_name" json:"student_name"`
}

// GradeFilter scopes grade listing queries.
type GradeFilter struct {
	StudentID string
	Subject   string
	Semester  string
	Page      int
	PageSize  int
}
