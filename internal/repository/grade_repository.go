package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/daneshm/school-records-api/internal/models"
)

// GradeRepository handles persistence for exam results.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grade rows with student metadata, newest exams first.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeRecord, int, error) {
	base := "FROM grades g JOIN students s ON s.id = g.student_id"
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("g.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("g.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	order := "g.exam_date DESC, s.first_name ASC"
	if filter.Subject != "" {
		order = "g.percentage DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT g.id, g.student_id, g.subject, g.semester, g.marks_obtained, g.total_marks,
        g.percentage, g.letter, g.exam_date, g.created_at, g.updated_at,
        s.roll_number, s.first_name || ' ' || s.last_name AS student_name
        %s ORDER BY %s LIMIT %d OFFSET %d`, base, order, size, offset)

	var rows []models.GradeRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return rows, total, nil
}

// ListByStudent returns all grade rows for one student, newest first.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	const query = `SELECT id, student_id, subject, semester, marks_obtained, total_marks, percentage, letter,
        exam_date, created_at, updated_at
        FROM grades WHERE student_id = $1 ORDER BY exam_date DESC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list grades by student: %w", err)
	}
	return grades, nil
}

// FindByID fetches a single grade row.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	const query = `SELECT id, student_id, subject, semester, marks_obtained, total_marks, percentage, letter,
        exam_date, created_at, updated_at
        FROM grades WHERE id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a new grade row, derived fields included.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, subject, semester, marks_obtained, total_marks, percentage, letter, exam_date, created_at, updated_at)
        VALUES (:id, :student_id, :subject, :semester, :marks_obtained, :total_marks, :percentage, :letter, :exam_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update rewrites a grade row; percentage and letter travel with their inputs.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET subject = :subject, semester = :semester, marks_obtained = :marks_obtained,
        total_marks = :total_marks, percentage = :percentage, letter = :letter, exam_date = :exam_date,
        updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade row.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM grades WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}
