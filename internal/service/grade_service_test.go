package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daneshm/school-records-api/internal/models"
	appErrors "github.com/daneshm/school-records-api/pkg/errors"
)

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockGradeStore struct {
	grades map[string]*models.Grade
}

func (m *mockGradeStore) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeRecord, int, error) {
	var result []models.GradeRecord
	for _, g := range m.grades {
		if filter.StudentID != "" && filter.StudentID != g.StudentID {
			continue
		}
		if filter.Subject != "" && filter.Subject != g.Subject {
			continue
		}
		result = append(result, models.GradeRecord{Grade: *g})
	}
	return result, len(result), nil
}

func (m *mockGradeStore) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	var result []models.Grade
	for _, g := range m.grades {
		if g.StudentID == studentID {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGradeStore) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeStore) Create(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[string]*models.Grade)
	}
	if grade.ID == "" {
		grade.ID = "grd-" + grade.Subject
	}
	copied := *grade
	m.grades[grade.ID] = &copied
	return nil
}

func (m *mockGradeStore) Update(ctx context.Context, grade *models.Grade) error {
	copied := *grade
	m.grades[grade.ID] = &copied
	return nil
}

func (m *mockGradeStore) Delete(ctx context.Context, id string) error {
	delete(m.grades, id)
	return nil
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestGradeServiceCreateDerivesEvaluation(t *testing.T) {
	grades := &mockGradeStore{}
	students := &mockStudentReader{students: map[string]*models.Student{"stu-1": {ID: "stu-1"}}}
	svc := NewGradeService(grades, students, validator.New(), zap.NewNop())

	grade, err := svc.Create(context.Background(), GradePayload{
		StudentID:     "stu-1",
		Subject:       "Mathematics",
		MarksObtained: floatPtr(18),
		TotalMarks:    floatPtr(20),
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, grade.Percentage)
	assert.Equal(t, "A", grade.Letter)
	assert.Len(t, grades.grades, 1)
}

func TestGradeServiceCreateDefaultsTotalMarks(t *testing.T) {
	grades := &mockGradeStore{}
	students := &mockStudentReader{students: map[string]*models.Student{"stu-1": {ID: "stu-1"}}}
	svc := NewGradeService(grades, students, validator.New(), zap.NewNop())

	grade, err := svc.Create(context.Background(), GradePayload{
		StudentID:     "stu-1",
		Subject:       "Science",
		MarksObtained: floatPtr(72.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, grade.TotalMarks)
	assert.Equal(t, 72.5, grade.Percentage)
	assert.Equal(t, "C+", grade.Letter)
}

func TestGradeServiceCreateValidation(t *testing.T) {
	grades := &mockGradeStore{}
	students := &mockStudentReader{students: map[string]*models.Student{"stu-1": {ID: "stu-1"}}}
	svc := NewGradeService(grades, students, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), GradePayload{
		StudentID:     "missing",
		MarksObtained: floatPtr(110),
		TotalMarks:    floatPtr(100),
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "student not found", appErr.Fields["student_id"])
	assert.Equal(t, "subject is required", appErr.Fields["subject"])
	assert.Equal(t, "marks obtained cannot exceed total marks", appErr.Fields["marks_obtained"])
	assert.Empty(t, grades.grades)
}

func TestGradeServiceCreateRejectsNonPositiveTotal(t *testing.T) {
	students := &mockStudentReader{students: map[string]*models.Student{"stu-1": {ID: "stu-1"}}}
	svc := NewGradeService(&mockGradeStore{}, students, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), GradePayload{
		StudentID:     "stu-1",
		Subject:       "History",
		MarksObtained: floatPtr(10),
		TotalMarks:    floatPtr(0),
	})
	require.Error(t, err)
	assert.Equal(t, "total marks must be positive", appErrors.FromError(err).Fields["total_marks"])
}

func TestGradeServiceUpdateRecomputes(t *testing.T) {
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	grades := &mockGradeStore{grades: map[string]*models.Grade{
		"grd-1": {ID: "grd-1", StudentID: "stu-1", Subject: "Mathematics", MarksObtained: 40, TotalMarks: 100, Percentage: 40, Letter: "F", CreatedAt: created},
	}}
	students := &mockStudentReader{students: map[string]*models.Student{"stu-1": {ID: "stu-1"}}}
	svc := NewGradeService(grades, students, validator.New(), zap.NewNop())

	grade, err := svc.Update(context.Background(), "grd-1", GradePayload{
		Subject:       "Mathematics",
		MarksObtained: floatPtr(95),
		TotalMarks:    floatPtr(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 95.0, grade.Percentage)
	assert.Equal(t, "A+", grade.Letter)
	assert.Equal(t, "stu-1", grade.StudentID)
	assert.Equal(t, created, grade.CreatedAt)
}

func TestGradeServiceListByStudentRequiresStudent(t *testing.T) {
	svc := NewGradeService(&mockGradeStore{}, &mockStudentReader{}, validator.New(), zap.NewNop())
	_, err := svc.ListByStudent(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceDeleteNotFound(t *testing.T) {
	svc := NewGradeService(&mockGradeStore{}, &mockStudentReader{}, validator.New(), zap.NewNop())
	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
