package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/daneshm/school-records-api/internal/grading"
	"github.com/daneshm/school-records-api/internal/models"
	appErrors "github.com/daneshm/school-records-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeRecord, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// GradePayload holds the writable fields of an exam result. Percentage and
// letter are never accepted from callers; they are always recomputed.
type GradePayload struct {
	StudentID     string   `json:"student_id"`
	Subject       string   `json:"subject"`
	Semester      *string  `json:"semester"`
	MarksObtained *float64 `json:"marks_obtained"`
	TotalMarks    *float64 `json:"total_marks"`
	ExamDate      *string  `json:"exam_date"`
}

// GradeService orchestrates exam result entry and recomputation.
type GradeService struct {
	grades    gradeRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, students: students, validator: validate, logger: logger}
}

// List returns grade entries with student metadata.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeRecord, *models.Pagination, error) {
	rows, total, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// ListByStudent returns a student's grade history.
func (s *GradeService) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student grades")
	}
	return grades, nil
}

// Get returns a single grade record.
func (s *GradeService) Get(ctx context.Context, id string) (*models.Grade, error) {
	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return grade, nil
}

// Create validates the payload, derives percentage and letter through the
// evaluator and stores the result. Validation fully precedes the write.
func (s *GradeService) Create(ctx context.Context, req GradePayload) (*models.Grade, error) {
	fields, err := s.validatePayload(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, appErrors.NewValidation(fields)
	}

	grade, err := s.buildGrade(req)
	if err != nil {
		return nil, err
	}
	grade.StudentID = req.StudentID
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	return grade, nil
}

// Update rewrites an exam result, recomputing the derived fields with the
// same evaluator as the create path.
func (s *GradeService) Update(ctx context.Context, id string, req GradePayload) (*models.Grade, error) {
	existing, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	fields, err := s.validatePayload(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, appErrors.NewValidation(fields)
	}

	grade, err := s.buildGrade(req)
	if err != nil {
		return nil, err
	}
	grade.ID = existing.ID
	grade.StudentID = existing.StudentID
	grade.CreatedAt = existing.CreatedAt
	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return grade, nil
}

// Delete removes a grade record.
func (s *GradeService) Delete(ctx context.Context, id string) error {
	if _, err := s.grades.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if err := s.grades.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}

func (s *GradeService) validatePayload(ctx context.Context, req GradePayload, checkStudent bool) (map[string]string, error) {
	fields := map[string]string{}

	if checkStudent {
		if req.StudentID == "" {
			fields["student_id"] = "student is required"
		} else if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
			if err == sql.ErrNoRows {
				fields["student_id"] = "student not found"
			} else {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
			}
		}
	}

	if strings.TrimSpace(req.Subject) == "" {
		fields["subject"] = "subject is required"
	}

	total := 100.0
	if req.TotalMarks != nil {
		total = *req.TotalMarks
	}
	if req.MarksObtained == nil {
		fields["marks_obtained"] = "marks obtained is required"
	} else if *req.MarksObtained < 0 {
		fields["marks_obtained"] = "marks cannot be negative"
	}
	if total <= 0 {
		fields["total_marks"] = "total marks must be positive"
	} else if req.MarksObtained != nil && *req.MarksObtained > total {
		fields["marks_obtained"] = "marks obtained cannot exceed total marks"
	}

	if req.ExamDate != nil && *req.ExamDate != "" {
		if _, err := time.Parse("2006-01-02", *req.ExamDate); err != nil {
			fields["exam_date"] = "invalid date format (use YYYY-MM-DD)"
		}
	}

	return fields, nil
}

func (s *GradeService) buildGrade(req GradePayload) (*models.Grade, error) {
	total := 100.0
	if req.TotalMarks != nil {
		total = *req.TotalMarks
	}
	evaluation, err := grading.Evaluate(*req.MarksObtained, total)
	if err != nil {
		return nil, err
	}
	examDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.ExamDate != nil && *req.ExamDate != "" {
		parsed, parseErr := time.Parse("2006-01-02", *req.ExamDate)
		if parseErr != nil {
			return nil, appErrors.NewValidation(map[string]string{"exam_date": "invalid date format (use YYYY-MM-DD)"})
		}
		examDate = parsed
	}
	return &models.Grade{
		Subject:       strings.TrimSpace(req.Subject),
		Semester:      req.Semester,
		MarksObtained: *req.MarksObtained,
		TotalMarks:    total,
		Percentage:    evaluation.Percentage,
		Letter:        evaluation.Letter,
		ExamDate:      examDate,
	}, nil
}
