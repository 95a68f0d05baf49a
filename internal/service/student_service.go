package service

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/daneshm/school-records-api/internal/models"
	appErrors "github.com/daneshm/school-records-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByRollNumber(ctx context.Context, rollNumber string, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

var phonePattern = regexp.MustCompile(`^[0-9+\-\s]{10,}$`)

// StudentPayload holds the mutable fields accepted on create and update.
type StudentPayload struct {
	RollNumber     string  `json:"roll_number"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	DateOfBirth    *string `json:"date_of_birth"`
	Gender         *string `json:"gender"`
	Address        *string `json:"address"`
	Class          string  `json:"class"`
	EnrollmentDate *string `json:"enrollment_date"`
	Status         string  `json:"status"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student after full field validation. Nothing is
// written when any field is invalid.
func (s *StudentService) Create(ctx context.Context, req StudentPayload) (*models.Student, error) {
	fields, err := s.validatePayload(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, appErrors.NewValidation(fields)
	}

	student, err := s.buildStudent(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update rewrites an existing student, re-running the same uniqueness checks
// while excluding the student's own row.
func (s *StudentService) Update(ctx context.Context, id string, req StudentPayload) (*models.Student, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	fields, err := s.validatePayload(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, appErrors.NewValidation(fields)
	}

	student, err := s.buildStudent(req)
	if err != nil {
		return nil, err
	}
	student.ID = existing.ID
	student.CreatedAt = existing.CreatedAt
	if req.EnrollmentDate == nil {
		student.EnrollmentDate = existing.EnrollmentDate
	}
	if req.Status == "" {
		student.Status = existing.Status
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student together with the grade and attendance rows it owns.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// validatePayload collects one message per offending field. Uniqueness checks
// exclude the record's own identifier on update.
func (s *StudentService) validatePayload(ctx context.Context, req StudentPayload, excludeID string) (map[string]string, error) {
	fields := map[string]string{}

	if strings.TrimSpace(req.RollNumber) == "" {
		fields["roll_number"] = "roll number is required"
	} else {
		exists, err := s.repo.ExistsByRollNumber(ctx, req.RollNumber, excludeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roll number")
		}
		if exists {
			fields["roll_number"] = "this roll number already exists"
		}
	}

	if strings.TrimSpace(req.FirstName) == "" {
		fields["first_name"] = "first name is required"
	} else if len(req.FirstName) < 2 {
		fields["first_name"] = "first name must be at least 2 characters"
	}

	if strings.TrimSpace(req.LastName) == "" {
		fields["last_name"] = "last name is required"
	} else if len(req.LastName) < 2 {
		fields["last_name"] = "last name must be at least 2 characters"
	}

	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "email is required"
	} else if err := s.validator.Var(req.Email, "email"); err != nil {
		fields["email"] = "invalid email format"
	} else {
		exists, err := s.repo.ExistsByEmail(ctx, req.Email, excludeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if exists {
			fields["email"] = "this email already exists"
		}
	}

	if req.Phone != nil && *req.Phone != "" && !phonePattern.MatchString(*req.Phone) {
		fields["phone"] = "invalid phone number format"
	}

	if strings.TrimSpace(req.Class) == "" {
		fields["class"] = "class is required"
	}

	if req.Status != "" && !models.StudentStatus(req.Status).Valid() {
		fields["status"] = "invalid status"
	}

	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", *req.DateOfBirth); err != nil {
			fields["date_of_birth"] = "invalid date format (use YYYY-MM-DD)"
		}
	}
	if req.EnrollmentDate != nil && *req.EnrollmentDate != "" {
		if _, err := time.Parse("2006-01-02", *req.EnrollmentDate); err != nil {
			fields["enrollment_date"] = "invalid date format (use YYYY-MM-DD)"
		}
	}

	return fields, nil
}

func (s *StudentService) buildStudent(req StudentPayload) (*models.Student, error) {
	status := models.StudentStatus(req.Status)
	if req.Status == "" {
		status = models.StudentStatusActive
	}
	enrollment := time.Now().UTC().Truncate(24 * time.Hour)
	if req.EnrollmentDate != nil && *req.EnrollmentDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.EnrollmentDate)
		if err != nil {
			return nil, appErrors.NewValidation(map[string]string{"enrollment_date": "invalid date format (use YYYY-MM-DD)"})
		}
		enrollment = parsed
	}
	student := &models.Student{
		RollNumber:     strings.TrimSpace(req.RollNumber),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          strings.TrimSpace(req.Email),
		Phone:          req.Phone,
		Gender:         req.Gender,
		Address:        req.Address,
		Class:          strings.TrimSpace(req.Class),
		EnrollmentDate: enrollment,
		Status:         status,
	}
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, appErrors.NewValidation(map[string]string{"date_of_birth": "invalid date format (use YYYY-MM-DD)"})
		}
		student.DateOfBirth = &parsed
	}
	return student, nil
}
