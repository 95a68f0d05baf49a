package service

import (
	"context"
	"database/sql"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/daneshm/school-records-api/internal/grading"
	"github.com/daneshm/school-records-api/internal/models"
	appErrors "github.com/daneshm/school-records-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	Update(ctx context.Context, record *models.Attendance) error
	Delete(ctx context.Context, id string) error
}

var attendanceDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MarkAttendanceRequest describes the payload for marking a day's attendance.
type MarkAttendanceRequest struct {
	StudentID string  `json:"student_id"`
	Date      string  `json:"date"`
	Status    string  `json:"status"`
	Remarks   *string `json:"remarks"`
}

// UpdateAttendanceRequest amends status/remarks of an existing record.
type UpdateAttendanceRequest struct {
	Status  string  `json:"status"`
	Remarks *string `json:"remarks"`
}

// AttendanceService coordinates attendance workflows.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns paginated attendance rows.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
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

// ListByStudent returns a student's full attendance history.
func (s *AttendanceService) ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student attendance")
	}
	return records, nil
}

// Mark records attendance for a (student, date) pair. A repeated submission
// for the same day overwrites the stored status/remarks rather than adding a
// second row; the persistence upsert keeps that atomic under concurrency.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.Attendance, error) {
	fields, err := s.validateMark(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, appErrors.NewValidation(fields)
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	record := &models.Attendance{
		StudentID: req.StudentID,
		Date:      date,
		Status:    models.AttendanceStatus(req.Status),
		Remarks:   req.Remarks,
	}
	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	return stored, nil
}

// Update changes status/remarks of an existing record by identifier.
func (s *AttendanceService) Update(ctx context.Context, id string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}

	fields := map[string]string{}
	if req.Status == "" {
		fields["status"] = "status is required"
	} else if !models.AttendanceStatus(req.Status).Valid() {
		fields["status"] = "invalid status"
	}
	if len(fields) > 0 {
		return nil, appErrors.NewValidation(fields)
	}

	existing.Status = models.AttendanceStatus(req.Status)
	existing.Remarks = req.Remarks
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	return existing, nil
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	return nil
}

// StudentSummary tallies a student's history through the aggregator.
func (s *AttendanceService) StudentSummary(ctx context.Context, studentID string) (*models.AttendanceSummary, error) {
	records, err := s.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	summary := grading.SummarizeAttendance(records)
	return &summary, nil
}

func (s *AttendanceService) validateMark(ctx context.Context, req MarkAttendanceRequest) (map[string]string, error) {
	fields := map[string]string{}

	if req.StudentID == "" {
		fields["student_id"] = "student is required"
	} else if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			fields["student_id"] = "student not found"
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
	}

	if req.Date == "" {
		fields["date"] = "attendance date is required"
	} else if !attendanceDatePattern.MatchString(req.Date) {
		fields["date"] = "invalid date format (use YYYY-MM-DD)"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		fields["date"] = "invalid date"
	}

	if req.Status == "" {
		fields["status"] = "status is required"
	} else if !models.AttendanceStatus(req.Status).Valid() {
		fields["status"] = "invalid status"
	}

	return fields, nil
}
