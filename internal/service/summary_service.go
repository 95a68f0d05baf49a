package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/daneshm/school-records-api/internal/grading"
	"github.com/daneshm/school-records-api/internal/models"
	appErrors "github.com/daneshm/school-records-api/pkg/errors"
)

type summaryStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListAll(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type gradeLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
}

type attendanceLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
}

// SummaryService is the single rollup path for per-student performance. The
// dashboard roster, the student detail view and the exports all go through
// it so the same inputs always produce the same figures.
type SummaryService struct {
	students   summaryStudentRepository
	grades     gradeLister
	attendance attendanceLister
	cache      *CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewSummaryService constructs a SummaryService.
func NewSummaryService(students summaryStudentRepository, grades gradeLister, attendance attendanceLister, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *SummaryService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		students:   students,
		grades:     grades,
		attendance: attendance,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// StudentPerformance composes the summary for one student.
func (s *SummaryService) StudentPerformance(ctx context.Context, studentID string) (*models.PerformanceSummary, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	summary, err := s.compose(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// StudentDetails returns the full detail view: the student, its raw grade and
// attendance history and the derived summaries.
func (s *SummaryService) StudentDetails(ctx context.Context, studentID string) (*models.StudentDetails, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	attendance, err := s.attendance.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	attendanceSummary := grading.SummarizeAttendance(attendance)
	return &models.StudentDetails{
		Student:           *student,
		Grades:            grades,
		Attendance:        attendance,
		AttendanceSummary: attendanceSummary,
		Performance:       grading.ComposeSummary(grades, attendanceSummary),
	}, nil
}

// Roster returns every matching student with its performance summary, the
// dashboard listing payload. Unfiltered first pages are served from cache;
// cache failures degrade to recomputation.
func (s *SummaryService) Roster(ctx context.Context, filter models.StudentFilter) ([]models.StudentOverview, *models.Pagination, error) {
	cacheKey := ""
	if filter.Search == "" && filter.Class == "" && filter.Status == nil {
		cacheKey = fmt.Sprintf("summary:roster:%d:%d", filter.Page, filter.PageSize)
		var cached rosterPage
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached.Rows, cached.Pagination, nil
		}
	}

	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	rows, err := s.overviews(ctx, students)
	if err != nil {
		return nil, nil, err
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

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, rosterPage{Rows: rows, Pagination: pagination}, s.cacheTTL); err != nil {
			s.logger.Warn("roster cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return rows, pagination, nil
}

// RosterAll composes the summary for every matching student with no page
// window and no cache. Exports go through it so the file carries the full
// roster regardless of how listings are paginated.
func (s *SummaryService) RosterAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentOverview, error) {
	students, err := s.students.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return s.overviews(ctx, students)
}

// InvalidateRoster drops cached roster pages after student, grade or
// attendance writes.
func (s *SummaryService) InvalidateRoster(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "summary:roster:*"); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.Error(err))
	}
}

func (s *SummaryService) overviews(ctx context.Context, students []models.Student) ([]models.StudentOverview, error) {
	rows := make([]models.StudentOverview, 0, len(students))
	for _, student := range students {
		summary, err := s.compose(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.StudentOverview{
			Student:              student,
			AverageGrade:         summary.AverageGrade,
			AttendancePercentage: summary.AttendancePercentage,
		})
	}
	return rows, nil
}

func (s *SummaryService) compose(ctx context.Context, studentID string) (models.PerformanceSummary, error) {
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return models.PerformanceSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	attendance, err := s.attendance.ListByStudent(ctx, studentID)
	if err != nil {
		return models.PerformanceSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return grading.ComposeSummary(grades, grading.SummarizeAttendance(attendance)), nil
}

type rosterPage struct {
	Rows       []models.StudentOverview `json:"rows"`
	Pagination *models.Pagination       `json:"pagination"`
}
