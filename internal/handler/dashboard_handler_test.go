package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daneshm/school-records-api/internal/models"
	"github.com/daneshm/school-records-api/internal/service"
)

type fakeStudentStore struct {
	students map[string]*models.Student
}

func (f *fakeStudentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var result []models.Student
	for _, s := range f.students {
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (f *fakeStudentStore) ListAll(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	result, _, err := f.List(ctx, filter)
	return result, err
}

func (f *fakeStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeGradeStore struct {
	grades map[string][]models.Grade
}

func (f *fakeGradeStore) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	return f.grades[studentID], nil
}

type fakeAttendanceStore struct {
	records map[string][]models.Attendance
}

func (f *fakeAttendanceStore) ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	return f.records[studentID], nil
}

func newDashboardFixture() *DashboardHandler {
	students := &fakeStudentStore{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", RollNumber: "R-100", FirstName: "Amira", LastName: "Hassan", Class: "10-A"},
	}}
	grades := &fakeGradeStore{grades: map[string][]models.Grade{
		"stu-1": {{ID: "g1", StudentID: "stu-1", Percentage: 80}, {ID: "g2", StudentID: "stu-1", Percentage: 90}},
	}}
	attendance := &fakeAttendanceStore{records: map[string][]models.Attendance{
		"stu-1": {
			{Status: models.AttendanceStatusPresent},
			{Status: models.AttendanceStatusAbsent},
		},
	}}
	cache := service.NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	summaries := service.NewSummaryService(students, grades, attendance, cache, time.Minute, zap.NewNop())
	return NewDashboardHandler(summaries)
}

func TestDashboardHandlerRoster(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/roster", nil)

	handler.Roster(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []struct {
			RollNumber           string  `json:"roll_number"`
			AverageGrade         float64 `json:"average_grade"`
			AttendancePercentage float64 `json:"attendance_percentage"`
		} `json:"data"`
		Pagination struct {
			TotalCount int `json:"total_count"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "R-100", envelope.Data[0].RollNumber)
	assert.Equal(t, 85.0, envelope.Data[0].AverageGrade)
	assert.Equal(t, 50.0, envelope.Data[0].AttendancePercentage)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestDashboardHandlerStudentPerformance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/stu-1/summary", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.StudentPerformance(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.PerformanceSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 85.0, envelope.Data.AverageGrade)
}

func TestDashboardHandlerStudentPerformanceNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/missing/summary", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.StudentPerformance(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
