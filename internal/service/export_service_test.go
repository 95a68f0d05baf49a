package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daneshm/school-records-api/internal/models"
	appErrors "github.com/daneshm/school-records-api/pkg/errors"
)

type mockRosterProvider struct {
	rows []models.StudentOverview
}

func (m *mockRosterProvider) RosterAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentOverview, error) {
	return m.rows, nil
}

func exportFixtureRows() []models.StudentOverview {
	return []models.StudentOverview{
		{
			Student:              models.Student{ID: "stu-1", RollNumber: "R-100", FirstName: "Amira", LastName: "Hassan", Class: "10-A", Status: models.StudentStatusActive},
			AverageGrade:         91.25,
			AttendancePercentage: 87.5,
		},
		{
			Student:              models.Student{ID: "stu-2", RollNumber: "R-200", FirstName: "Budi", LastName: "Santoso", Class: "10-B", Status: models.StudentStatusActive},
			AverageGrade:         48.0,
			AttendancePercentage: 60.0,
		},
	}
}

func TestExportServiceRosterCSV(t *testing.T) {
	svc := NewExportService(&mockRosterProvider{rows: exportFixtureRows()}, nil, nil, zap.NewNop())

	result, err := svc.Roster(context.Background(), ExportFormatCSV, models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "Roll Number")
	assert.Contains(t, body, "Amira Hassan")
	assert.Contains(t, body, "91.25")
	// Letters are re-derived from the averages.
	assert.Contains(t, body, "A")
	assert.Contains(t, body, "F")
}

func TestExportServiceRosterCSVCarriesFullRoster(t *testing.T) {
	students := &mockSummaryStudents{students: map[string]*models.Student{}}
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("stu-%d", i)
		students.students[id] = &models.Student{ID: id, RollNumber: fmt.Sprintf("R-%d", i)}
	}
	summaries := NewSummaryService(students, &mockGradeLister{}, &mockAttendanceLister{}, disabledCache(), time.Minute, zap.NewNop())
	svc := NewExportService(summaries, nil, nil, zap.NewNop())

	result, err := svc.Roster(context.Background(), ExportFormatCSV, models.StudentFilter{})
	require.NoError(t, err)

	// One header line plus one line per student, well past any page size.
	assert.Equal(t, 151, strings.Count(string(result.Payload), "\n"))
}

func TestExportServiceRosterPDF(t *testing.T) {
	svc := NewExportService(&mockRosterProvider{rows: exportFixtureRows()}, nil, nil, zap.NewNop())

	result, err := svc.Roster(context.Background(), ExportFormatPDF, models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.NotEmpty(t, result.Payload)
}

func TestExportServiceRosterUnsupportedFormat(t *testing.T) {
	svc := NewExportService(&mockRosterProvider{}, nil, nil, zap.NewNop())

	_, err := svc.Roster(context.Background(), ParseExportFormat("XLSX"), models.StudentFilter{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields["format"], "unsupported format")
}

func TestParseExportFormat(t *testing.T) {
	assert.Equal(t, ExportFormatCSV, ParseExportFormat(" CSV "))
	assert.Equal(t, ExportFormatPDF, ParseExportFormat("pdf"))
}
