package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daneshm/school-records-api/internal/grading"
	"github.com/daneshm/school-records-api/internal/models"
	appErrors "github.com/daneshm/school-records-api/pkg/errors"
	"github.com/daneshm/school-records-api/pkg/export"
)

// ExportFormat enumerates supported roster export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type rosterProvider interface {
	RosterAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentOverview, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered file with download metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the performance roster as CSV or PDF.
type ExportService struct {
	summaries rosterProvider
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(summaries rosterProvider, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{summaries: summaries, csv: csv, pdf: pdf, logger: logger}
}

// Roster renders all matching students with their derived summaries. The
// figures come from the same rollup path the dashboard uses.
func (s *ExportService) Roster(ctx context.Context, format ExportFormat, filter models.StudentFilter) (*ExportResult, error) {
	rows, err := s.summaries.RosterAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	dataset := buildRosterDataset(rows)
	timestamp := time.Now().UTC().Format("20060102_150405")

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("student_roster_%s.csv", timestamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Student Performance Roster")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("student_roster_%s.pdf", timestamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.NewValidation(map[string]string{
			"format": fmt.Sprintf("unsupported format %q (use csv or pdf)", string(format)),
		})
	}
}

// ParseExportFormat normalises a user-supplied format string.
func ParseExportFormat(raw string) ExportFormat {
	return ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
}

func buildRosterDataset(rows []models.StudentOverview) export.Dataset {
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Roll Number":    row.RollNumber,
			"Name":           row.FullName(),
			"Class":          row.Class,
			"Status":         string(row.Status),
			"Average Grade":  fmt.Sprintf("%.2f", row.AverageGrade),
			"Letter":         grading.LetterFor(row.AverageGrade),
			"Attendance (%)": fmt.Sprintf("%.2f", row.AttendancePercentage),
		})
	}
	return export.Dataset{
		Headers: []string{"Roll Number", "Name", "Class", "Status", "Average Grade", "Letter", "Attendance (%)"},
		Rows:    dataRows,
	}
}
