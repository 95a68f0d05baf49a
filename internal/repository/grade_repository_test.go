package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daneshm/school-records-api/internal/models"
)

func gradeColumns() []string {
	return []string{"id", "student_id", "subject", "semester", "marks_obtained", "total_marks", "percentage", "letter", "exam_date", "created_at", "updated_at"}
}

func TestGradeRepositoryListOrdersBySubjectRanking(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows(append(gradeColumns(), "roll_number", "student_name")).
		AddRow("grd-1", "stu-1", "Mathematics", nil, 90.0, 100.0, 90.0, "A", time.Now(), time.Now(), time.Now(), "R-100", "Amira Hassan")

	// Subject filter switches the ordering to percentage ranking.
	mock.ExpectQuery(`FROM grades g JOIN students s ON s.id = g.student_id WHERE 1=1 AND g.subject = \$1 ORDER BY g.percentage DESC`).
		WithArgs("Mathematics").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM grades g`).
		WithArgs("Mathematics").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.GradeFilter{Subject: "Mathematics"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "R-100", records[0].RollNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows(gradeColumns()).
		AddRow("grd-2", "stu-1", "Science", nil, 72.5, 100.0, 72.5, "C+", time.Now(), time.Now(), time.Now()).
		AddRow("grd-1", "stu-1", "Mathematics", nil, 90.0, 100.0, 90.0, "A", time.Now().Add(-48*time.Hour), time.Now(), time.Now())

	mock.ExpectQuery(`FROM grades WHERE student_id = \$1 ORDER BY exam_date DESC`).
		WithArgs("stu-1").
		WillReturnRows(rows)

	grades, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Len(t, grades, 2)
	assert.Equal(t, "Science", grades[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("INSERT INTO grades").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	grade := &models.Grade{StudentID: "stu-1", Subject: "Mathematics", MarksObtained: 90, TotalMarks: 100, Percentage: 90, Letter: "A", ExamDate: time.Now()}
	require.NoError(t, repo.Create(context.Background(), grade))
	assert.NotEmpty(t, grade.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("UPDATE grades SET subject").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	grade := &models.Grade{ID: "grd-1", Subject: "Mathematics", MarksObtained: 95, TotalMarks: 100, Percentage: 95, Letter: "A+", ExamDate: time.Now()}
	require.NoError(t, repo.Update(context.Background(), grade))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec(`DELETE FROM grades WHERE id = \$1`).
		WithArgs("grd-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "grd-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
