package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daneshm/school-records-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "roll_number", "first_name", "last_name", "email", "phone", "date_of_birth", "gender", "address", "class", "enrollment_date", "status", "created_at", "updated_at"}).
		AddRow("stu-1", "R-100", "Amira", "Hassan", "amira@example.com", nil, nil, nil, nil, "10-A", time.Now(), "Active", time.Now(), time.Now())
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT s.id, s.roll_number, .+ FROM students s WHERE 1=1 .+ ORDER BY s.first_name ASC LIMIT 20 OFFSET 0").
		WithArgs("%amira%").
		WillReturnRows(studentRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students s WHERE 1=1`).
		WithArgs("%amira%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "Amira"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`FROM students s WHERE 1=1 AND s.class = \$1 ORDER BY s.created_at DESC`).
		WithArgs("10-A").
		WillReturnRows(studentRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students s`).
		WithArgs("10-A").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, _, err := repo.List(context.Background(), models.StudentFilter{Class: "10-A", SortBy: "created_at", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListAllSkipsPageWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	// The query ends at the ORDER BY clause: no LIMIT, no OFFSET, so a
	// roster export is never cut off at the listing page size.
	mock.ExpectQuery(`FROM students s WHERE 1=1 AND s.class = \$1 ORDER BY s.first_name ASC$`).
		WithArgs("10-A").
		WillReturnRows(studentRows())

	students, err := repo.ListAll(context.Background(), models.StudentFilter{Class: "10-A", PageSize: 10000})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByRollNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM students WHERE roll_number = \$1 LIMIT 1`).
		WithArgs("R-100").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByRollNumber(context.Background(), "R-100", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByRollNumberExcludesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM students WHERE roll_number = \$1 AND id <> \$2 LIMIT 1`).
		WithArgs("R-100", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByRollNumber(context.Background(), "R-100", "stu-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{RollNumber: "R-100", FirstName: "Amira", LastName: "Hassan", Email: "amira@example.com", Class: "10-A", EnrollmentDate: time.Now(), Status: models.StudentStatusActive}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM grades WHERE student_id = \$1`).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM attendance WHERE student_id = \$1`).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM students WHERE id = \$1`).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "stu-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
