package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "birth_date", "class_level", "user_id", "parent_user_id", "parent_email", "created_at", "updated_at"}).
		AddRow("1", "Amine", "Diallo", time.Now(), "CE2", nil, nil, "parent@example.com", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.first_name, s.last_name, s.birth_date, s.class_level, s.user_id, s.parent_user_id, s.parent_email, s.created_at, s.updated_at\n        FROM students s WHERE 1=1 ORDER BY s.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT s.id) FROM students s WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByClassLevel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT s.id, s.first_name").
		WithArgs("CE3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "class_level"}).
			AddRow("2", "Sara", "Benali", "CE3"))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("CE3").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{ClassLevel: "CE3"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "CE3", students[0].ClassLevel)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{FirstName: "Amine", LastName: "Diallo", ClassLevel: "CE2"}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryAssignTeacherIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO teacher_students").
		WithArgs("teacher-1", "student-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AssignTeacher(context.Background(), "student-1", "teacher-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryIsOnRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM teacher_students").
		WithArgs("teacher-1", "student-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	onRoster, err := repo.IsOnRoster(context.Background(), "student-1", "teacher-1")
	require.NoError(t, err)
	assert.False(t, onRoster)
	assert.NoError(t, mock.ExpectationsWereMet())
}
