package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
)

func TestBadgeRepositoryCreateIfAbsentInserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	mock.ExpectExec("INSERT INTO badges").
		WithArgs(sqlmock.AnyArg(), "student-1", "course-1", "Math Master", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := repo.CreateIfAbsent(context.Background(), &models.Badge{
		StudentID: "student-1",
		CourseID:  "course-1",
		Title:     models.BadgeMathMaster,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgeRepositoryCreateIfAbsentDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	mock.ExpectExec("INSERT INTO badges").
		WithArgs(sqlmock.AnyArg(), "student-1", "course-1", "Math Master", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.CreateIfAbsent(context.Background(), &models.Badge{
		StudentID: "student-1",
		CourseID:  "course-1",
		Title:     models.BadgeMathMaster,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgeRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	mock.ExpectQuery("SELECT id, student_id, course_id, title, awarded_at FROM badges").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "course_id", "title"}).
			AddRow("b1", "student-1", "course-1", "Chasseur de mots"))

	badges, err := repo.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, models.BadgeWordHunter, badges[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
