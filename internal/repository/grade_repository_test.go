package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
)

func TestGradeRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery("SELECT id, student_id, teacher_id, subject, grade_value, graded_at").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "subject", "grade_value", "graded_at"}).
			AddRow("g1", "student-1", "Maths", 14.5, time.Now()).
			AddRow("g2", "student-1", "Français", 11.0, time.Now()))

	grades, err := repo.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, grades, 2)
	assert.Equal(t, 14.5, grades[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("INSERT INTO grades").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	grade := &models.Grade{StudentID: "student-1", Subject: "Maths", Value: 16, Date: time.Now()}
	err := repo.Create(context.Background(), grade)
	require.NoError(t, err)
	assert.NotEmpty(t, grade.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositorySubjectAverages(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery("SELECT subject, AVG").
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"subject", "average", "count"}).
			AddRow("Maths", 12.3, 10).
			AddRow("Sciences", 15.1, 4))

	averages, err := repo.SubjectAverages(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, averages, 2)
	assert.Equal(t, "Maths", averages[0].Subject)
	assert.Equal(t, 10, averages[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryClassAverages(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery("SELECT s.class_level, AVG").
		WillReturnRows(sqlmock.NewRows([]string{"class_level", "average"}).
			AddRow("CE1", 11.2).
			AddRow("CE2", 13.8))

	averages, err := repo.ClassAverages(context.Background())
	require.NoError(t, err)
	require.Len(t, averages, 2)
	assert.Equal(t, "CE2", averages[1].ClassLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
