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

func TestAbsenceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectExec("INSERT INTO absences").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	absence := &models.Absence{StudentID: "student-1", Date: time.Now(), Reason: "maladie"}
	err := repo.Create(context.Background(), absence)
	require.NoError(t, err)
	assert.NotEmpty(t, absence.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositorySummaryByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "justified", "unjustified"}).AddRow(4, 1, 3))

	summary, err := repo.SummaryByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Justified)
	assert.Equal(t, 3, summary.Unjustified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryCountByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
