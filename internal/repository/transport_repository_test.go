package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
)

func TestTransportRepositoryUpdatePosition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransportRepository(db)

	mock.ExpectExec("UPDATE transports SET latitude").
		WithArgs("transport-1", 33.58, -7.62, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePosition(context.Background(), "transport-1", 33.58, -7.62)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransportRepositoryFindByStudentID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransportRepository(db)

	mock.ExpectQuery("SELECT id, student_id, mode, driver, bus_number").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "mode", "bus_number"}).
			AddRow("t1", "student-1", "Bus", "B12"))

	transport, err := repo.FindByStudentID(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "Bus", transport.Mode)
	assert.Equal(t, "B12", transport.BusNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransportRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTransportRepository(db)

	mock.ExpectExec("INSERT INTO transports").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	transport := &models.Transport{StudentID: "student-1", Mode: "Taxi"}
	err := repo.Create(context.Background(), transport)
	require.NoError(t, err)
	assert.NotEmpty(t, transport.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
