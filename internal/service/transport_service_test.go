package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/notify"
)

type memTransportRepo struct {
	transports map[string]models.Transport
	positions  int
}

func (m *memTransportRepo) List(ctx context.Context, mode string, page, pageSize int) ([]models.TransportDetail, int, error) {
	return nil, 0, nil
}

func (m *memTransportRepo) FindByID(ctx context.Context, id string) (*models.Transport, error) {
	transport, ok := m.transports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := transport
	return &copied, nil
}

func (m *memTransportRepo) FindByStudentID(ctx context.Context, studentID string) (*models.Transport, error) {
	for _, transport := range m.transports {
		if transport.StudentID == studentID {
			copied := transport
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memTransportRepo) ListByBusNumber(ctx context.Context, busNumber string) ([]models.Transport, error) {
	var result []models.Transport
	for _, transport := range m.transports {
		if transport.BusNumber == busNumber {
			result = append(result, transport)
		}
	}
	return result, nil
}

func (m *memTransportRepo) Create(ctx context.Context, transport *models.Transport) error {
	if m.transports == nil {
		m.transports = make(map[string]models.Transport)
	}
	if transport.ID == "" {
		transport.ID = "t-" + transport.StudentID
	}
	m.transports[transport.ID] = *transport
	return nil
}

func (m *memTransportRepo) Update(ctx context.Context, transport *models.Transport) error {
	m.transports[transport.ID] = *transport
	return nil
}

func (m *memTransportRepo) UpdatePosition(ctx context.Context, id string, lat, lng float64) error {
	transport := m.transports[id]
	transport.Latitude = &lat
	transport.Longitude = &lng
	m.transports[id] = transport
	m.positions++
	return nil
}

func (m *memTransportRepo) Delete(ctx context.Context, id string) error {
	delete(m.transports, id)
	return nil
}

type multiStudentReader struct {
	students map[string]models.Student
}

func (m *multiStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := student
	return &copied, nil
}

type recordingNotifier struct {
	notifications []models.Notification
	emails        []notify.EmailMessage
	failFor       string
}

func (r *recordingNotifier) Notify(ctx context.Context, notification *models.Notification, email *notify.EmailMessage, sms *notify.SMSMessage) error {
	if r.failFor != "" && notification.StudentID != nil && *notification.StudentID == r.failFor {
		return assert.AnError
	}
	r.notifications = append(r.notifications, *notification)
	if email != nil {
		r.emails = append(r.emails, *email)
	}
	return nil
}

func newTransportFixture() (*TransportService, *memTransportRepo, *recordingNotifier) {
	repo := &memTransportRepo{transports: map[string]models.Transport{
		"t1": {ID: "t1", StudentID: "s1", Mode: "Bus", BusNumber: "B12"},
		"t2": {ID: "t2", StudentID: "s2", Mode: "Bus", BusNumber: "B12"},
		"t3": {ID: "t3", StudentID: "s3", Mode: "Taxi"},
	}}
	parentA := "parent-a"
	parentB := "parent-b"
	students := &multiStudentReader{students: map[string]models.Student{
		"s1": {ID: "s1", FirstName: "Amine", LastName: "Diallo", ParentUserID: &parentA, ParentEmail: "a@example.com"},
		"s2": {ID: "s2", FirstName: "Sara", LastName: "Benali", ParentUserID: &parentB},
		"s3": {ID: "s3", FirstName: "Youssef", LastName: "Kone"},
	}}
	notifier := &recordingNotifier{}
	svc := NewTransportService(repo, students, notifier, nil, nil)
	return svc, repo, notifier
}

func TestUpdatePositionMissingLatitude(t *testing.T) {
	svc, repo, _ := newTransportFixture()
	lng := -7.62

	_, err := svc.UpdatePosition(context.Background(), "t1", UpdatePositionRequest{Longitude: &lng})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMissingFields.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "latitude")
	// Nothing was written.
	assert.Zero(t, repo.positions)
	assert.Nil(t, repo.transports["t1"].Latitude)
}

func TestUpdatePositionMissingBothFields(t *testing.T) {
	svc, repo, _ := newTransportFixture()

	_, err := svc.UpdatePosition(context.Background(), "t1", UpdatePositionRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMissingFields.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "latitude")
	assert.Contains(t, appErr.Message, "longitude")
	assert.Zero(t, repo.positions)
}

func TestUpdatePositionOverwrites(t *testing.T) {
	svc, repo, _ := newTransportFixture()
	lat, lng := 33.58, -7.62

	transport, err := svc.UpdatePosition(context.Background(), "t1", UpdatePositionRequest{Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)
	assert.Equal(t, lat, *transport.Latitude)
	assert.Equal(t, lng, *transport.Longitude)
	assert.Equal(t, 1, repo.positions)

	// Last writer wins.
	lat2, lng2 := 34.02, -6.83
	transport, err = svc.UpdatePosition(context.Background(), "t1", UpdatePositionRequest{Latitude: &lat2, Longitude: &lng2})
	require.NoError(t, err)
	assert.Equal(t, lat2, *repo.transports["t1"].Latitude)
	assert.Equal(t, 2, repo.positions)
}

func TestUpdatePositionUnknownTransport(t *testing.T) {
	svc, _, _ := newTransportFixture()
	lat, lng := 1.0, 2.0

	_, err := svc.UpdatePosition(context.Background(), "missing", UpdatePositionRequest{Latitude: &lat, Longitude: &lng})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnnounceBusArrivalFansOutToParents(t *testing.T) {
	svc, _, notifier := newTransportFixture()

	notified, err := svc.AnnounceBusArrival(context.Background(), "B12")
	require.NoError(t, err)
	assert.Equal(t, 2, notified)
	assert.Len(t, notifier.notifications, 2)
	// Only the student with a parent email gets an outbound email.
	assert.Len(t, notifier.emails, 1)
	assert.Equal(t, "a@example.com", notifier.emails[0].ToEmail)
}

func TestAnnounceBusArrivalIsolatesFailures(t *testing.T) {
	svc, _, notifier := newTransportFixture()
	notifier.failFor = "s1"

	notified, err := svc.AnnounceBusArrival(context.Background(), "B12")
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
}

func TestCreateTransportRejectsUnknownMode(t *testing.T) {
	svc, _, _ := newTransportFixture()

	_, err := svc.Create(context.Background(), CreateTransportRequest{StudentID: "s1", Mode: "Rocket"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
