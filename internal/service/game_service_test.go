package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

type memSessionStore struct {
	sessions map[string]models.GameSession
}

func (m *memSessionStore) Get(ctx context.Context, sessionID string) (*models.GameSession, error) {
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	copied := session
	return &copied, nil
}

func (m *memSessionStore) Save(ctx context.Context, session *models.GameSession) error {
	if m.sessions == nil {
		m.sessions = make(map[string]models.GameSession)
	}
	m.sessions[session.SessionID] = *session
	return nil
}

func (m *memSessionStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

type memBadgeRepo struct {
	badges map[string]models.Badge
}

func (m *memBadgeRepo) CreateIfAbsent(ctx context.Context, badge *models.Badge) (bool, error) {
	if m.badges == nil {
		m.badges = make(map[string]models.Badge)
	}
	key := badge.StudentID + "|" + badge.CourseID + "|" + badge.Title
	if _, exists := m.badges[key]; exists {
		return false, nil
	}
	m.badges[key] = *badge
	return true, nil
}

func (m *memBadgeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Badge, error) {
	var result []models.Badge
	for _, badge := range m.badges {
		if badge.StudentID == studentID {
			result = append(result, badge)
		}
	}
	return result, nil
}

type stubStudentReader struct {
	student *models.Student
}

func (s *stubStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.student == nil {
		return nil, sql.ErrNoRows
	}
	return s.student, nil
}

type stubCourseReader struct {
	course *models.Course
}

func (s *stubCourseReader) FirstByClassLevel(ctx context.Context, classLevel string) (*models.Course, error) {
	if s.course == nil || s.course.ClassLevel != classLevel {
		return nil, sql.ErrNoRows
	}
	return s.course, nil
}

type stubProblemReader struct {
	problem *models.Problem
}

func (s *stubProblemReader) Random(ctx context.Context, level string) (*models.Problem, error) {
	if s.problem == nil {
		return nil, sql.ErrNoRows
	}
	return s.problem, nil
}

func (s *stubProblemReader) FindByID(ctx context.Context, id string) (*models.Problem, error) {
	if s.problem == nil || s.problem.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.problem, nil
}

func newGameFixture(course *models.Course) (*GameService, *memSessionStore, *memBadgeRepo) {
	sessions := &memSessionStore{}
	badges := &memBadgeRepo{}
	students := &stubStudentReader{student: &models.Student{ID: "student-1", ClassLevel: "CE2"}}
	courses := &stubCourseReader{course: course}
	problems := &stubProblemReader{problem: &models.Problem{ID: "p1", Question: "3 billes + 2 billes ?", Answer: "5", Level: "CE2"}}
	svc := NewGameService(sessions, badges, students, courses, problems, 5, nil)
	return svc, sessions, badges
}

func TestMathGameTurnsAndBadge(t *testing.T) {
	course := &models.Course{ID: "course-1", ClassLevel: "CE2"}
	svc, sessions, badges := newGameFixture(course)
	ctx := context.Background()

	round, err := svc.StartMath(ctx)
	require.NoError(t, err)
	sessionID := round.Session.SessionID

	// Answer correctly until one point before the threshold.
	for i := 0; i < 4; i++ {
		stored := sessions.sessions[sessionID]
		turn, err := svc.CheckMath(ctx, sessionID, "student-1", stored.OperandA+stored.OperandB)
		require.NoError(t, err)
		assert.True(t, turn.Correct)
		assert.False(t, turn.BadgeEarned)
	}

	// A wrong answer does not move the score.
	turn, err := svc.CheckMath(ctx, sessionID, "student-1", -1)
	require.NoError(t, err)
	assert.False(t, turn.Correct)
	assert.Equal(t, 4, turn.Session.Score)

	// The fifth point awards the badge on the class course of record.
	stored := sessions.sessions[sessionID]
	turn, err = svc.CheckMath(ctx, sessionID, "student-1", stored.OperandA+stored.OperandB)
	require.NoError(t, err)
	assert.True(t, turn.Correct)
	assert.True(t, turn.BadgeEarned)
	assert.Len(t, badges.badges, 1)
	for _, badge := range badges.badges {
		assert.Equal(t, models.BadgeMathMaster, badge.Title)
		assert.Equal(t, "course-1", badge.CourseID)
	}
}

func TestGameBadgeAwardIsIdempotent(t *testing.T) {
	course := &models.Course{ID: "course-1", ClassLevel: "CE2"}
	svc, sessions, badges := newGameFixture(course)
	ctx := context.Background()

	round, err := svc.StartMath(ctx)
	require.NoError(t, err)
	sessionID := round.Session.SessionID

	for i := 0; i < 7; i++ {
		stored := sessions.sessions[sessionID]
		_, err := svc.CheckMath(ctx, sessionID, "student-1", stored.OperandA+stored.OperandB)
		require.NoError(t, err)
	}

	// Seven points past the threshold still yield a single badge row.
	assert.Len(t, badges.badges, 1)
}

func TestGameBadgeSkippedWithoutCourseOfRecord(t *testing.T) {
	svc, sessions, badges := newGameFixture(nil)
	ctx := context.Background()

	round, err := svc.StartMath(ctx)
	require.NoError(t, err)
	sessionID := round.Session.SessionID

	for i := 0; i < 5; i++ {
		stored := sessions.sessions[sessionID]
		turn, err := svc.CheckMath(ctx, sessionID, "student-1", stored.OperandA+stored.OperandB)
		require.NoError(t, err)
		assert.False(t, turn.BadgeEarned)
	}

	// No course matches the class level, so the award is silently skipped.
	assert.Empty(t, badges.badges)
}

func TestWordHuntTurn(t *testing.T) {
	course := &models.Course{ID: "course-1", ClassLevel: "CE2"}
	svc, sessions, _ := newGameFixture(course)
	ctx := context.Background()

	round, err := svc.StartWordHunt(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, round.Hint)
	sessionID := round.Session.SessionID

	stored := sessions.sessions[sessionID]
	turn, err := svc.CheckWord(ctx, sessionID, "student-1", "  "+stored.Word+"  ")
	require.NoError(t, err)
	assert.True(t, turn.Correct)
	assert.Equal(t, 1, turn.Session.Score)

	turn, err = svc.CheckWord(ctx, sessionID, "student-1", "zzz-not-a-word")
	require.NoError(t, err)
	assert.False(t, turn.Correct)
	assert.Equal(t, 1, turn.Session.Score)
}

func TestProblemGameTurn(t *testing.T) {
	course := &models.Course{ID: "course-1", ClassLevel: "CE2"}
	svc, _, _ := newGameFixture(course)
	ctx := context.Background()

	round, session, err := svc.StartProblem(ctx, "CE2")
	require.NoError(t, err)
	assert.Equal(t, "p1", round.Problem.ID)

	turn, err := svc.CheckProblem(ctx, session.SessionID, "student-1", "p1", "5")
	require.NoError(t, err)
	assert.True(t, turn.Correct)

	turn, err = svc.CheckProblem(ctx, session.SessionID, "student-1", "p1", "7")
	require.NoError(t, err)
	assert.False(t, turn.Correct)
}

func TestExpiredSessionIsNotFound(t *testing.T) {
	course := &models.Course{ID: "course-1", ClassLevel: "CE2"}
	svc, _, _ := newGameFixture(course)

	_, err := svc.CheckMath(context.Background(), "missing-session", "student-1", 4)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGameOverview(t *testing.T) {
	course := &models.Course{ID: "course-1", ClassLevel: "CE2"}
	svc, _, badges := newGameFixture(course)
	ctx := context.Background()

	overview, err := svc.Overview(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 0, overview.DoneGames)
	assert.Equal(t, 3, overview.TotalGames)
	assert.Equal(t, 0, overview.ProgressPct)

	_, err = badges.CreateIfAbsent(ctx, &models.Badge{StudentID: "student-1", CourseID: "course-1", Title: models.BadgeWordHunter})
	require.NoError(t, err)
	_, err = badges.CreateIfAbsent(ctx, &models.Badge{StudentID: "student-1", CourseID: "course-1", Title: models.BadgeMathMaster})
	require.NoError(t, err)

	overview, err = svc.Overview(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 2, overview.DoneGames)
	assert.Equal(t, 66, overview.ProgressPct)
	assert.Contains(t, overview.Message, "Continue")
}
