package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/models"
)

type fakeGradeReader struct {
	grades []models.Grade
}

func (f *fakeGradeReader) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	return f.grades, nil
}

type fakeSubmissionReader struct {
	submissions []models.QuizSubmission
}

func (f *fakeSubmissionReader) SubmissionsByStudent(ctx context.Context, studentID string) ([]models.QuizSubmission, error) {
	return f.submissions, nil
}

type fakeCounter struct {
	count int
}

func (f *fakeCounter) CountByStudent(ctx context.Context, studentID string) (int, error) {
	return f.count, nil
}

func floatPtr(v float64) *float64 { return &v }

func newProgressService(grades []models.Grade, submissions []models.QuizSubmission, absences, badges int) *ProgressService {
	return NewProgressService(
		&fakeGradeReader{grades: grades},
		&fakeSubmissionReader{submissions: submissions},
		&fakeCounter{count: absences},
		&fakeCounter{count: badges},
		nil,
	)
}

func TestProgressStatisticsEmptyRecords(t *testing.T) {
	svc := newProgressService(nil, nil, 0, 0)

	stats, err := svc.Statistics(context.Background(), "student-1")
	require.NoError(t, err)
	assert.False(t, stats.HasGrades)
	assert.False(t, stats.HasQuizScores)
	assert.Zero(t, stats.AverageGrade)
	assert.Zero(t, stats.AverageQuizScore)
}

func TestProgressStatisticsAverages(t *testing.T) {
	grades := []models.Grade{{Value: 12}, {Value: 16}, {Value: 8}}
	submissions := []models.QuizSubmission{
		{Score: floatPtr(6)},
		{Score: floatPtr(9)},
		{Score: nil},
	}
	svc := newProgressService(grades, submissions, 1, 2)

	stats, err := svc.Statistics(context.Background(), "student-1")
	require.NoError(t, err)
	assert.True(t, stats.HasGrades)
	assert.InDelta(t, 12.0, stats.AverageGrade, 0.001)
	assert.True(t, stats.HasQuizScores)
	assert.InDelta(t, 7.5, stats.AverageQuizScore, 0.001)
	assert.Equal(t, 1, stats.AbsenceCount)
	assert.Equal(t, 2, stats.BadgeCount)
}

func TestRecommendationGradeTiers(t *testing.T) {
	svc := newProgressService(nil, nil, 0, 0)

	cases := []struct {
		name    string
		average float64
		want    string
	}{
		{"below ten", 9.99, "soutien scolaire"},
		{"boundary ten", 10, "continue tes efforts"},
		{"below fourteen", 13.99, "continue tes efforts"},
		{"boundary fourteen", 14, "Excellents résultats"},
		{"top", 19.5, "Excellents résultats"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs := svc.Recommendations(models.ProgressStats{HasGrades: true, AverageGrade: tc.average})
			require.NotEmpty(t, recs)
			assert.Contains(t, recs[0], tc.want)
		})
	}
}

func TestRecommendationQuizTiersOnlyWithSubmissions(t *testing.T) {
	svc := newProgressService(nil, nil, 0, 0)

	// Without submissions no quiz tier fires: only the no-grades hint and
	// the badge tier remain.
	recs := svc.Recommendations(models.ProgressStats{})
	require.Len(t, recs, 2)

	recs = svc.Recommendations(models.ProgressStats{HasQuizScores: true, AverageQuizScore: 4.9})
	assert.Contains(t, recs[1], "refais les exercices")

	recs = svc.Recommendations(models.ProgressStats{HasQuizScores: true, AverageQuizScore: 5})
	assert.Contains(t, recs[1], "encore un petit effort")

	recs = svc.Recommendations(models.ProgressStats{HasQuizScores: true, AverageQuizScore: 8})
	assert.Contains(t, recs[1], "Très bons scores")
}

func TestRecommendationNoGradesTier(t *testing.T) {
	svc := newProgressService(nil, nil, 0, 0)

	recs := svc.Recommendations(models.ProgressStats{})
	require.NotEmpty(t, recs)
	assert.Contains(t, recs[0], "évaluations")

	// The hint disappears as soon as a grade tier applies.
	recs = svc.Recommendations(models.ProgressStats{HasGrades: true, AverageGrade: 12})
	for _, rec := range recs {
		assert.NotContains(t, rec, "évaluations")
	}
}

func TestRecommendationBadgeTiers(t *testing.T) {
	svc := newProgressService(nil, nil, 0, 0)

	recs := svc.Recommendations(models.ProgressStats{BadgeCount: 0})
	assert.Contains(t, recs[1], "premiers badges")

	recs = svc.Recommendations(models.ProgressStats{BadgeCount: 1})
	assert.Contains(t, recs[1], "Premier badge")

	recs = svc.Recommendations(models.ProgressStats{BadgeCount: 2})
	assert.Contains(t, recs[1], "Belle collection")

	recs = svc.Recommendations(models.ProgressStats{BadgeCount: 7})
	assert.Contains(t, recs[1], "Belle collection")
}

func TestRecommendationAbsenceWarning(t *testing.T) {
	svc := newProgressService(nil, nil, 0, 0)

	recs := svc.Recommendations(models.ProgressStats{AbsenceCount: 2})
	for _, rec := range recs {
		assert.NotContains(t, rec, "absences")
	}

	recs = svc.Recommendations(models.ProgressStats{AbsenceCount: 3})
	found := false
	for _, rec := range recs {
		if rec == "Attention au nombre d'absences : la régularité est essentielle pour progresser." {
			found = true
		}
	}
	assert.True(t, found, "expected an absence warning at three absences")
}

func TestProgressReportBundlesStatsAndRecommendations(t *testing.T) {
	grades := []models.Grade{{Value: 15}, {Value: 17}}
	svc := newProgressService(grades, nil, 4, 0)

	report, err := svc.Report(context.Background(), "student-1")
	require.NoError(t, err)
	assert.True(t, report.Statistics.HasGrades)
	assert.InDelta(t, 16.0, report.Statistics.AverageGrade, 0.001)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "Excellents résultats")
	assert.Contains(t, report.Recommendations[len(report.Recommendations)-1], "absences")
}

func TestProgressReportWithoutGradesSuggestsAssessments(t *testing.T) {
	svc := newProgressService(nil, nil, 0, 0)

	report, err := svc.Report(context.Background(), "student-1")
	require.NoError(t, err)
	assert.False(t, report.Statistics.HasGrades)
	require.Len(t, report.Recommendations, 2)
	assert.Contains(t, report.Recommendations[0], "commence par des évaluations")
}
