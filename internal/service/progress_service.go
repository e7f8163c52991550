package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

const absenceWarningThreshold = 3

type progressGradeReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
}

type progressSubmissionReader interface {
	SubmissionsByStudent(ctx context.Context, studentID string) ([]models.QuizSubmission, error)
}

type progressAbsenceReader interface {
	CountByStudent(ctx context.Context, studentID string) (int, error)
}

type progressBadgeReader interface {
	CountByStudent(ctx context.Context, studentID string) (int, error)
}

// ProgressService computes learning statistics and recommendation tiers for
// a student. Statistics are recomputed from the stored records on every call,
// nothing is cached or persisted.
type ProgressService struct {
	grades      progressGradeReader
	submissions progressSubmissionReader
	absences    progressAbsenceReader
	badges      progressBadgeReader
	logger      *zap.Logger
}

// NewProgressService constructs a ProgressService.
func NewProgressService(grades progressGradeReader, submissions progressSubmissionReader, absences progressAbsenceReader, badges progressBadgeReader, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{grades: grades, submissions: submissions, absences: absences, badges: badges, logger: logger}
}

// Report assembles the statistics and recommendations for a student.
func (s *ProgressService) Report(ctx context.Context, studentID string) (*models.ProgressReport, error) {
	stats, err := s.Statistics(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &models.ProgressReport{
		Statistics:      *stats,
		Recommendations: s.Recommendations(*stats),
	}, nil
}

// Statistics aggregates grades, quiz scores, absences and badges. Empty
// record sets yield zero values with the matching Has flags cleared.
func (s *ProgressService) Statistics(ctx context.Context, studentID string) (*models.ProgressStats, error) {
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	submissions, err := s.submissions.SubmissionsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz submissions")
	}

	absenceCount, err := s.absences.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count absences")
	}

	badgeCount, err := s.badges.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count badges")
	}

	stats := &models.ProgressStats{
		AbsenceCount: absenceCount,
		BadgeCount:   badgeCount,
	}

	if len(grades) > 0 {
		var sum float64
		for _, g := range grades {
			sum += g.Value
		}
		stats.AverageGrade = round2(sum / float64(len(grades)))
		stats.HasGrades = true
	}

	var scoreSum float64
	var scored int
	for _, sub := range submissions {
		if sub.Score == nil {
			continue
		}
		scoreSum += *sub.Score
		scored++
	}
	if scored > 0 {
		stats.AverageQuizScore = round2(scoreSum / float64(scored))
		stats.HasQuizScores = true
	}

	return stats, nil
}

// Recommendations derives the advice tiers from the statistics. A student
// without any grade gets the start-with-assessments hint instead of a tier;
// the quiz tier only applies when scored submissions exist.
func (s *ProgressService) Recommendations(stats models.ProgressStats) []string {
	recommendations := make([]string, 0, 4)

	if stats.HasGrades {
		switch {
		case stats.AverageGrade < 10:
			recommendations = append(recommendations, "Moyenne générale en dessous de 10 : un soutien scolaire est recommandé.")
		case stats.AverageGrade < 14:
			recommendations = append(recommendations, "Bon travail, continue tes efforts pour progresser encore.")
		default:
			recommendations = append(recommendations, "Excellents résultats, continue ainsi !")
		}
	} else {
		recommendations = append(recommendations, "Pas encore de notes : commence par des évaluations avec tes enseignants.")
	}

	if stats.HasQuizScores {
		switch {
		case stats.AverageQuizScore < 5:
			recommendations = append(recommendations, "Les quiz sont difficiles pour le moment : refais les exercices des cours.")
		case stats.AverageQuizScore < 8:
			recommendations = append(recommendations, "Bons scores aux quiz, encore un petit effort pour exceller.")
		default:
			recommendations = append(recommendations, "Très bons scores aux quiz, bravo !")
		}
	}

	switch {
	case stats.BadgeCount == 0:
		recommendations = append(recommendations, "Participe aux quiz et aux mini-jeux pour gagner tes premiers badges.")
	case stats.BadgeCount == 1:
		recommendations = append(recommendations, "Premier badge obtenu, continue pour agrandir ta collection.")
	default:
		recommendations = append(recommendations, "Belle collection de badges, tu es sur la bonne voie !")
	}

	if stats.AbsenceCount >= absenceWarningThreshold {
		recommendations = append(recommendations, "Attention au nombre d'absences : la régularité est essentielle pour progresser.")
	}

	return recommendations
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
