package models

// ProgressStats are the per-student learning statistics, computed fresh on
// every call. Empty record sets aggregate to zero.
type ProgressStats struct {
	AverageGrade     float64 `json:"average_grade"`
	HasGrades        bool    `json:"has_grades"`
	AverageQuizScore float64 `json:"average_quiz_score"`
	HasQuizScores    bool    `json:"has_quiz_scores"`
	AbsenceCount     int     `json:"absence_count"`
	BadgeCount       int     `json:"badge_count"`
}

// ProgressReport bundles statistics with the recommendation tiers derived
// from them.
type ProgressReport struct {
	Statistics      ProgressStats `json:"statistics"`
	Recommendations []string      `json:"recommendations"`
}
