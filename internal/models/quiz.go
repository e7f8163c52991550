package models

import "time"

// Quiz belongs to a course and carries one or more questions.
type Quiz struct {
	ID              string    `db:"id" json:"id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Question is a single multiple-choice question with exactly one correct answer.
type Question struct {
	ID      string `db:"id" json:"id"`
	QuizID  string `db:"quiz_id" json:"quiz_id"`
	Text    string `db:"text" json:"text"`
	Choice1 string `db:"choice_1" json:"choice_1"`
	Choice2 string `db:"choice_2" json:"choice_2"`
	Choice3 string `db:"choice_3" json:"choice_3"`
	// Answer is never serialized towards students.
	Answer    string    `db:"answer" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Choices returns the selectable options in display order.
func (q Question) Choices() []string {
	return []string{q.Choice1, q.Choice2, q.Choice3}
}

// QuizDetail bundles a quiz with its questions.
type QuizDetail struct {
	Quiz
	Questions []Question `json:"questions"`
}

// QuizSubmission records one attempt of a quiz by a student. Multiple
// submissions per (student, quiz) pair are permitted.
type QuizSubmission struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	QuizID      string    `db:"quiz_id" json:"quiz_id"`
	Score       *float64  `db:"score" json:"score,omitempty"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// Badge is an achievement marker, unique per (student, course, title).
type Badge struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}
