package models

import "time"

// Course groups learning content owned by a teacher for one class level.
type Course struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	ClassLevel   string    `db:"class_level" json:"class_level"`
	MaterialPath *string   `db:"material_path" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail augments a course with its quiz count.
type CourseDetail struct {
	Course
	QuizCount int `db:"quiz_count" json:"quiz_count"`
}

// CourseProgress reports how far a student is through a course's quizzes.
type CourseProgress struct {
	CourseID    string `json:"course_id"`
	Done        int    `json:"done"`
	Total       int    `json:"total"`
	ProgressPct int    `json:"progress_pct"`
}

// CourseFilter captures filtering criteria for course listings.
type CourseFilter struct {
	TeacherID  string
	ClassLevel string
	Page       int
	PageSize   int
}
