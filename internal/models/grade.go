package models

import "time"

// Grade is a subject mark on the 0-20 scale recorded for a student.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Subject   string    `db:"subject" json:"subject"`
	Value     float64   `db:"grade_value" json:"value"`
	Date      time.Time `db:"graded_at" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeDetail joins a grade with the student identity for listings.
type GradeDetail struct {
	Grade
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
	ClassLevel       string `db:"class_level" json:"class_level"`
}

// GradeFilter captures filtering criteria for grade listings.
type GradeFilter struct {
	StudentID  string
	TeacherID  string
	Subject    string
	ClassLevel string
	Search     string
	MinValue   *float64
	MaxValue   *float64
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// SubjectAverage aggregates grades per subject.
type SubjectAverage struct {
	Subject string  `db:"subject" json:"subject"`
	Average float64 `db:"average" json:"average"`
	Count   int     `db:"count" json:"count"`
}

// ClassAverage aggregates grades per class level.
type ClassAverage struct {
	ClassLevel string  `db:"class_level" json:"class_level"`
	Average    float64 `db:"average" json:"average"`
}
