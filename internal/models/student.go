package models

import "time"

// ClassLevels enumerates the primary-school class levels handled by the school.
var ClassLevels = []string{"CE1", "CE2", "CE3", "CE4", "CE5", "CE6"}

// ValidClassLevel reports whether the given level is one of the known classes.
func ValidClassLevel(level string) bool {
	for _, l := range ClassLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Student represents a pupil record.
type Student struct {
	ID           string     `db:"id" json:"id"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	ClassLevel   string     `db:"class_level" json:"class_level"`
	UserID       *string    `db:"user_id" json:"user_id,omitempty"`
	ParentUserID *string    `db:"parent_user_id" json:"parent_user_id,omitempty"`
	ParentEmail  string     `db:"parent_email" json:"parent_email,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName renders the display name used in notifications and exports.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter captures filtering criteria for student listings.
type StudentFilter struct {
	Name       string
	ClassLevel string
	// TeacherID restricts the listing to a teacher's roster.
	TeacherID string
	// ParentUserID restricts the listing to a parent's children.
	ParentUserID string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// StudentDetail augments a student with its roster of teachers.
type StudentDetail struct {
	Student
	Teachers []TeacherDetail `json:"teachers,omitempty"`
}
