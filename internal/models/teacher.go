package models

import "time"

// Teacher represents a teaching staff record linked to a user account.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Specialty string    `db:"specialty" json:"specialty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail joins the teacher with its account identity.
type TeacherDetail struct {
	Teacher
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}
