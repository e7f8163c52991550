package models

import "time"

// Absence records a missed school day for a student.
type Absence struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Date      time.Time `db:"absent_on" json:"date"`
	Reason    string    `db:"reason" json:"reason"`
	Justified bool      `db:"justified" json:"justified"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AbsenceDetail joins an absence with the student identity.
type AbsenceDetail struct {
	Absence
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
	ClassLevel       string `db:"class_level" json:"class_level"`
}

// AbsenceFilter captures filtering criteria for absence listings.
type AbsenceFilter struct {
	StudentID string
	TeacherID string
	Justified *bool
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// AbsenceSummary carries the justified/unjustified totals shown alongside listings.
type AbsenceSummary struct {
	Total       int `json:"total"`
	Justified   int `json:"justified"`
	Unjustified int `json:"unjustified"`
}
