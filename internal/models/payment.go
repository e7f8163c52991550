package models

import "time"

// StudentPayment records a tuition payment for a student and month.
type StudentPayment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Month     string    `db:"month" json:"month"`
	PaidAt    time.Time `db:"paid_at" json:"paid_at"`
}

// StudentPaymentDetail joins the payment with the student identity.
type StudentPaymentDetail struct {
	StudentPayment
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
	ParentEmail      string `db:"parent_email" json:"-"`
}

// TeacherPayment records a salary payment for a teacher and month.
type TeacherPayment struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Month     string    `db:"month" json:"month"`
	PaidAt    time.Time `db:"paid_at" json:"paid_at"`
}

// TeacherPaymentDetail joins the payment with the teacher identity.
type TeacherPaymentDetail struct {
	TeacherPayment
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
