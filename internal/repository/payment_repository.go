package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smounat/ecole-plus-api/internal/models"
)

// PaymentRepository manages persistence for tuition and salary payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateStudentPayment records a tuition payment.
func (r *PaymentRepository) CreateStudentPayment(ctx context.Context, payment *models.StudentPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_payments (id, student_id, amount, month, paid_at)
        VALUES (:id, :student_id, :amount, :month, :paid_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create student payment: %w", err)
	}
	return nil
}

// FindStudentPayment fetches a tuition payment joined with the student identity.
func (r *PaymentRepository) FindStudentPayment(ctx context.Context, id string) (*models.StudentPaymentDetail, error) {
	const query = `SELECT p.id, p.student_id, p.amount, p.month, p.paid_at,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.parent_email
        FROM student_payments p JOIN students s ON s.id = p.student_id WHERE p.id = $1 LIMIT 1`
	var detail models.StudentPaymentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListStudentPayments returns tuition payments, optionally scoped to a student.
func (r *PaymentRepository) ListStudentPayments(ctx context.Context, studentID string, page, pageSize int) ([]models.StudentPaymentDetail, int, error) {
	base := "FROM student_payments p JOIN students s ON s.id = p.student_id WHERE 1=1"
	var args []interface{}
	if studentID != "" {
		base += fmt.Sprintf(" AND p.student_id = $%d", len(args)+1)
		args = append(args, studentID)
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.amount, p.month, p.paid_at,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.parent_email
        %s ORDER BY p.paid_at DESC LIMIT %d OFFSET %d`, base, pageSize, offset)

	var payments []models.StudentPaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list student payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count student payments: %w", err)
	}
	return payments, total, nil
}

// DeleteStudentPayment removes a tuition payment.
func (r *PaymentRepository) DeleteStudentPayment(ctx context.Context, id string) error {
	const query = `DELETE FROM student_payments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student payment: %w", err)
	}
	return nil
}

// CreateTeacherPayment records a salary payment.
func (r *PaymentRepository) CreateTeacherPayment(ctx context.Context, payment *models.TeacherPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_payments (id, teacher_id, amount, month, paid_at)
        VALUES (:id, :teacher_id, :amount, :month, :paid_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create teacher payment: %w", err)
	}
	return nil
}

// ListTeacherPayments returns salary payments, optionally scoped to a teacher.
func (r *PaymentRepository) ListTeacherPayments(ctx context.Context, teacherID string, page, pageSize int) ([]models.TeacherPaymentDetail, int, error) {
	base := "FROM teacher_payments p JOIN teachers t ON t.id = p.teacher_id JOIN users u ON u.id = t.user_id WHERE 1=1"
	var args []interface{}
	if teacherID != "" {
		base += fmt.Sprintf(" AND p.teacher_id = $%d", len(args)+1)
		args = append(args, teacherID)
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT p.id, p.teacher_id, p.amount, p.month, p.paid_at, u.full_name AS teacher_name
        %s ORDER BY p.paid_at DESC LIMIT %d OFFSET %d`, base, pageSize, offset)

	var payments []models.TeacherPaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teacher payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teacher payments: %w", err)
	}
	return payments, total, nil
}

// DeleteTeacherPayment removes a salary payment.
func (r *PaymentRepository) DeleteTeacherPayment(ctx context.Context, id string) error {
	const query = `DELETE FROM teacher_payments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher payment: %w", err)
	}
	return nil
}
