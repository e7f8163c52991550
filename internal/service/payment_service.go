package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/export"
	"github.com/smounat/ecole-plus-api/pkg/notify"
)

type paymentRepo interface {
	CreateStudentPayment(ctx context.Context, payment *models.StudentPayment) error
	FindStudentPayment(ctx context.Context, id string) (*models.StudentPaymentDetail, error)
	ListStudentPayments(ctx context.Context, studentID string, page, pageSize int) ([]models.StudentPaymentDetail, int, error)
	DeleteStudentPayment(ctx context.Context, id string) error
	CreateTeacherPayment(ctx context.Context, payment *models.TeacherPayment) error
	ListTeacherPayments(ctx context.Context, teacherID string, page, pageSize int) ([]models.TeacherPaymentDetail, int, error)
	DeleteTeacherPayment(ctx context.Context, id string) error
}

type paymentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type paymentNotifier interface {
	Notify(ctx context.Context, notification *models.Notification, email *notify.EmailMessage, sms *notify.SMSMessage) error
}

// CreateStudentPaymentRequest records a tuition payment.
type CreateStudentPaymentRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	Month     string  `json:"month" validate:"required"`
}

// CreateTeacherPaymentRequest records a salary payment.
type CreateTeacherPaymentRequest struct {
	TeacherID string  `json:"teacher_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	Month     string  `json:"month" validate:"required"`
}

// PaymentService records tuition and salary payments, renders receipts and
// confirms tuition payments to the parent.
type PaymentService struct {
	repo      paymentRepo
	students  paymentStudentReader
	notifier  paymentNotifier
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepo, students paymentStudentReader, notifier paymentNotifier, pdf *export.PDFExporter, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &PaymentService{repo: repo, students: students, notifier: notifier, pdf: pdf, validator: validate, logger: logger}
}

// CreateStudentPayment records a tuition payment and confirms it to the
// parent. A notification failure is logged and never fails the payment.
func (s *PaymentService) CreateStudentPayment(ctx context.Context, req CreateStudentPaymentRequest) (*models.StudentPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	payment := &models.StudentPayment{
		StudentID: req.StudentID,
		Amount:    req.Amount,
		Month:     req.Month,
		PaidAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateStudentPayment(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.confirmToParent(ctx, student, payment)
	return payment, nil
}

// ListStudentPayments returns tuition payments, optionally for one student.
func (s *PaymentService) ListStudentPayments(ctx context.Context, studentID string, page, pageSize int) ([]models.StudentPaymentDetail, int, error) {
	payments, total, err := s.repo.ListStudentPayments(ctx, studentID, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, total, nil
}

// StudentReceipt renders a PDF receipt for a tuition payment.
func (s *PaymentService) StudentReceipt(ctx context.Context, id string) ([]byte, error) {
	payment, err := s.repo.FindStudentPayment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	receipt, err := s.pdf.RenderReceipt("Reçu de paiement", []export.ReceiptLine{
		{Label: "Élève", Value: payment.StudentFirstName + " " + payment.StudentLastName},
		{Label: "Mois", Value: payment.Month},
		{Label: "Montant", Value: fmt.Sprintf("%.2f MAD", payment.Amount)},
		{Label: "Payé le", Value: payment.PaidAt.Format("02/01/2006")},
		{Label: "Référence", Value: payment.ID},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return receipt, nil
}

// DeleteStudentPayment removes a tuition payment record.
func (s *PaymentService) DeleteStudentPayment(ctx context.Context, id string) error {
	if _, err := s.repo.FindStudentPayment(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if err := s.repo.DeleteStudentPayment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	return nil
}

// CreateTeacherPayment records a salary payment.
func (s *PaymentService) CreateTeacherPayment(ctx context.Context, req CreateTeacherPaymentRequest) (*models.TeacherPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	payment := &models.TeacherPayment{
		TeacherID: req.TeacherID,
		Amount:    req.Amount,
		Month:     req.Month,
		PaidAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateTeacherPayment(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	return payment, nil
}

// ListTeacherPayments returns salary payments, optionally for one teacher.
func (s *PaymentService) ListTeacherPayments(ctx context.Context, teacherID string, page, pageSize int) ([]models.TeacherPaymentDetail, int, error) {
	payments, total, err := s.repo.ListTeacherPayments(ctx, teacherID, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, total, nil
}

// DeleteTeacherPayment removes a salary payment record.
func (s *PaymentService) DeleteTeacherPayment(ctx context.Context, id string) error {
	if err := s.repo.DeleteTeacherPayment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	return nil
}

func (s *PaymentService) confirmToParent(ctx context.Context, student *models.Student, payment *models.StudentPayment) {
	if s.notifier == nil || student.ParentUserID == nil {
		return
	}
	message := fmt.Sprintf("Paiement de %.2f MAD reçu pour %s (%s).", payment.Amount, student.FullName(), payment.Month)
	notification := &models.Notification{
		UserID:    *student.ParentUserID,
		StudentID: &student.ID,
		Title:     "Paiement confirmé",
		Message:   message,
	}
	var email *notify.EmailMessage
	if student.ParentEmail != "" {
		email = &notify.EmailMessage{
			ToEmail: student.ParentEmail,
			Subject: "Confirmation de paiement",
			Body:    message,
		}
	}
	if err := s.notifier.Notify(ctx, notification, email, nil); err != nil {
		s.logger.Warn("payment confirmation failed", zap.String("student_id", student.ID), zap.Error(err))
	}
}
