package payment

import (
	"errors"
	"fmt"

	"github.com/puls-academy/backend/internal/models"
	"github.com/puls-academy/backend/internal/modules/notification"
	"github.com/puls-academy/backend/internal/pkg/pagination"
	"github.com/puls-academy/backend/internal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db       *gorm.DB
	notifier *notification.Service
}

func NewService(db *gorm.DB, notifier *notification.Service) *Service {
	return &Service{db: db, notifier: notifier}
}

// Create files a payment claim for review. The course price is read
// server-side; the client never supplies the amount.
func (s *Service) Create(userID string, dto *CreatePaymentDTO) (*models.PaymentModel, error) {
	var p *models.PaymentModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var course models.CourseModel
		if err := tx.Select("id, title, price").Where("id = ?", dto.CourseID).First(&course).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errCourseNotFound
			}
			return err
		}

		var enrolled int64
		if err := tx.Model(&models.EnrollmentModel{}).
			Where("user_id = ? AND course_id = ? AND status = ?", userID, dto.CourseID, models.EnrollmentActive).
			Count(&enrolled).Error; err != nil {
			return err
		}
		if enrolled > 0 {
			return errAlreadyEnrolled
		}

		var pending int64
		if err := tx.Model(&models.PaymentModel{}).
			Where("user_id = ? AND course_id = ? AND status = ?", userID, dto.CourseID, models.PaymentPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return errAlreadyPending
		}

		p = &models.PaymentModel{
			UserID:        userID,
			CourseID:      dto.CourseID,
			Amount:        course.Price,
			Method:        dto.Method,
			ScreenshotURL: dto.ScreenshotURL,
			Status:        models.PaymentPending,
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return s.notifier.Notify(tx, userID, fmt.Sprintf("دفعك قيد المراجعة لكورس: %s", course.Title))
	})
	return p, err
}

func (s *Service) List(q pagination.Query, status string) ([]PaymentEntry, response.Pagination, error) {
	query := s.db.Model(&models.PaymentModel{}).
		Select("payments.*, users.name AS user_name, users.email AS user_email, courses.title AS course_title").
		Joins("JOIN users ON users.id = payments.user_id").
		Joins("JOIN courses ON courses.id = payments.course_id").
		Order("payments.created_at DESC")
	if status != "" {
		query = query.Where("payments.status = ?", status)
	}

	var rows []PaymentEntry
	p, err := pagination.Paginate(query, q, &rows)
	return rows, p, err
}

func (s *Service) ListMine(userID string, q pagination.Query) ([]PaymentEntry, response.Pagination, error) {
	query := s.db.Model(&models.PaymentModel{}).
		Select("payments.*, courses.title AS course_title").
		Joins("JOIN courses ON courses.id = payments.course_id").
		Where("payments.user_id = ?", userID).
		Order("payments.created_at DESC")

	var rows []PaymentEntry
	p, err := pagination.Paginate(query, q, &rows)
	return rows, p, err
}

// Approve accepts the payment and opens the course. The status flip, the
// enrollment upsert and the notification commit together; the unique
// (user, course) index makes a double approval a no-op on the enrollment.
func (s *Service) Approve(paymentID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		p, course, err := loadPendingPayment(tx, paymentID)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.PaymentModel{}).Where("id = ?", p.ID).
			Update("status", models.PaymentApproved).Error; err != nil {
			return err
		}

		e := models.EnrollmentModel{
			UserID:    p.UserID,
			CourseID:  p.CourseID,
			PaymentID: p.ID,
			Status:    models.EnrollmentActive,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.Assignments(map[string]any{"status": models.EnrollmentActive, "payment_id": p.ID}),
		}).Create(&e).Error; err != nil {
			return err
		}

		return s.notifier.Notify(tx, p.UserID, fmt.Sprintf("تم فتح الكورس: %s!", course.Title))
	})
}

func (s *Service) Reject(paymentID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		p, course, err := loadPendingPayment(tx, paymentID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.PaymentModel{}).Where("id = ?", p.ID).
			Update("status", models.PaymentRejected).Error; err != nil {
			return err
		}
		return s.notifier.Notify(tx, p.UserID, fmt.Sprintf("تم رفض الدفع لكورس: %s", course.Title))
	})
}

func (s *Service) Stats() (*Stats, error) {
	var st Stats
	counts := []struct {
		status string
		dest   *int64
	}{
		{models.PaymentPending, &st.Pending},
		{models.PaymentApproved, &st.Approved},
		{models.PaymentRejected, &st.Rejected},
	}
	for _, c := range counts {
		if err := s.db.Model(&models.PaymentModel{}).
			Where("status = ?", c.status).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	err := s.db.Model(&models.PaymentModel{}).
		Where("status = ?", models.PaymentApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&st.Revenue).Error
	return &st, err
}

func loadPendingPayment(tx *gorm.DB, paymentID string) (*models.PaymentModel, *models.CourseModel, error) {
	var p models.PaymentModel
	if err := tx.Where("id = ?", paymentID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errPaymentNotFound
		}
		return nil, nil, err
	}
	if p.Status != models.PaymentPending {
		return nil, nil, errPaymentResolved
	}
	var course models.CourseModel
	if err := tx.Select("id, title").Where("id = ?", p.CourseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errCourseNotFound
		}
		return nil, nil, err
	}
	return &p, &course, nil
}
