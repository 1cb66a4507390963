package payment

import (
	"errors"

	"github.com/puls-academy/backend/internal/models"
)

type CreatePaymentDTO struct {
	CourseID      string `json:"course_id"      binding:"required"`
	Method        string `json:"method"         binding:"required,oneof=vodafone_cash instapay"`
	ScreenshotURL string `json:"screenshot_url"`
}

// PaymentEntry joins a payment with the names the admin review queue shows.
type PaymentEntry struct {
	models.PaymentModel
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
	CourseTitle string `json:"course_title"`
}

// Stats summarizes payment volume for the admin.
type Stats struct {
	Pending  int64   `json:"pending"`
	Approved int64   `json:"approved"`
	Rejected int64   `json:"rejected"`
	Revenue  float64 `json:"revenue"`
}

var (
	errPaymentNotFound  = errors.New("payment not found")
	errPaymentResolved  = errors.New("payment already resolved")
	errCourseNotFound   = errors.New("payment course not found")
	errAlreadyEnrolled  = errors.New("payment already enrolled")
	errAlreadyPending   = errors.New("payment already pending")
)
