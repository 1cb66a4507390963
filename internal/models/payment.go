package models

const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"

	PaymentMethodVodafoneCash = "vodafone_cash"
	PaymentMethodInstapay     = "instapay"
)

// PaymentModel is a manual payment claim awaiting admin review.
// The screenshot is an opaque URL; storage is handled elsewhere.
type PaymentModel struct {
	Base
	UserID        string  `json:"user_id"        gorm:"index;not null"`
	CourseID      string  `json:"course_id"      gorm:"index;not null"`
	Amount        float64 `json:"amount"         gorm:"not null"`
	Method        string  `json:"method"         gorm:"not null"`
	ScreenshotURL string  `json:"screenshot_url"`
	Status        string  `json:"status"         gorm:"default:pending;index;not null"`
}

func (PaymentModel) TableName() string { return "payments" }

const (
	EnrollmentActive   = "active"
	EnrollmentInactive = "inactive"
)

// EnrollmentModel grants a user access to a course. One row per (user, course).
type EnrollmentModel struct {
	Base
	UserID    string `json:"user_id"    gorm:"uniqueIndex:idx_user_course;not null"`
	CourseID  string `json:"course_id"  gorm:"uniqueIndex:idx_user_course;not null"`
	PaymentID string `json:"payment_id" gorm:"index"`
	Status    string `json:"status"     gorm:"default:active;not null"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }
