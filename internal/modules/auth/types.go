package auth

import (
	"errors"

	"github.com/puls-academy/backend/internal/models"
)

type LoginDTO struct {
	Identifier        string `json:"identifier"`
	Email             string `json:"email"` // legacy clients send email instead of identifier
	Password          string `json:"password"           binding:"required"`
	DeviceFingerprint string `json:"device_fingerprint"`
}

type RegisterDTO struct {
	Name              string  `json:"name"               binding:"required"`
	Email             string  `json:"email"              binding:"required,email"`
	Phone             *string `json:"phone"`
	Password          string  `json:"password"           binding:"required,min=6"`
	College           string  `json:"college"            binding:"required,oneof=pharmacy dentistry"`
	Gender            string  `json:"gender"             binding:"required,oneof=male female"`
	PharmacyType      string  `json:"pharmacy_type"`
	DeviceFingerprint string  `json:"device_fingerprint" binding:"required"`
}

type UpdateProfileDTO struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone"`
	College      string  `json:"college"`
	Gender       string  `json:"gender"`
	PharmacyType string  `json:"pharmacy_type"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password"     binding:"required,min=6"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login outcome statuses.
const (
	LoginSuccess         = "success"
	LoginPendingApproval = "pending_approval"
)

// LoginResult is the single non-error outcome type of the authentication
// core: either a session was issued, or the device awaits approval.
type LoginResult struct {
	Status       string
	User         *models.UserModel
	Token        string
	RefreshToken string
	Message      string
}

var (
	errInvalidCredentials = errors.New("auth invalid credentials")
	errAccountSuspended   = errors.New("auth account suspended")
	errDeviceRequired     = errors.New("auth device fingerprint required")
	errContactTaken       = errors.New("auth email or phone already registered")
	errUserNotFound       = errors.New("auth user not found")
	errWrongPassword      = errors.New("auth wrong current password")
	errNothingToUpdate    = errors.New("auth nothing to update")
	errSessionGone        = errors.New("auth session no longer active")
)

// User-facing messages, identical wording for both invalid-credential causes
// so account existence is never leaked.
const (
	msgInvalidCredentials = "البريد الإلكتروني أو كلمة المرور غير صحيحة"
	msgAccountSuspended   = "تم إيقاف حسابك. يرجى التواصل مع الدعم."
	msgPendingApproval    = "تم تسجيل جهازك الجديد وهو في انتظار موافقة الإدارة. يمكنك الاستمرار في استخدام جهازك المعتمد."
	msgContactTaken       = "البريد الإلكتروني أو رقم الهاتف مسجل بالفعل"
)
