package device

import (
	"errors"
	"time"

	"github.com/puls-academy/backend/internal/models"
	sessionpkg "github.com/puls-academy/backend/internal/pkg/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrRequestNotFound means the approval queue has no pending row with that id.
	ErrRequestNotFound = errors.New("device request not found")
)

// Info describes the device a login attempt arrived from.
type Info struct {
	Fingerprint string
	UserAgent   string
	IP          string
}

// IsApproved implements the trust check with first-device bootstrap: a user
// with no trusted devices gets the current fingerprint auto-trusted, so the
// very first login never hits the approval queue.
func IsApproved(tx *gorm.DB, userID string, dev Info) (bool, error) {
	var total int64
	if err := tx.Model(&models.TrustedDevice{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return false, err
	}
	if total == 0 {
		d := &models.TrustedDevice{
			UserID:      userID,
			Fingerprint: dev.Fingerprint,
			UserAgent:   dev.UserAgent,
			ApprovedAt:  time.Now(),
		}
		if err := tx.Create(d).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	var matched int64
	err := tx.Model(&models.TrustedDevice{}).
		Where("user_id = ? AND fingerprint = ?", userID, dev.Fingerprint).
		Count(&matched).Error
	if err != nil {
		return false, err
	}
	return matched > 0, nil
}

// CreatePendingRequest queues the device for admin approval. An existing
// pending row for the same (user, fingerprint) is reused so retried logins
// do not flood the queue.
func CreatePendingRequest(tx *gorm.DB, userID string, dev Info) (*models.DeviceLoginRequest, error) {
	var existing models.DeviceLoginRequest
	err := tx.Where("user_id = ? AND fingerprint = ? AND status = ?",
		userID, dev.Fingerprint, models.DeviceRequestPending).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	req := &models.DeviceLoginRequest{
		UserID:      userID,
		Fingerprint: dev.Fingerprint,
		UserAgent:   dev.UserAgent,
		IP:          dev.IP,
		Status:      models.DeviceRequestPending,
	}
	return req, tx.Create(req).Error
}

// PendingRequest is a queue entry joined with the requesting user's identity.
type PendingRequest struct {
	models.DeviceLoginRequest
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// ListPending returns the approval queue, oldest first.
func ListPending(db *gorm.DB) ([]PendingRequest, error) {
	var rows []PendingRequest
	err := db.Model(&models.DeviceLoginRequest{}).
		Select("device_login_requests.*, users.name AS user_name, users.email AS user_email").
		Joins("JOIN users ON users.id = device_login_requests.user_id").
		Where("device_login_requests.status = ?", models.DeviceRequestPending).
		Order("device_login_requests.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// Approve trusts the requested device and clears the user's active session in
// one transaction, so the first login from the new device is not mistaken for
// a concurrent-login violation. Sibling pending requests for the same
// (user, fingerprint) are resolved together and the trusted-device insert is
// idempotent, which makes double approval harmless.
func Approve(db *gorm.DB, requestID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var req models.DeviceLoginRequest
		if err := tx.Where("id = ? AND status = ?", requestID, models.DeviceRequestPending).
			First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}

		if err := sessionpkg.RevokeAll(tx, req.UserID); err != nil {
			return err
		}

		d := models.TrustedDevice{
			UserID:      req.UserID,
			Fingerprint: req.Fingerprint,
			UserAgent:   req.UserAgent,
			ApprovedAt:  time.Now(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "fingerprint"}},
			DoNothing: true,
		}).Create(&d).Error; err != nil {
			return err
		}

		return tx.Model(&models.DeviceLoginRequest{}).
			Where("user_id = ? AND fingerprint = ? AND status = ?",
				req.UserID, req.Fingerprint, models.DeviceRequestPending).
			Update("status", models.DeviceRequestApproved).Error
	})
}

// Reject marks the request rejected. No session or trust side effects.
func Reject(db *gorm.DB, requestID string) error {
	res := db.Model(&models.DeviceLoginRequest{}).
		Where("id = ? AND status = ?", requestID, models.DeviceRequestPending).
		Update("status", models.DeviceRequestRejected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// ListTrusted returns a user's trusted devices, newest first.
func ListTrusted(db *gorm.DB, userID string) ([]models.TrustedDevice, error) {
	var devices []models.TrustedDevice
	err := db.Where("user_id = ?", userID).Order("approved_at DESC").Find(&devices).Error
	return devices, err
}
