package models

import "time"

const (
	DeviceRequestPending  = "pending"
	DeviceRequestApproved = "approved"
	DeviceRequestRejected = "rejected"
)

// TrustedDevice is a (user, fingerprint) pair allowed to open sessions.
type TrustedDevice struct {
	Base
	UserID      string    `json:"user_id"     gorm:"uniqueIndex:idx_user_fingerprint;not null"`
	Fingerprint string    `json:"fingerprint" gorm:"uniqueIndex:idx_user_fingerprint;not null"`
	UserAgent   string    `json:"user_agent"  gorm:"type:text"`
	ApprovedAt  time.Time `json:"approved_at"`
}

func (TrustedDevice) TableName() string { return "trusted_devices" }

// DeviceLoginRequest is a login attempt from an unrecognized device,
// waiting in the admin approval queue.
type DeviceLoginRequest struct {
	Base
	UserID      string `json:"user_id"     gorm:"index;not null"`
	Fingerprint string `json:"fingerprint" gorm:"index;not null"`
	UserAgent   string `json:"user_agent"  gorm:"type:text"`
	IP          string `json:"ip"`
	Status      string `json:"status"      gorm:"default:pending;not null"`
}

func (DeviceLoginRequest) TableName() string { return "device_login_requests" }
