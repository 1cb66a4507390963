package models

const ViolationConcurrentLogin = "concurrent_login"

// ViolationDetails carries the structured evidence attached to a violation.
type ViolationDetails struct {
	Message        string `json:"message"`
	NewFingerprint string `json:"new_fingerprint,omitempty"`
	NewUserAgent   string `json:"new_user_agent,omitempty"`
	NewIP          string `json:"new_ip,omitempty"`
	OldFingerprint string `json:"old_fingerprint,omitempty"`
}

// ViolationModel is an append-only record of suspected credential sharing.
type ViolationModel struct {
	Base
	UserID  string           `json:"user_id" gorm:"index;not null"`
	Type    string           `json:"type"    gorm:"index;not null"`
	Details ViolationDetails `json:"details" gorm:"type:text;serializer:json"`
}

func (ViolationModel) TableName() string { return "violations" }
