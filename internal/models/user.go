package models

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"

	StatusActive    = "active"
	StatusSuspended = "suspended"

	CollegePharmacy  = "pharmacy"
	CollegeDentistry = "dentistry"

	GenderMale   = "male"
	GenderFemale = "female"
)

// UserModel represents a platform account (student or admin).
type UserModel struct {
	Base
	Name           string     `json:"name"            gorm:"not null"`
	Email          string     `json:"email"           gorm:"uniqueIndex;not null"`
	Phone          *string    `json:"phone"           gorm:"uniqueIndex"`
	Password       string     `json:"-"               gorm:"not null"`
	Role           string     `json:"role"            gorm:"default:student;not null"`
	Status         string     `json:"status"          gorm:"default:active;not null"`
	ViolationCount int        `json:"violation_count" gorm:"default:0;not null"`
	College        string     `json:"college"         gorm:"not null"`
	Gender         string     `json:"gender"          gorm:"not null"`
	PharmacyType   string     `json:"pharmacy_type"`
	LastLoginTime  *time.Time `json:"last_login_time"`
	LastLoginIP    string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }

func (u *UserModel) IsAdmin() bool     { return u.Role == RoleAdmin }
func (u *UserModel) IsSuspended() bool { return u.Status == StatusSuspended }
