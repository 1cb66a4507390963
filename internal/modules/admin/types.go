package admin

import (
	"errors"

	"github.com/puls-academy/backend/internal/models"
)

type UpdateStudentDTO struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone"`
	College      string  `json:"college"`
	Gender       string  `json:"gender"`
	PharmacyType string  `json:"pharmacy_type"`
}

type UpdateStatusDTO struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

// DashboardStats is the admin landing-page summary. Cached in Redis because
// it aggregates over every large table at once.
type DashboardStats struct {
	TotalStudents    int64   `json:"total_students"`
	TotalCourses     int64   `json:"total_courses"`
	PendingPayments  int64   `json:"pending_payments"`
	ApprovedPayments int64   `json:"approved_payments"`
	Revenue          float64 `json:"revenue"`
	PendingDevices   int64   `json:"pending_devices"`
	Violators        int64   `json:"violators"`
}

// DeviceQueueEntry decorates a pending request with a readable device label.
type DeviceQueueEntry struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
	Fingerprint string `json:"fingerprint"`
	Device      string `json:"device"`
	IP          string `json:"ip"`
	RequestedAt string `json:"requested_at"`
}

// ViolatorEntry is a row of the repeat-offender report.
type ViolatorEntry struct {
	models.UserModel
	LastViolationAt *string `json:"last_violation_at"`
}

var (
	errStudentNotFound = errors.New("admin student not found")
	errNotAStudent     = errors.New("admin target is not a student")
)

// violatorThreshold is the repeat-offender cutoff for the violators report.
const violatorThreshold = 2
