package admin

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mileusna/useragent"
	"github.com/puls-academy/backend/internal/models"
	devicepkg "github.com/puls-academy/backend/internal/pkg/device"
	"github.com/puls-academy/backend/internal/pkg/pagination"
	redispkg "github.com/puls-academy/backend/internal/pkg/redis"
	"github.com/puls-academy/backend/internal/pkg/response"
	sessionpkg "github.com/puls-academy/backend/internal/pkg/session"
	violationpkg "github.com/puls-academy/backend/internal/pkg/violation"
	"gorm.io/gorm"
)

const (
	dashboardCacheKey = "puls:admin:dashboard"
	dashboardCacheTTL = time.Minute
)

type Service struct {
	db    *gorm.DB
	cache *redispkg.Client
}

func NewService(db *gorm.DB, cache *redispkg.Client) *Service {
	return &Service{db: db, cache: cache}
}

func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, dashboardCacheKey); err == nil && raw != "" {
			var stats DashboardStats
			if json.Unmarshal([]byte(raw), &stats) == nil {
				return &stats, nil
			}
		}
	}

	var stats DashboardStats
	if err := s.db.Model(&models.UserModel{}).Where("role = ?", models.RoleStudent).
		Count(&stats.TotalStudents).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.CourseModel{}).Count(&stats.TotalCourses).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.PaymentModel{}).Where("status = ?", models.PaymentPending).
		Count(&stats.PendingPayments).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.PaymentModel{}).Where("status = ?", models.PaymentApproved).
		Count(&stats.ApprovedPayments).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.PaymentModel{}).Where("status = ?", models.PaymentApproved).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.Revenue).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.DeviceLoginRequest{}).Where("status = ?", models.DeviceRequestPending).
		Count(&stats.PendingDevices).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.UserModel{}).Where("violation_count >= ?", violatorThreshold).
		Count(&stats.Violators).Error; err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(&stats); err == nil {
			_ = s.cache.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL)
		}
	}
	return &stats, nil
}

func (s *Service) ListStudents(q pagination.Query, search string) ([]models.UserModel, response.Pagination, error) {
	query := s.db.Model(&models.UserModel{}).Where("role = ?", models.RoleStudent)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	query = query.Order("created_at DESC")

	var students []models.UserModel
	p, err := pagination.Paginate(query, q, &students)
	return students, p, err
}

// StudentDetail bundles everything the admin's student page shows.
type StudentDetail struct {
	User       models.UserModel        `json:"user"`
	Devices    []models.TrustedDevice  `json:"devices"`
	Violations []models.ViolationModel `json:"violations"`
}

func (s *Service) GetStudent(id string) (*StudentDetail, error) {
	var u models.UserModel
	if err := s.db.Where("id = ? AND role = ?", id, models.RoleStudent).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errStudentNotFound
		}
		return nil, err
	}
	devices, err := devicepkg.ListTrusted(s.db, id)
	if err != nil {
		return nil, err
	}
	violations, err := violationpkg.ListByUser(s.db, id)
	if err != nil {
		return nil, err
	}
	return &StudentDetail{User: u, Devices: devices, Violations: violations}, nil
}

func (s *Service) UpdateStudent(id string, dto *UpdateStudentDTO) (*models.UserModel, error) {
	updates := map[string]any{}
	if v := strings.TrimSpace(dto.Name); v != "" {
		updates["name"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(dto.Email)); v != "" {
		updates["email"] = v
	}
	if dto.Phone != nil {
		updates["phone"] = strings.TrimSpace(*dto.Phone)
	}
	if dto.College != "" {
		updates["college"] = dto.College
	}
	if dto.Gender != "" {
		updates["gender"] = dto.Gender
	}
	if dto.PharmacyType != "" {
		updates["pharmacy_type"] = dto.PharmacyType
	}

	res := s.db.Model(&models.UserModel{}).
		Where("id = ? AND role = ?", id, models.RoleStudent).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errStudentNotFound
	}

	var u models.UserModel
	return &u, s.db.Where("id = ?", id).First(&u).Error
}

// UpdateStatus suspends or reactivates a student. Suspension revokes every
// live session in the same transaction, so the lockout takes effect on the
// student's very next request. Reactivation starts the violation counter over.
func (s *Service) UpdateStatus(id, status string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var u models.UserModel
		if err := tx.Select("id, role").Where("id = ?", id).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errStudentNotFound
			}
			return err
		}
		if u.Role != models.RoleStudent {
			return errNotAStudent
		}

		updates := map[string]any{"status": status}
		if status == models.StatusActive {
			updates["violation_count"] = 0
		}
		if err := tx.Model(&models.UserModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		if status == models.StatusSuspended {
			return sessionpkg.RevokeAll(tx, id)
		}
		return nil
	})
}

// DeleteStudent removes the account and every row keyed to it. Sessions,
// device rows and violations go with it; payments and enrollments stay for
// the financial record.
func (s *Service) DeleteStudent(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var u models.UserModel
		if err := tx.Select("id, role").Where("id = ?", id).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errStudentNotFound
			}
			return err
		}
		if u.Role != models.RoleStudent {
			return errNotAStudent
		}

		if err := sessionpkg.RevokeAll(tx, id); err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&models.TrustedDevice{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&models.DeviceLoginRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&models.ViolationModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.UserModel{}, "id = ?", id).Error
	})
}

func (s *Service) DeviceQueue() ([]DeviceQueueEntry, error) {
	pending, err := devicepkg.ListPending(s.db)
	if err != nil {
		return nil, err
	}
	entries := make([]DeviceQueueEntry, len(pending))
	for i, req := range pending {
		entries[i] = DeviceQueueEntry{
			ID:          req.ID,
			UserID:      req.UserID,
			UserName:    req.UserName,
			UserEmail:   req.UserEmail,
			Fingerprint: req.Fingerprint,
			Device:      describeDevice(req.UserAgent),
			IP:          req.IP,
			RequestedAt: req.CreatedAt.Format(time.RFC3339),
		}
	}
	return entries, nil
}

func (s *Service) ApproveDevice(ctx context.Context, requestID string) error {
	if err := devicepkg.Approve(s.db, requestID); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *Service) RejectDevice(ctx context.Context, requestID string) error {
	if err := devicepkg.Reject(s.db, requestID); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *Service) RemoveTrustedDevice(userID, deviceID string) error {
	res := s.db.Unscoped().
		Where("id = ? AND user_id = ?", deviceID, userID).
		Delete(&models.TrustedDevice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return devicepkg.ErrRequestNotFound
	}
	return nil
}

func (s *Service) ListViolators() ([]ViolatorEntry, error) {
	var rows []ViolatorEntry
	err := s.db.Model(&models.UserModel{}).
		Select("users.*, MAX(violations.created_at) AS last_violation_at").
		Joins("LEFT JOIN violations ON violations.user_id = users.id").
		Where("users.violation_count >= ?", violatorThreshold).
		Group("users.id").
		Order("users.violation_count DESC").
		Scan(&rows).Error
	return rows, err
}

func (s *Service) StudentViolations(id string) ([]models.ViolationModel, error) {
	return violationpkg.ListByUser(s.db, id)
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, dashboardCacheKey)
	}
}

// describeDevice turns a raw user-agent string into something an admin can
// recognize at a glance, e.g. "Chrome 126 / Windows".
func describeDevice(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "جهاز غير معروف"
	}
	parsed := useragent.Parse(ua)
	name := parsed.Name
	if name == "" {
		return ua
	}
	label := name
	if parsed.Version != "" {
		label += " " + strings.SplitN(parsed.Version, ".", 2)[0]
	}
	if parsed.OS != "" {
		label += " / " + parsed.OS
	}
	return label
}
