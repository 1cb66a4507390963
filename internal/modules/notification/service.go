package notification

import (
	"errors"
	"time"

	"github.com/puls-academy/backend/internal/models"
	"github.com/puls-academy/backend/internal/pkg/pagination"
	"github.com/puls-academy/backend/internal/pkg/response"
	"gorm.io/gorm"
)

var errNotificationNotFound = errors.New("notification not found")

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Notify creates a notification for the user. Other modules call this with
// their own transaction so the notification commits atomically with the event
// it announces.
func (s *Service) Notify(tx *gorm.DB, userID, message string) error {
	if tx == nil {
		tx = s.db
	}
	n := models.NotificationModel{UserID: userID, Message: message}
	return tx.Create(&n).Error
}

func (s *Service) List(userID string, q pagination.Query) ([]models.NotificationModel, response.Pagination, error) {
	query := s.db.Model(&models.NotificationModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	var rows []models.NotificationModel
	p, err := pagination.Paginate(query, q, &rows)
	return rows, p, err
}

func (s *Service) UnreadCount(userID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *Service) MarkRead(userID, id string) error {
	res := s.db.Model(&models.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotificationNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(userID string) error {
	return s.db.Model(&models.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (s *Service) Delete(userID, id string) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.NotificationModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotificationNotFound
	}
	return nil
}

// PurgeRead hard-deletes read notifications older than the cutoff. Run from
// the scheduler to keep the table from growing without bound.
func (s *Service) PurgeRead(cutoff time.Time) (int64, error) {
	res := s.db.Unscoped().
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.NotificationModel{})
	return res.RowsAffected, res.Error
}
