package violation

import (
	"time"

	"github.com/puls-academy/backend/internal/models"
	"gorm.io/gorm"
)

// DedupWindow suppresses duplicate violations for the same (user, type)
// caused by near-simultaneous racing requests, e.g. a double-submitted login.
const DedupWindow = 10 * time.Second

// Record appends a violation and increments the user's denormalized counter
// in one transaction. A violation of the same type recorded within the dedup
// window is treated as the same real-world event and skipped. Returns the
// user's violation count after the call.
//
// The transaction is retried once; persistent failure is surfaced to the
// caller, who must not let it block the login outcome.
func Record(db *gorm.DB, userID, vtype string, details models.ViolationDetails) (int, error) {
	count, err := record(db, userID, vtype, details)
	if err != nil {
		count, err = record(db, userID, vtype, details)
	}
	return count, err
}

func record(db *gorm.DB, userID, vtype string, details models.ViolationDetails) (int, error) {
	var newCount int
	err := db.Transaction(func(tx *gorm.DB) error {
		var recent int64
		err := tx.Model(&models.ViolationModel{}).
			Where("user_id = ? AND type = ? AND created_at > ?", userID, vtype, time.Now().Add(-DedupWindow)).
			Count(&recent).Error
		if err != nil {
			return err
		}
		if recent > 0 {
			return tx.Model(&models.UserModel{}).
				Select("violation_count").
				Where("id = ?", userID).
				Scan(&newCount).Error
		}

		v := models.ViolationModel{UserID: userID, Type: vtype, Details: details}
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserModel{}).
			Where("id = ?", userID).
			Update("violation_count", gorm.Expr("violation_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserModel{}).
			Select("violation_count").
			Where("id = ?", userID).
			Scan(&newCount).Error
	})
	return newCount, err
}

// ListByUser returns a user's violations, newest first.
func ListByUser(db *gorm.DB, userID string) ([]models.ViolationModel, error) {
	var rows []models.ViolationModel
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}
