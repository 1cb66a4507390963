package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puls-academy/backend/internal/models"
	jwtpkg "github.com/puls-academy/backend/internal/pkg/jwt"
	"gorm.io/gorm"
)

// Issued bundles everything a successful session creation yields.
type Issued struct {
	Session      *models.ActiveSession
	Token        string
	RefreshToken string
}

// Issue replaces any existing session for the user with a fresh one bound to
// the given fingerprint, then signs access and refresh tokens embedding the
// session token. The delete-then-insert runs in one transaction so two racing
// logins cannot both keep a session; the unique index on user_id backs it up.
func Issue(db *gorm.DB, u *models.UserModel, fingerprint string) (*Issued, error) {
	s := &models.ActiveSession{
		UserID:      u.ID,
		Token:       uuid.New().String(),
		Fingerprint: strings.TrimSpace(fingerprint),
		LastSeen:    time.Now(),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", u.ID).Delete(&models.ActiveSession{}).Error; err != nil {
			return err
		}
		return tx.Create(s).Error
	})
	if err != nil {
		return nil, err
	}

	token, err := jwtpkg.Sign(u, s.Token, jwtpkg.DefaultTTL)
	if err != nil {
		_ = db.Unscoped().Delete(s).Error
		return nil, err
	}
	refresh, err := jwtpkg.SignRefresh(u, s.Token)
	if err != nil {
		_ = db.Unscoped().Delete(s).Error
		return nil, err
	}
	return &Issued{Session: s, Token: token, RefreshToken: refresh}, nil
}

// Current returns the user's active session, or nil when none exists.
func Current(db *gorm.DB, userID string) (*models.ActiveSession, error) {
	var s models.ActiveSession
	if err := db.Where("user_id = ?", userID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Matches reports whether the given session token is the user's live session.
func Matches(db *gorm.DB, userID, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	var count int64
	err := db.Model(&models.ActiveSession{}).
		Where("user_id = ? AND token = ?", userID, token).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Touch refreshes the session's last-seen timestamp (best-effort).
func Touch(db *gorm.DB, userID, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	_ = db.Model(&models.ActiveSession{}).
		Where("user_id = ? AND token = ?", userID, token).
		Update("last_seen", time.Now()).Error
}

// Revoke deletes the session identified by its token.
func Revoke(db *gorm.DB, userID, token string) error {
	res := db.Unscoped().
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.ActiveSession{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RevokeAll deletes every session the user holds. Used by suspension and
// device approval, where lockout must be immediate.
func RevokeAll(db *gorm.DB, userID string) error {
	return db.Unscoped().Where("user_id = ?", userID).Delete(&models.ActiveSession{}).Error
}

// PurgeIdle removes sessions whose last-seen is older than the cutoff.
func PurgeIdle(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Unscoped().Where("last_seen < ?", cutoff).Delete(&models.ActiveSession{})
	return res.RowsAffected, res.Error
}
