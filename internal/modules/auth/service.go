package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/puls-academy/backend/internal/models"
	devicepkg "github.com/puls-academy/backend/internal/pkg/device"
	jwtpkg "github.com/puls-academy/backend/internal/pkg/jwt"
	sessionpkg "github.com/puls-academy/backend/internal/pkg/session"
	violationpkg "github.com/puls-academy/backend/internal/pkg/violation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Login authenticates a student or admin. Non-admin logins additionally pass
// the device-trust check and the single-session check; both can change the
// outcome without being a credential failure, so they are reported through
// LoginResult rather than through error.
func (s *Service) Login(identifier, password string, dev devicepkg.Info) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	u, err := s.findByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			time.Sleep(3 * time.Second)
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		time.Sleep(3 * time.Second)
		return nil, errInvalidCredentials
	}
	if u.IsSuspended() {
		return nil, errAccountSuspended
	}

	if u.IsAdmin() {
		issued, err := sessionpkg.Issue(s.db, u, dev.Fingerprint)
		if err != nil {
			return nil, err
		}
		s.stampLastLogin(u, dev.IP)
		return &LoginResult{
			Status:       LoginSuccess,
			User:         u,
			Token:        issued.Token,
			RefreshToken: issued.RefreshToken,
		}, nil
	}

	if dev.Fingerprint == "" {
		return nil, errDeviceRequired
	}

	// Trust check, concurrency check and session replacement share one
	// transaction: a login that ends up pending must not leave a half-created
	// session, and two racing logins must serialize on the session row.
	var (
		result   LoginResult
		conflict *models.ActiveSession
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		approved, err := devicepkg.IsApproved(tx, u.ID, dev)
		if err != nil {
			return err
		}
		if !approved {
			if _, err := devicepkg.CreatePendingRequest(tx, u.ID, dev); err != nil {
				return err
			}
			result = LoginResult{Status: LoginPendingApproval, User: u, Message: msgPendingApproval}
			return nil
		}

		current, err := sessionpkg.Current(tx, u.ID)
		if err != nil {
			return err
		}
		if current != nil && current.Fingerprint != dev.Fingerprint {
			conflict = current
		}

		issued, err := sessionpkg.Issue(tx, u, dev.Fingerprint)
		if err != nil {
			return err
		}
		result = LoginResult{
			Status:       LoginSuccess,
			User:         u,
			Token:        issued.Token,
			RefreshToken: issued.RefreshToken,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Violation recording happens after the session transaction committed so
	// a recording failure can never undo or block a finished login.
	if conflict != nil {
		_, rerr := violationpkg.Record(s.db, u.ID, models.ViolationConcurrentLogin, models.ViolationDetails{
			Message:        "تسجيل دخول متزامن من جهاز مختلف",
			NewFingerprint: dev.Fingerprint,
			NewUserAgent:   dev.UserAgent,
			NewIP:          dev.IP,
			OldFingerprint: conflict.Fingerprint,
		})
		if rerr != nil {
			zap.L().Warn("violation recording failed",
				zap.String("user_id", u.ID), zap.Error(rerr))
		}
	}

	if result.Status == LoginSuccess {
		s.stampLastLogin(u, dev.IP)
	}
	return &result, nil
}

// Register creates a student account. The registering device becomes the
// account's first trusted device and a session is issued right away, which is
// exactly what a first login would have done.
func (s *Service) Register(dto *RegisterDTO, dev devicepkg.Info) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &models.UserModel{
		Name:         strings.TrimSpace(dto.Name),
		Email:        email,
		Phone:        normalizePhone(dto.Phone),
		Password:     string(hash),
		Role:         models.RoleStudent,
		Status:       models.StatusActive,
		College:      dto.College,
		Gender:       dto.Gender,
		PharmacyType: dto.PharmacyType,
	}

	var issued *sessionpkg.Issued
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		q := tx.Model(&models.UserModel{}).Where("email = ?", email)
		if u.Phone != nil {
			q = q.Or("phone = ?", *u.Phone)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errContactTaken
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		if _, err := devicepkg.IsApproved(tx, u.ID, dev); err != nil {
			return err
		}
		issued, err = sessionpkg.Issue(tx, u, dev.Fingerprint)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.stampLastLogin(u, dev.IP)
	return &LoginResult{
		Status:       LoginSuccess,
		User:         u,
		Token:        issued.Token,
		RefreshToken: issued.RefreshToken,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// embedded session must still be the user's live one, otherwise the refresh
// token died with the session it belonged to.
func (s *Service) Refresh(refreshToken string) (*LoginResult, error) {
	claims, err := jwtpkg.Parse(refreshToken)
	if err != nil || !claims.Refresh {
		return nil, errSessionGone
	}

	var u models.UserModel
	if err := s.db.Where("id = ?", claims.UserID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	if u.IsSuspended() {
		return nil, errAccountSuspended
	}

	if !u.IsAdmin() {
		ok, err := sessionpkg.Matches(s.db, u.ID, claims.SessionID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errSessionGone
		}
	}

	token, err := jwtpkg.Sign(&u, claims.SessionID, jwtpkg.DefaultTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Status: LoginSuccess, User: &u, Token: token}, nil
}

func (s *Service) Logout(userID, sessionToken string) error {
	err := sessionpkg.Revoke(s.db, userID, sessionToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func (s *Service) Profile(userID string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) UpdateProfile(userID string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	updates := map[string]any{}
	if v := strings.TrimSpace(dto.Name); v != "" {
		updates["name"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(dto.Email)); v != "" {
		updates["email"] = v
	}
	if p := normalizePhone(dto.Phone); p != nil {
		updates["phone"] = *p
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
	if len(updates) == 0 {
		return nil, errNothingToUpdate
	}

	if err := s.db.Model(&models.UserModel{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errContactTaken
		}
		return nil, err
	}
	return s.Profile(userID)
}

func (s *Service) ChangePassword(userID string, dto *ChangePasswordDTO) error {
	var u models.UserModel
	if err := s.db.Select("id, password").Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.CurrentPassword)); err != nil {
		return errWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.db.Model(&models.UserModel{}).Where("id = ?", userID).
		Update("password", string(hash)).Error
}

func (s *Service) TrustedDevices(userID string) ([]models.TrustedDevice, error) {
	return devicepkg.ListTrusted(s.db, userID)
}

// findByIdentifier treats anything containing '@' as an email and everything
// else as a phone number.
func (s *Service) findByIdentifier(identifier string) (*models.UserModel, error) {
	var u models.UserModel
	q := s.db.Model(&models.UserModel{})
	if strings.Contains(identifier, "@") {
		q = q.Where("email = ?", strings.ToLower(identifier))
	} else {
		q = q.Where("phone = ?", identifier)
	}
	if err := q.First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) stampLastLogin(u *models.UserModel, ip string) {
	now := time.Now()
	_ = s.db.Model(u).Updates(map[string]any{
		"last_login_time": now,
		"last_login_ip":   ip,
	}).Error
	u.LastLoginTime = &now
	u.LastLoginIP = ip
}

func normalizePhone(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
