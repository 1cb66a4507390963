package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/puls-academy/backend/internal/models"
	"github.com/puls-academy/backend/internal/pkg/jwt"
	"github.com/puls-academy/backend/internal/pkg/response"
	sessionpkg "github.com/puls-academy/backend/internal/pkg/session"
	"gorm.io/gorm"
)

const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "user_id"
	ContextKeySID    = "session_id"

	// AuthCookieName is the httpOnly cookie carrying the access token.
	AuthCookieName = "token"
)

// Auth returns the session guard middleware. Per request it checks token
// presence, signature and expiry, user existence, suspension, and then the
// server-side session row. Admins skip the session check entirely.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			response.Unauthorized(c)
			return
		}

		claims, err := jwt.Parse(token)
		if err != nil {
			if errors.Is(err, jwt.ErrExpired) {
				response.UnauthorizedMsg(c, "انتهت صلاحية الجلسة، يرجى تسجيل الدخول مرة أخرى.")
				return
			}
			response.BadRequest(c, "التوكن غير صالح.")
			return
		}
		if claims.Refresh {
			response.BadRequest(c, "التوكن غير صالح.")
			return
		}

		var u models.UserModel
		if err := db.Where("id = ?", claims.UserID).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.UnauthorizedMsg(c, "المستخدم غير موجود.")
				return
			}
			response.InternalError(c, err)
			return
		}
		if u.IsSuspended() {
			response.ForbiddenMsg(c, "تم إيقاف حسابك. يرجى التواصل مع الدعم.")
			return
		}

		if !u.IsAdmin() {
			matched, err := sessionpkg.Matches(db, u.ID, claims.SessionID)
			if err != nil {
				response.InternalError(c, err)
				return
			}
			if !matched {
				response.UnauthorizedMsg(c, "تم تسجيل الدخول من جهاز آخر. يرجى تسجيل الدخول مرة أخرى.")
				return
			}
			sessionpkg.Touch(db, u.ID, claims.SessionID)
		}

		c.Set(ContextKeyUser, &u)
		c.Set(ContextKeyUserID, u.ID)
		c.Set(ContextKeySID, claims.SessionID)
		c.Next()
	}
}

// AdminOnly gates a route group to admin users. Must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil || !u.IsAdmin() {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// CurrentUser extracts the authenticated user from context.
func CurrentUser(c *gin.Context) *models.UserModel {
	v, _ := c.Get(ContextKeyUser)
	u, _ := v.(*models.UserModel)
	return u
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentSessionID extracts the authenticated session token from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// ExtractToken reads the access token from the auth cookie, falling back to
// the Authorization header for non-browser clients.
func ExtractToken(c *gin.Context) string {
	if raw, err := c.Cookie(AuthCookieName); err == nil {
		if token := NormalizeToken(raw); token != "" {
			return token
		}
	}
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
