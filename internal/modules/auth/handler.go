package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/puls-academy/backend/internal/middleware"
	devicepkg "github.com/puls-academy/backend/internal/pkg/device"
	"github.com/puls-academy/backend/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/register", h.register)
	a.POST("/login", h.login)
	a.POST("/refresh", h.refresh)
	a.POST("/logout", authMW, h.logout)

	a.GET("/profile", authMW, h.profile)
	a.PUT("/profile", authMW, h.updateProfile)
	a.POST("/change-password", authMW, h.changePassword)
	a.GET("/devices", authMW, h.listDevices)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	identifier := dto.Identifier
	if identifier == "" {
		identifier = dto.Email
	}
	if strings.TrimSpace(identifier) == "" {
		response.BadRequest(c, "البريد الإلكتروني أو رقم الهاتف مطلوب")
		return
	}

	res, err := h.svc.Login(identifier, dto.Password, deviceInfo(c, dto.DeviceFingerprint))
	if err != nil {
		switch {
		case errors.Is(err, errInvalidCredentials):
			response.UnauthorizedMsg(c, msgInvalidCredentials)
		case errors.Is(err, errAccountSuspended):
			response.ForbiddenMsg(c, msgAccountSuspended)
		case errors.Is(err, errDeviceRequired):
			response.BadRequest(c, "بصمة الجهاز مطلوبة")
		default:
			response.InternalError(c, err)
		}
		return
	}

	if res.Status == LoginPendingApproval {
		response.OK(c, gin.H{
			"status":  LoginPendingApproval,
			"message": res.Message,
		})
		return
	}

	setAuthTokenCookie(c, res.Token)
	response.OKMsg(c, "تم تسجيل الدخول بنجاح", gin.H{
		"status":        LoginSuccess,
		"token":         res.Token,
		"refresh_token": res.RefreshToken,
		"user":          res.User,
	})
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Register(&dto, deviceInfo(c, dto.DeviceFingerprint))
	if err != nil {
		if errors.Is(err, errContactTaken) {
			response.Conflict(c, msgContactTaken)
			return
		}
		response.InternalError(c, err)
		return
	}
	setAuthTokenCookie(c, res.Token)
	response.CreatedMsg(c, "تم إنشاء الحساب بنجاح", gin.H{
		"token":         res.Token,
		"refresh_token": res.RefreshToken,
		"user":          res.User,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var dto RefreshDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "توكن التحديث مطلوب")
		return
	}
	res, err := h.svc.Refresh(dto.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, errAccountSuspended):
			response.ForbiddenMsg(c, msgAccountSuspended)
		case errors.Is(err, errSessionGone), errors.Is(err, errUserNotFound):
			response.UnauthorizedMsg(c, "توكن التحديث غير صالح")
		default:
			response.InternalError(c, err)
		}
		return
	}
	setAuthTokenCookie(c, res.Token)
	response.OK(c, gin.H{"token": res.Token})
}

func (h *Handler) logout(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	sessionID := middleware.CurrentSessionID(c)
	if err := h.svc.Logout(userID, sessionID); err != nil {
		response.InternalError(c, err)
		return
	}
	clearAuthTokenCookie(c)
	response.OKMsg(c, "تم تسجيل الخروج بنجاح", gin.H{"success": true})
}

func (h *Handler) profile(c *gin.Context) {
	u, err := h.svc.Profile(middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, "المستخدم غير موجود.")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(middleware.CurrentUserID(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errNothingToUpdate):
			response.BadRequest(c, "لا توجد بيانات للتحديث")
		case errors.Is(err, errContactTaken):
			response.Conflict(c, msgContactTaken)
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OKMsg(c, "تم تحديث الملف الشخصي بنجاح", u)
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ChangePassword(middleware.CurrentUserID(c), &dto); err != nil {
		switch {
		case errors.Is(err, errWrongPassword):
			response.BadRequest(c, "كلمة المرور الحالية غير صحيحة")
		case errors.Is(err, errUserNotFound):
			response.NotFoundMsg(c, "المستخدم غير موجود.")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OKMsg(c, "تم تغيير كلمة المرور بنجاح", gin.H{"success": true})
}

func (h *Handler) listDevices(c *gin.Context) {
	devices, err := h.svc.TrustedDevices(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, devices)
}

// deviceInfo assembles the device identity of the request. The fingerprint
// may arrive in the JSON body or in the X-Device-Fingerprint header.
func deviceInfo(c *gin.Context, bodyFingerprint string) devicepkg.Info {
	fp := strings.TrimSpace(bodyFingerprint)
	if fp == "" {
		fp = strings.TrimSpace(c.GetHeader("X-Device-Fingerprint"))
	}
	return devicepkg.Info{
		Fingerprint: fp,
		UserAgent:   c.Request.UserAgent(),
		IP:          c.ClientIP(),
	}
}

func setAuthTokenCookie(c *gin.Context, token string) {
	const maxAge = 7 * 24 * 60 * 60
	secure := c.Request.TLS != nil
	c.SetCookie(middleware.AuthCookieName, token, maxAge, "/", "", secure, true)
}

func clearAuthTokenCookie(c *gin.Context) {
	secure := c.Request.TLS != nil
	c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", secure, true)
}
