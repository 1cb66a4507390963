package notification

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/puls-academy/backend/internal/middleware"
	"github.com/puls-academy/backend/internal/pkg/pagination"
	"github.com/puls-academy/backend/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	n := rg.Group("/notifications", authMW)

	n.GET("", h.list)
	n.GET("/unread-count", h.unreadCount)
	n.PUT("/:id/read", h.markRead)
	n.PUT("/read-all", h.markAllRead)
	n.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	rows, p, err := h.svc.List(middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, rows, p)
}

func (h *Handler) unreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"count": count})
}

func (h *Handler) markRead(c *gin.Context) {
	if err := h.svc.MarkRead(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		if errors.Is(err, errNotificationNotFound) {
			response.NotFoundMsg(c, "الإشعار غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"success": true})
}

func (h *Handler) markAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(middleware.CurrentUserID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"success": true})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		if errors.Is(err, errNotificationNotFound) {
			response.NotFoundMsg(c, "الإشعار غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"success": true})
}
