package message

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/puls-academy/backend/internal/middleware"
	"github.com/puls-academy/backend/internal/pkg/response"
)

type sendDTO struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content" binding:"required"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	m := rg.Group("/messages", authMW)

	m.POST("", h.send)
	m.GET("", h.inbox)
	m.GET("/unread-count", h.unreadCount)
	m.GET("/with/:peerId", h.conversation)
	m.DELETE("/with/:peerId", h.deleteConversation)
}

func (h *Handler) send(c *gin.Context) {
	var dto sendDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sender := middleware.CurrentUser(c)

	// Students may omit the receiver; the admin is the only one they can
	// write to anyway.
	receiverID := dto.ReceiverID
	if receiverID == "" && !sender.IsAdmin() {
		adminID, err := h.svc.AdminID()
		if err != nil {
			response.InternalError(c, err)
			return
		}
		receiverID = adminID
	}
	if receiverID == "" {
		response.BadRequest(c, "المستلم مطلوب")
		return
	}

	m, err := h.svc.Send(sender, receiverID, dto.Content)
	if err != nil {
		switch {
		case errors.Is(err, errStudentsMessageAdminOnly):
			response.ForbiddenMsg(c, "يمكن للطلاب مراسلة الأدمن فقط.")
		case errors.Is(err, errRecipientNotFound):
			response.NotFoundMsg(c, "المستلم غير موجود")
		case errors.Is(err, errEmptyContent):
			response.BadRequest(c, "لا يمكن إرسال رسالة فارغة")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, m)
}

func (h *Handler) inbox(c *gin.Context) {
	rows, err := h.svc.Inbox(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, rows)
}

func (h *Handler) unreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"count": count})
}

func (h *Handler) conversation(c *gin.Context) {
	msgs, err := h.svc.Conversation(middleware.CurrentUserID(c), c.Param("peerId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, msgs)
}

func (h *Handler) deleteConversation(c *gin.Context) {
	if err := h.svc.DeleteConversation(middleware.CurrentUserID(c), c.Param("peerId")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تم حذف المحادثة", nil)
}
