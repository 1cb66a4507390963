package payment

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/puls-academy/backend/internal/middleware"
	"github.com/puls-academy/backend/internal/pkg/pagination"
	"github.com/puls-academy/backend/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	p := rg.Group("/payments", authMW)

	p.POST("", h.create)
	p.GET("/mine", h.listMine)

	p.GET("", adminMW, h.list)
	p.GET("/stats", adminMW, h.stats)
	p.POST("/:id/approve", adminMW, h.approve)
	p.POST("/:id/reject", adminMW, h.reject)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreatePaymentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errCourseNotFound):
			response.NotFoundMsg(c, "الكورس غير موجود")
		case errors.Is(err, errAlreadyEnrolled):
			response.Conflict(c, "أنت مشترك بالفعل في هذا الكورس")
		case errors.Is(err, errAlreadyPending):
			response.Conflict(c, "لديك طلب دفع قيد المراجعة لهذا الكورس")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.CreatedMsg(c, "تم إرسال طلب الدفع بنجاح", p)
}

func (h *Handler) listMine(c *gin.Context) {
	rows, p, err := h.svc.ListMine(middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, rows, p)
}

func (h *Handler) list(c *gin.Context) {
	rows, p, err := h.svc.List(pagination.FromContext(c), c.Query("status"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, rows, p)
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.svc.Stats()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, st)
}

func (h *Handler) approve(c *gin.Context) {
	if err := h.svc.Approve(c.Param("id")); err != nil {
		h.writeReviewError(c, err)
		return
	}
	response.OKMsg(c, "تم اعتماد الدفع بنجاح", gin.H{"success": true})
}

func (h *Handler) reject(c *gin.Context) {
	if err := h.svc.Reject(c.Param("id")); err != nil {
		h.writeReviewError(c, err)
		return
	}
	response.OKMsg(c, "تم رفض الدفع", gin.H{"success": true})
}

func (h *Handler) writeReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errPaymentNotFound):
		response.NotFoundMsg(c, "طلب الدفع غير موجود")
	case errors.Is(err, errPaymentResolved):
		response.Conflict(c, "تمت مراجعة طلب الدفع بالفعل")
	case errors.Is(err, errCourseNotFound):
		response.NotFoundMsg(c, "الكورس غير موجود")
	default:
		response.InternalError(c, err)
	}
}
