package admin

import (
	"errors"

	"github.com/gin-gonic/gin"
	devicepkg "github.com/puls-academy/backend/internal/pkg/device"
	"github.com/puls-academy/backend/internal/pkg/pagination"
	"github.com/puls-academy/backend/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the admin surface. Every route requires an
// authenticated admin; adminMW already includes the session guard.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	a := rg.Group("/admin", adminMW...)

	a.GET("/dashboard", h.dashboard)

	a.GET("/students", h.listStudents)
	a.GET("/students/:id", h.getStudent)
	a.PUT("/students/:id", h.updateStudent)
	a.PUT("/students/:id/status", h.updateStatus)
	a.DELETE("/students/:id", h.deleteStudent)
	a.GET("/students/:id/violations", h.studentViolations)
	a.DELETE("/students/:id/devices/:deviceId", h.removeTrustedDevice)

	a.GET("/device-requests", h.deviceQueue)
	a.POST("/device-requests/:id/approve", h.approveDevice)
	a.POST("/device-requests/:id/reject", h.rejectDevice)

	a.GET("/violators", h.violators)
}

func (h *Handler) dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, stats)
}

func (h *Handler) listStudents(c *gin.Context) {
	students, p, err := h.svc.ListStudents(pagination.FromContext(c), c.Query("search"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, students, p)
}

func (h *Handler) getStudent(c *gin.Context) {
	detail, err := h.svc.GetStudent(c.Param("id"))
	if err != nil {
		if errors.Is(err, errStudentNotFound) {
			response.NotFoundMsg(c, "الطالب غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) updateStudent(c *gin.Context) {
	var dto UpdateStudentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateStudent(c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, errStudentNotFound) {
			response.NotFoundMsg(c, "الطالب غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تم تحديث بيانات الطالب بنجاح", u)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var dto UpdateStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.UpdateStatus(c.Param("id"), dto.Status); err != nil {
		switch {
		case errors.Is(err, errStudentNotFound):
			response.NotFoundMsg(c, "الطالب غير موجود")
		case errors.Is(err, errNotAStudent):
			response.BadRequest(c, "لا يمكن تغيير حالة هذا الحساب")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OKMsg(c, "تم تحديث حالة الطالب بنجاح", gin.H{"success": true})
}

func (h *Handler) deleteStudent(c *gin.Context) {
	if err := h.svc.DeleteStudent(c.Param("id")); err != nil {
		switch {
		case errors.Is(err, errStudentNotFound):
			response.NotFoundMsg(c, "الطالب غير موجود")
		case errors.Is(err, errNotAStudent):
			response.BadRequest(c, "لا يمكن حذف هذا الحساب")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OKMsg(c, "تم حذف الطالب بنجاح", gin.H{"success": true})
}

func (h *Handler) studentViolations(c *gin.Context) {
	rows, err := h.svc.StudentViolations(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, rows)
}

func (h *Handler) removeTrustedDevice(c *gin.Context) {
	err := h.svc.RemoveTrustedDevice(c.Param("id"), c.Param("deviceId"))
	if err != nil {
		if errors.Is(err, devicepkg.ErrRequestNotFound) {
			response.NotFoundMsg(c, "الجهاز غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تم إزالة الجهاز من الأجهزة الموثوقة", gin.H{"success": true})
}

func (h *Handler) deviceQueue(c *gin.Context) {
	entries, err := h.svc.DeviceQueue()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) approveDevice(c *gin.Context) {
	if err := h.svc.ApproveDevice(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, devicepkg.ErrRequestNotFound) {
			response.NotFoundMsg(c, "طلب الجهاز غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تمت الموافقة على الجهاز بنجاح وتم إنهاء أي جلسات أخرى نشطة.", gin.H{"success": true})
}

func (h *Handler) rejectDevice(c *gin.Context) {
	if err := h.svc.RejectDevice(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, devicepkg.ErrRequestNotFound) {
			response.NotFoundMsg(c, "طلب الجهاز غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تم رفض الطلب بنجاح.", gin.H{"success": true})
}

func (h *Handler) violators(c *gin.Context) {
	rows, err := h.svc.ListViolators()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, rows)
}
