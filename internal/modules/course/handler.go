package course

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/puls-academy/backend/internal/middleware"
	"github.com/puls-academy/backend/internal/pkg/pagination"
	"github.com/puls-academy/backend/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	co := rg.Group("/courses")

	co.GET("", authMW, h.list)
	co.GET("/top-selling", h.topSelling)
	co.GET("/enrolled", authMW, h.enrolled)
	co.GET("/:id", authMW, h.get)
	co.GET("/:id/lessons/:lessonId", authMW, h.lesson)

	co.POST("", authMW, adminMW, h.create)
	co.PUT("/:id", authMW, adminMW, h.update)
	co.DELETE("/:id", authMW, adminMW, h.delete)
	co.POST("/:id/lessons", authMW, adminMW, h.addLesson)
	co.PUT("/:id/lessons/:lessonId", authMW, adminMW, h.updateLesson)
	co.DELETE("/:id/lessons/:lessonId", authMW, adminMW, h.deleteLesson)
}

func (h *Handler) list(c *gin.Context) {
	u := middleware.CurrentUser(c)
	f := CatalogFilter{Search: c.Query("search")}
	userID := ""
	if u != nil && !u.IsAdmin() {
		f.Category = u.College
		f.CollegeType = u.Gender
		f.PharmacyType = u.PharmacyType
		userID = u.ID
	} else {
		f.Category = c.Query("category")
		f.CollegeType = c.Query("college_type")
		f.PharmacyType = c.Query("pharmacy_type")
	}

	courses, p, err := h.svc.List(pagination.FromContext(c), f, userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, courses, p)
}

func (h *Handler) topSelling(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	courses, err := h.svc.TopSelling(limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, courses)
}

func (h *Handler) enrolled(c *gin.Context) {
	courses, err := h.svc.Enrolled(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, courses)
}

func (h *Handler) get(c *gin.Context) {
	u := middleware.CurrentUser(c)
	isAdmin := u != nil && u.IsAdmin()

	course, enrolled, err := h.svc.Get(c.Param("id"), middleware.CurrentUserID(c), isAdmin)
	if err != nil {
		if errors.Is(err, errCourseNotFound) {
			response.NotFoundMsg(c, "الكورس غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"course": course, "enrolled": enrolled})
}

func (h *Handler) lesson(c *gin.Context) {
	u := middleware.CurrentUser(c)
	isAdmin := u != nil && u.IsAdmin()

	lesson, err := h.svc.Lesson(c.Param("id"), c.Param("lessonId"), middleware.CurrentUserID(c), isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, errLessonNotFound):
			response.NotFoundMsg(c, "الدرس غير موجود")
		case errors.Is(err, errNotEnrolled):
			response.ForbiddenMsg(c, "يجب الاشتراك في الكورس لمشاهدة هذا الدرس")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, lesson)
}

func (h *Handler) create(c *gin.Context) {
	var dto CourseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	course, err := h.svc.Create(&dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.CreatedMsg(c, "تم إنشاء الكورس بنجاح", course)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateCourseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	course, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, errCourseNotFound) {
			response.NotFoundMsg(c, "الكورس غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تم تحديث الكورس بنجاح", course)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		if errors.Is(err, errCourseNotFound) {
			response.NotFoundMsg(c, "الكورس غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تم حذف الكورس بنجاح", gin.H{"success": true})
}

func (h *Handler) addLesson(c *gin.Context) {
	var dto LessonDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	lesson, err := h.svc.AddLesson(c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, errCourseNotFound) {
			response.NotFoundMsg(c, "الكورس غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.CreatedMsg(c, "تم إضافة الدرس بنجاح", lesson)
}

func (h *Handler) updateLesson(c *gin.Context) {
	var dto LessonDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	lesson, err := h.svc.UpdateLesson(c.Param("id"), c.Param("lessonId"), &dto)
	if err != nil {
		if errors.Is(err, errLessonNotFound) {
			response.NotFoundMsg(c, "الدرس غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تم تحديث الدرس بنجاح", lesson)
}

func (h *Handler) deleteLesson(c *gin.Context) {
	if err := h.svc.DeleteLesson(c.Param("id"), c.Param("lessonId")); err != nil {
		if errors.Is(err, errLessonNotFound) {
			response.NotFoundMsg(c, "الدرس غير موجود")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OKMsg(c, "تم حذف الدرس بنجاح", gin.H{"success": true})
}
