package course

import (
	"errors"

	"github.com/puls-academy/backend/internal/models"
)

type CourseDTO struct {
	Title        string  `json:"title"         binding:"required"`
	Description  string  `json:"description"`
	Category     string  `json:"category"      binding:"required,oneof=pharmacy dentistry"`
	CollegeType  string  `json:"college_type"  binding:"required,oneof=male female"`
	PharmacyType string  `json:"pharmacy_type"`
	Price        float64 `json:"price"         binding:"min=0"`
	ThumbnailURL string  `json:"thumbnail_url"`
	PreviewURL   string  `json:"preview_url"`
}

type UpdateCourseDTO struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	CollegeType  *string  `json:"college_type"`
	PharmacyType *string  `json:"pharmacy_type"`
	Price        *float64 `json:"price"`
	ThumbnailURL *string  `json:"thumbnail_url"`
	PreviewURL   *string  `json:"preview_url"`
}

type LessonDTO struct {
	Title      string `json:"title"       binding:"required"`
	VideoURL   string `json:"video_url"   binding:"required"`
	IsPreview  bool   `json:"is_preview"`
	OrderIndex int    `json:"order_index"`
}

// CatalogEntry is a course row annotated for the catalog view. For a
// logged-in student EnrollmentStatus is active, pending, rejected or
// available, derived from their enrollment and latest payment.
type CatalogEntry struct {
	models.CourseModel
	LessonsCount     int64  `json:"lessons_count"               gorm:"->"`
	EnrollmentStatus string `json:"enrollment_status,omitempty" gorm:"->"`
}

var (
	errCourseNotFound = errors.New("course not found")
	errLessonNotFound = errors.New("lesson not found")
	errNotEnrolled    = errors.New("course not enrolled")
)
