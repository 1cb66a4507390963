package course

import (
	"errors"
	"strings"

	"github.com/puls-academy/backend/internal/models"
	"github.com/puls-academy/backend/internal/pkg/pagination"
	"github.com/puls-academy/backend/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// CatalogFilter narrows the catalog to what a given student should see.
// Category is the college (pharmacy or dentistry), CollegeType the gender
// section; pharmacy students are further narrowed to their program type.
type CatalogFilter struct {
	Category     string
	CollegeType  string
	PharmacyType string
	Search       string
}

// List pages through the catalog. With a userID each row carries the
// student's enrollment status and courses they own float to the top.
func (s *Service) List(q pagination.Query, f CatalogFilter, userID string) ([]CatalogEntry, response.Pagination, error) {
	query := s.db.Model(&models.CourseModel{})
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.CollegeType != "" {
		query = query.Where("college_type = ?", f.CollegeType)
	}
	if f.Category == models.CollegePharmacy && f.PharmacyType != "" {
		query = query.Where("pharmacy_type = ? OR pharmacy_type = ''", f.PharmacyType)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	lessonsCount := "(SELECT COUNT(*) FROM lessons WHERE lessons.course_id = courses.id AND lessons.deleted_at IS NULL) AS lessons_count"
	if userID == "" {
		query = query.Select("courses.*, " + lessonsCount).Order("created_at DESC")
	} else {
		query = query.Select(`courses.*, `+lessonsCount+`, COALESCE(
			(SELECT enrollments.status FROM enrollments
			  WHERE enrollments.user_id = ? AND enrollments.course_id = courses.id
			    AND enrollments.status = ? AND enrollments.deleted_at IS NULL),
			(SELECT payments.status FROM payments
			  WHERE payments.user_id = ? AND payments.course_id = courses.id
			    AND payments.deleted_at IS NULL
			  ORDER BY payments.created_at DESC LIMIT 1),
			'available') AS enrollment_status`,
			userID, models.EnrollmentActive, userID).
			Order(`CASE enrollment_status
				WHEN 'active' THEN 1
				WHEN 'pending' THEN 2
				WHEN 'rejected' THEN 3
				ELSE 4
			END, created_at DESC`)
	}

	var courses []CatalogEntry
	p, err := pagination.Paginate(query, q, &courses)
	return courses, p, err
}

// Get loads a course with its lessons. Lessons carry their video URLs only
// when the caller is enrolled (or an admin); otherwise non-preview lessons
// are stripped down to their metadata.
func (s *Service) Get(courseID, userID string, isAdmin bool) (*models.CourseModel, bool, error) {
	var course models.CourseModel
	err := s.db.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).Where("id = ?", courseID).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, errCourseNotFound
		}
		return nil, false, err
	}

	enrolled := isAdmin
	if !enrolled && userID != "" {
		enrolled, err = s.IsEnrolled(userID, courseID)
		if err != nil {
			return nil, false, err
		}
	}
	if !enrolled {
		for i := range course.Lessons {
			if !course.Lessons[i].IsPreview {
				course.Lessons[i].VideoURL = ""
			}
		}
	}
	return &course, enrolled, nil
}

func (s *Service) IsEnrolled(userID, courseID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.EnrollmentModel{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.EnrollmentActive).
		Count(&count).Error
	return count > 0, err
}

// Lesson returns a single lesson, enforcing the enrollment gate on
// non-preview content.
func (s *Service) Lesson(courseID, lessonID, userID string, isAdmin bool) (*models.LessonModel, error) {
	var lesson models.LessonModel
	err := s.db.Where("id = ? AND course_id = ?", lessonID, courseID).First(&lesson).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errLessonNotFound
		}
		return nil, err
	}
	if lesson.IsPreview || isAdmin {
		return &lesson, nil
	}
	enrolled, err := s.IsEnrolled(userID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, errNotEnrolled
	}
	return &lesson, nil
}

// Enrolled lists the caller's active courses.
func (s *Service) Enrolled(userID string) ([]models.CourseModel, error) {
	var courses []models.CourseModel
	err := s.db.
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ? AND enrollments.status = ?", userID, models.EnrollmentActive).
		Order("enrollments.created_at DESC").
		Find(&courses).Error
	return courses, err
}

// TopSelling ranks courses by approved enrollments.
func (s *Service) TopSelling(limit int) ([]models.CourseModel, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var courses []models.CourseModel
	err := s.db.
		Select("courses.*, COUNT(enrollments.id) AS sales").
		Joins("LEFT JOIN enrollments ON enrollments.course_id = courses.id AND enrollments.status = ?", models.EnrollmentActive).
		Group("courses.id").
		Order("sales DESC").
		Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (s *Service) Create(dto *CourseDTO) (*models.CourseModel, error) {
	course := &models.CourseModel{
		Title:        strings.TrimSpace(dto.Title),
		Description:  dto.Description,
		Category:     dto.Category,
		CollegeType:  dto.CollegeType,
		PharmacyType: dto.PharmacyType,
		Price:        dto.Price,
		ThumbnailURL: dto.ThumbnailURL,
		PreviewURL:   dto.PreviewURL,
	}
	return course, s.db.Create(course).Error
}

func (s *Service) Update(id string, dto *UpdateCourseDTO) (*models.CourseModel, error) {
	updates := map[string]any{}
	if dto.Title != nil {
		updates["title"] = strings.TrimSpace(*dto.Title)
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.Category != nil {
		updates["category"] = *dto.Category
	}
	if dto.CollegeType != nil {
		updates["college_type"] = *dto.CollegeType
	}
	if dto.PharmacyType != nil {
		updates["pharmacy_type"] = *dto.PharmacyType
	}
	if dto.Price != nil {
		updates["price"] = *dto.Price
	}
	if dto.ThumbnailURL != nil {
		updates["thumbnail_url"] = *dto.ThumbnailURL
	}
	if dto.PreviewURL != nil {
		updates["preview_url"] = *dto.PreviewURL
	}

	if len(updates) > 0 {
		res := s.db.Model(&models.CourseModel{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, errCourseNotFound
		}
	}

	var course models.CourseModel
	if err := s.db.Where("id = ?", id).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (s *Service) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.CourseModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errCourseNotFound
		}
		return tx.Where("course_id = ?", id).Delete(&models.LessonModel{}).Error
	})
}

func (s *Service) AddLesson(courseID string, dto *LessonDTO) (*models.LessonModel, error) {
	var count int64
	if err := s.db.Model(&models.CourseModel{}).Where("id = ?", courseID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errCourseNotFound
	}

	lesson := &models.LessonModel{
		CourseID:   courseID,
		Title:      strings.TrimSpace(dto.Title),
		VideoURL:   dto.VideoURL,
		IsPreview:  dto.IsPreview,
		OrderIndex: dto.OrderIndex,
	}
	return lesson, s.db.Create(lesson).Error
}

func (s *Service) UpdateLesson(courseID, lessonID string, dto *LessonDTO) (*models.LessonModel, error) {
	res := s.db.Model(&models.LessonModel{}).
		Where("id = ? AND course_id = ?", lessonID, courseID).
		Updates(map[string]any{
			"title":       strings.TrimSpace(dto.Title),
			"video_url":   dto.VideoURL,
			"is_preview":  dto.IsPreview,
			"order_index": dto.OrderIndex,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errLessonNotFound
	}
	var lesson models.LessonModel
	return &lesson, s.db.Where("id = ?", lessonID).First(&lesson).Error
}

func (s *Service) DeleteLesson(courseID, lessonID string) error {
	res := s.db.Where("id = ? AND course_id = ?", lessonID, courseID).Delete(&models.LessonModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errLessonNotFound
	}
	return nil
}
