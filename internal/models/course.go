package models

// CourseModel is a purchasable course, gated by college/gender/specialization.
type CourseModel struct {
	Base
	Title        string        `json:"title"         gorm:"not null"`
	Description  string        `json:"description"   gorm:"type:text"`
	Category     string        `json:"category"      gorm:"index;not null"` // pharmacy | dentistry
	CollegeType  string        `json:"college_type"  gorm:"index;not null"` // male | female
	PharmacyType string        `json:"pharmacy_type"`
	Price        float64       `json:"price"         gorm:"not null"`
	ThumbnailURL string        `json:"thumbnail_url"`
	PreviewURL   string        `json:"preview_url"`
	Lessons      []LessonModel `json:"lessons,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (CourseModel) TableName() string { return "courses" }

// LessonModel is a single video lesson inside a course.
type LessonModel struct {
	Base
	CourseID   string `json:"course_id"   gorm:"index;not null"`
	Title      string `json:"title"       gorm:"not null"`
	VideoURL   string `json:"video_url"   gorm:"not null"`
	IsPreview  bool   `json:"is_preview"  gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}

func (LessonModel) TableName() string { return "lessons" }
