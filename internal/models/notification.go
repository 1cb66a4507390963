package models

// NotificationModel is an in-app notification row; there is no external delivery.
type NotificationModel struct {
	Base
	UserID  string `json:"user_id" gorm:"index;not null"`
	Message string `json:"message" gorm:"type:text;not null"`
	IsRead  bool   `json:"is_read" gorm:"default:false"`
}

func (NotificationModel) TableName() string { return "notifications" }

// MessageModel is a direct message between a student and the admin.
type MessageModel struct {
	Base
	SenderID   string `json:"sender_id"   gorm:"index;not null"`
	ReceiverID string `json:"receiver_id" gorm:"index;not null"`
	Content    string `json:"content"     gorm:"type:text;not null"`
	IsRead     bool   `json:"is_read"     gorm:"default:false"`
}

func (MessageModel) TableName() string { return "messages" }
