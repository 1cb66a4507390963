package models

import "time"

// ActiveSession is the single live session a user holds. The unique index on
// user_id turns "one session per user" into a database guarantee instead of a
// procedural convention.
type ActiveSession struct {
	Base
	UserID      string    `json:"user_id"     gorm:"uniqueIndex;not null"`
	Token       string    `json:"-"           gorm:"uniqueIndex;not null"`
	Fingerprint string    `json:"fingerprint"`
	LastSeen    time.Time `json:"last_seen"   gorm:"index"`
}

func (ActiveSession) TableName() string { return "active_sessions" }
