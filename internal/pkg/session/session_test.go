package session

import (
	"testing"
	"time"

	"github.com/puls-academy/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.UserModel{}, &models.ActiveSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, email string) *models.UserModel {
	t.Helper()
	u := &models.UserModel{
		Name:     "Test Student",
		Email:    email,
		Password: "x",
		Role:     models.RoleStudent,
		Status:   models.StatusActive,
		College:  models.CollegePharmacy,
		Gender:   models.GenderMale,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestIssueReplacesExistingSession(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "a@test.com")

	first, err := Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := Issue(db, u, "fp-2")
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	var count int64
	db.Model(&models.ActiveSession{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one session, got %d", count)
	}

	if ok, _ := Matches(db, u.ID, first.Session.Token); ok {
		t.Error("first session should no longer match")
	}
	if ok, _ := Matches(db, u.ID, second.Session.Token); !ok {
		t.Error("second session should match")
	}
	if second.Session.Fingerprint != "fp-2" {
		t.Errorf("expected fingerprint fp-2, got %q", second.Session.Fingerprint)
	}
	if second.Token == "" || second.RefreshToken == "" {
		t.Error("expected both access and refresh tokens")
	}
}

func TestMatchesEmptyToken(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "b@test.com")

	if ok, err := Matches(db, u.ID, ""); err != nil || ok {
		t.Errorf("empty token must never match, got ok=%v err=%v", ok, err)
	}
}

func TestRevoke(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "c@test.com")

	issued, err := Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := Revoke(db, u.ID, issued.Session.Token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := Revoke(db, u.ID, issued.Session.Token); err != gorm.ErrRecordNotFound {
		t.Errorf("second revoke should report not found, got %v", err)
	}

	s, err := Current(db, u.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if s != nil {
		t.Error("expected no current session after revoke")
	}
}

func TestRevokeAll(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "d@test.com")

	if _, err := Issue(db, u, "fp-1"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := RevokeAll(db, u.ID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}

	var count int64
	db.Model(&models.ActiveSession{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 sessions, got %d", count)
	}
}

func TestTouchUpdatesLastSeen(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "e@test.com")

	issued, err := Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	stale := time.Now().Add(-time.Hour)
	db.Model(&models.ActiveSession{}).Where("id = ?", issued.Session.ID).Update("last_seen", stale)

	Touch(db, u.ID, issued.Session.Token)

	var s models.ActiveSession
	db.Where("id = ?", issued.Session.ID).First(&s)
	if !s.LastSeen.After(stale.Add(30 * time.Minute)) {
		t.Errorf("expected last_seen to be refreshed, got %v", s.LastSeen)
	}
}

func TestPurgeIdle(t *testing.T) {
	db := openTestDB(t)
	active := newTestUser(t, db, "f@test.com")
	idle := newTestUser(t, db, "g@test.com")

	if _, err := Issue(db, active, "fp-1"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	issued, err := Issue(db, idle, "fp-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	db.Model(&models.ActiveSession{}).Where("id = ?", issued.Session.ID).
		Update("last_seen", time.Now().Add(-8*24*time.Hour))

	n, err := PurgeIdle(db, time.Now().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged session, got %d", n)
	}

	if s, _ := Current(db, active.ID); s == nil {
		t.Error("active user's session must survive the purge")
	}
	if s, _ := Current(db, idle.ID); s != nil {
		t.Error("idle user's session must be purged")
	}
}
