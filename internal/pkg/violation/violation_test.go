package violation

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
	if err := db.AutoMigrate(&models.UserModel{}, &models.ViolationModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestUser(t *testing.T, db *gorm.DB) *models.UserModel {
	t.Helper()
	u := &models.UserModel{
		Name:     "Test Student",
		Email:    "v@test.com",
		Password: "x",
		Role:     models.RoleStudent,
		Status:   models.StatusActive,
		College:  models.CollegeDentistry,
		Gender:   models.GenderMale,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestRecordIncrementsCounter(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db)

	count, err := Record(db, u.ID, models.ViolationConcurrentLogin, models.ViolationDetails{
		Message:        "test",
		NewFingerprint: "fp-2",
		OldFingerprint: "fp-1",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	var rows int64
	db.Model(&models.ViolationModel{}).Where("user_id = ?", u.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("expected 1 violation row, got %d", rows)
	}

	var stored models.UserModel
	db.Where("id = ?", u.ID).First(&stored)
	if stored.ViolationCount != 1 {
		t.Errorf("user violation_count = %d, want 1", stored.ViolationCount)
	}
}

func TestRecordDedupWindow(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db)

	first, err := Record(db, u.ID, models.ViolationConcurrentLogin, models.ViolationDetails{Message: "a"})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	// A racing duplicate right behind the first one is absorbed.
	second, err := Record(db, u.ID, models.ViolationConcurrentLogin, models.ViolationDetails{Message: "b"})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if first != 1 || second != 1 {
		t.Errorf("counts = %d, %d; want 1, 1", first, second)
	}

	var rows int64
	db.Model(&models.ViolationModel{}).Where("user_id = ?", u.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("expected the duplicate to be absorbed, got %d rows", rows)
	}
}

func TestRecordOutsideDedupWindow(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db)

	if _, err := Record(db, u.ID, models.ViolationConcurrentLogin, models.ViolationDetails{}); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Age the first row past the window, then record again.
	db.Model(&models.ViolationModel{}).Where("user_id = ?", u.ID).
		Update("created_at", time.Now().Add(-DedupWindow-time.Second))

	count, err := Record(db, u.ID, models.ViolationConcurrentLogin, models.ViolationDetails{})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestListByUser(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db)

	if _, err := Record(db, u.ID, models.ViolationConcurrentLogin, models.ViolationDetails{
		NewFingerprint: "fp-2",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	rows, err := ListByUser(db, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Details.NewFingerprint != "fp-2" {
		t.Errorf("details round-trip failed: %+v", rows[0].Details)
	}
}
