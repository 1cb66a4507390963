package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/puls-academy/backend/internal/models"
	devicepkg "github.com/puls-academy/backend/internal/pkg/device"
	sessionpkg "github.com/puls-academy/backend/internal/pkg/session"
	violationpkg "github.com/puls-academy/backend/internal/pkg/violation"
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
	err = db.AutoMigrate(
		&models.UserModel{},
		&models.TrustedDevice{},
		&models.DeviceLoginRequest{},
		&models.ActiveSession{},
		&models.ViolationModel{},
		&models.CourseModel{},
		&models.PaymentModel{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedStudent(t *testing.T, db *gorm.DB, email string) *models.UserModel {
	t.Helper()
	u := &models.UserModel{
		Name:     "Student",
		Email:    email,
		Password: "x",
		Role:     models.RoleStudent,
		Status:   models.StatusActive,
		College:  models.CollegeDentistry,
		Gender:   models.GenderFemale,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create student: %v", err)
	}
	return u
}

func TestSuspendRevokesSessions(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, nil)
	u := seedStudent(t, db, "a@test.com")

	if _, err := sessionpkg.Issue(db, u, "fp-1"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.UpdateStatus(u.ID, models.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	var stored models.UserModel
	db.Where("id = ?", u.ID).First(&stored)
	if stored.Status != models.StatusSuspended {
		t.Errorf("status = %q, want suspended", stored.Status)
	}

	var sessions int64
	db.Model(&models.ActiveSession{}).Where("user_id = ?", u.ID).Count(&sessions)
	if sessions != 0 {
		t.Errorf("suspension must revoke sessions, got %d", sessions)
	}
}

func TestReactivateResetsViolationCount(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, nil)
	u := seedStudent(t, db, "b@test.com")
	db.Model(u).Updates(map[string]any{
		"status":          models.StatusSuspended,
		"violation_count": 3,
	})

	if err := svc.UpdateStatus(u.ID, models.StatusActive); err != nil {
		t.Fatalf("reactivate: %v", err)
	}

	var stored models.UserModel
	db.Where("id = ?", u.ID).First(&stored)
	if stored.Status != models.StatusActive {
		t.Errorf("status = %q, want active", stored.Status)
	}
	if stored.ViolationCount != 0 {
		t.Errorf("violation_count = %d, want 0", stored.ViolationCount)
	}
}

func TestUpdateStatusRejectsAdminTarget(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, nil)
	admin := &models.UserModel{
		Name: "Admin", Email: "admin@test.com", Password: "x",
		Role: models.RoleAdmin, Status: models.StatusActive,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if err := svc.UpdateStatus(admin.ID, models.StatusSuspended); !errors.Is(err, errNotAStudent) {
		t.Errorf("err = %v, want not a student", err)
	}
	if err := svc.UpdateStatus("missing-id", models.StatusSuspended); !errors.Is(err, errStudentNotFound) {
		t.Errorf("err = %v, want student not found", err)
	}
}

func TestListViolators(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, nil)

	clean := seedStudent(t, db, "clean@test.com")
	once := seedStudent(t, db, "once@test.com")
	repeat := seedStudent(t, db, "repeat@test.com")
	db.Model(once).Update("violation_count", 1)
	db.Model(repeat).Update("violation_count", 2)
	if _, err := violationpkg.Record(db, repeat.ID, models.ViolationConcurrentLogin, models.ViolationDetails{}); err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := svc.ListViolators()
	if err != nil {
		t.Fatalf("violators: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 violator, got %d", len(rows))
	}
	if rows[0].ID != repeat.ID {
		t.Errorf("violator = %s, want %s", rows[0].ID, repeat.ID)
	}
	_ = clean
}

func TestDeleteStudentCleansUp(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, nil)
	u := seedStudent(t, db, "del@test.com")

	if _, err := devicepkg.IsApproved(db, u.ID, devicepkg.Info{Fingerprint: "fp-1"}); err != nil {
		t.Fatalf("bootstrap device: %v", err)
	}
	if _, err := sessionpkg.Issue(db, u, "fp-1"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := devicepkg.CreatePendingRequest(db, u.ID, devicepkg.Info{Fingerprint: "fp-2"}); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := violationpkg.Record(db, u.ID, models.ViolationConcurrentLogin, models.ViolationDetails{}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := svc.DeleteStudent(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, probe := range []struct {
		name  string
		model any
	}{
		{"sessions", &models.ActiveSession{}},
		{"trusted devices", &models.TrustedDevice{}},
		{"device requests", &models.DeviceLoginRequest{}},
		{"violations", &models.ViolationModel{}},
	} {
		var count int64
		db.Model(probe.model).Where("user_id = ?", u.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected 0 %s after delete, got %d", probe.name, count)
		}
	}

	if _, err := svc.GetStudent(u.ID); !errors.Is(err, errStudentNotFound) {
		t.Errorf("err = %v, want student not found", err)
	}
}

func TestApproveAndRejectDevice(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, nil)
	u := seedStudent(t, db, "q@test.com")

	req, err := devicepkg.CreatePendingRequest(db, u.ID, devicepkg.Info{
		Fingerprint: "fp-2",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	queue, err := svc.DeviceQueue()
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("expected 1 queue entry, got %d", len(queue))
	}
	if queue[0].Device == "" || queue[0].Device == queue[0].Fingerprint {
		t.Errorf("queue entry must carry a readable device label, got %q", queue[0].Device)
	}

	if err := svc.ApproveDevice(context.Background(), req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := svc.RejectDevice(context.Background(), req.ID); !errors.Is(err, devicepkg.ErrRequestNotFound) {
		t.Errorf("reject after approve: err = %v, want not found", err)
	}
}

func TestDashboardWithoutCache(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, nil)
	seedStudent(t, db, "s1@test.com")
	seedStudent(t, db, "s2@test.com")

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.TotalStudents != 2 {
		t.Errorf("total students = %d, want 2", stats.TotalStudents)
	}
}

func TestDescribeDevice(t *testing.T) {
	got := describeDevice("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	if got != "Chrome 126 / Windows" {
		t.Errorf("describeDevice = %q", got)
	}
	if describeDevice("") == "" {
		t.Error("empty user agent must still produce a label")
	}
}
