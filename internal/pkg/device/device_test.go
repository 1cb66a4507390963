package device

import (
	"testing"

	"github.com/puls-academy/backend/internal/models"
	sessionpkg "github.com/puls-academy/backend/internal/pkg/session"
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
	)
	if err != nil {
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
		Gender:   models.GenderFemale,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestIsApprovedBootstrapsFirstDevice(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "a@test.com")

	ok, err := IsApproved(db, u.ID, Info{Fingerprint: "fp-1", UserAgent: "ua"})
	if err != nil {
		t.Fatalf("is approved: %v", err)
	}
	if !ok {
		t.Fatal("first device must be auto-trusted")
	}

	var count int64
	db.Model(&models.TrustedDevice{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 trusted device, got %d", count)
	}

	// The same fingerprint stays approved, a different one does not.
	if ok, _ = IsApproved(db, u.ID, Info{Fingerprint: "fp-1"}); !ok {
		t.Error("known fingerprint must stay approved")
	}
	if ok, _ = IsApproved(db, u.ID, Info{Fingerprint: "fp-2"}); ok {
		t.Error("unknown fingerprint must not be approved")
	}
	db.Model(&models.TrustedDevice{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Errorf("membership checks must not create devices, got %d", count)
	}
}

func TestCreatePendingRequestReusesExisting(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "b@test.com")

	first, err := CreatePendingRequest(db, u.ID, Info{Fingerprint: "fp-2", UserAgent: "ua", IP: "1.2.3.4"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := CreatePendingRequest(db, u.ID, Info{Fingerprint: "fp-2", UserAgent: "ua", IP: "1.2.3.4"})
	if err != nil {
		t.Fatalf("repeat create: %v", err)
	}
	if first.ID != second.ID {
		t.Error("retried login must reuse the existing pending request")
	}

	var count int64
	db.Model(&models.DeviceLoginRequest{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 request row, got %d", count)
	}
}

func TestApprove(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "c@test.com")

	// Bootstrap a first device, then a session on it.
	if _, err := IsApproved(db, u.ID, Info{Fingerprint: "fp-1"}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := sessionpkg.Issue(db, u, "fp-1"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	req, err := CreatePendingRequest(db, u.ID, Info{Fingerprint: "fp-2", UserAgent: "ua"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	sibling, err := CreatePendingRequest(db, u.ID, Info{Fingerprint: "fp-2", UserAgent: "ua2"})
	if err != nil {
		t.Fatalf("sibling request: %v", err)
	}

	if err := Approve(db, req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// The device is trusted now.
	if ok, _ := IsApproved(db, u.ID, Info{Fingerprint: "fp-2"}); !ok {
		t.Error("approved fingerprint must be trusted")
	}

	// Any live session was revoked so the next login starts clean.
	var sessions int64
	db.Model(&models.ActiveSession{}).Where("user_id = ?", u.ID).Count(&sessions)
	if sessions != 0 {
		t.Errorf("approval must revoke sessions, got %d", sessions)
	}

	// Sibling pendings for the same fingerprint are resolved with it.
	var s models.DeviceLoginRequest
	db.Where("id = ?", sibling.ID).First(&s)
	if s.Status != models.DeviceRequestApproved {
		t.Errorf("sibling request status = %q, want approved", s.Status)
	}

	// A second approval of the same request is not found anymore.
	if err := Approve(db, req.ID); err != ErrRequestNotFound {
		t.Errorf("re-approve should report not found, got %v", err)
	}
}

func TestApproveIsIdempotentOnTrustedDevice(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "d@test.com")

	// The fingerprint is already trusted when the request gets approved.
	if _, err := IsApproved(db, u.ID, Info{Fingerprint: "fp-1"}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	req, err := CreatePendingRequest(db, u.ID, Info{Fingerprint: "fp-1"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := Approve(db, req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var count int64
	db.Model(&models.TrustedDevice{}).
		Where("user_id = ? AND fingerprint = ?", u.ID, "fp-1").Count(&count)
	if count != 1 {
		t.Errorf("expected a single trusted device row, got %d", count)
	}
}

func TestReject(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "e@test.com")

	req, err := CreatePendingRequest(db, u.ID, Info{Fingerprint: "fp-9"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := Reject(db, req.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	var r models.DeviceLoginRequest
	db.Where("id = ?", req.ID).First(&r)
	if r.Status != models.DeviceRequestRejected {
		t.Errorf("status = %q, want rejected", r.Status)
	}
	if ok, _ := IsApproved(db, u.ID, Info{Fingerprint: "fp-9"}); ok {
		t.Error("rejected fingerprint must not become trusted")
	}
	if err := Reject(db, req.ID); err != ErrRequestNotFound {
		t.Errorf("re-reject should report not found, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	db := openTestDB(t)
	u := newTestUser(t, db, "f@test.com")

	if _, err := CreatePendingRequest(db, u.ID, Info{Fingerprint: "fp-3"}); err != nil {
		t.Fatalf("request: %v", err)
	}
	rows, err := ListPending(db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(rows))
	}
	if rows[0].UserEmail != "f@test.com" || rows[0].UserName == "" {
		t.Errorf("pending row must carry the requester identity, got %+v", rows[0])
	}
}
