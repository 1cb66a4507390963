package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puls-academy/backend/internal/models"
	jwtpkg "github.com/puls-academy/backend/internal/pkg/jwt"
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
	if err := db.AutoMigrate(&models.UserModel{}, &models.ActiveSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newGuardedRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Auth(db), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUserID(c)})
	})
	r.GET("/admin", Auth(db), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.UserModel {
	t.Helper()
	u := &models.UserModel{
		Name:     "Guard Test",
		Email:    email,
		Password: "x",
		Role:     role,
		Status:   models.StatusActive,
		College:  models.CollegePharmacy,
		Gender:   models.GenderMale,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGuardRejectsMissingToken(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)

	if w := doGet(r, "/protected", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGuardRejectsMalformedToken(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)

	if w := doGet(r, "/protected", "not-a-jwt"); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGuardRejectsExpiredToken(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	u := seedUser(t, db, "e@test.com", models.RoleStudent)

	token, err := jwtpkg.Sign(u, "sid", -time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if w := doGet(r, "/protected", token); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGuardRejectsRefreshToken(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	u := seedUser(t, db, "rf@test.com", models.RoleStudent)

	token, err := jwtpkg.SignRefresh(u, "sid")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if w := doGet(r, "/protected", token); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGuardRejectsDeletedUser(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	u := seedUser(t, db, "gone@test.com", models.RoleStudent)

	issued, err := sessionpkg.Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	db.Unscoped().Delete(u)

	if w := doGet(r, "/protected", issued.Token); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGuardRejectsSuspendedUser(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	u := seedUser(t, db, "sus@test.com", models.RoleStudent)

	issued, err := sessionpkg.Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	db.Model(u).Update("status", models.StatusSuspended)

	if w := doGet(r, "/protected", issued.Token); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestGuardRejectsDisplacedSession(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	u := seedUser(t, db, "disp@test.com", models.RoleStudent)

	old, err := sessionpkg.Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// A later login from elsewhere displaces the session.
	if _, err := sessionpkg.Issue(db, u, "fp-2"); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	// Old token is structurally valid but its session is gone.
	if w := doGet(r, "/protected", old.Token); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGuardAcceptsLiveSession(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	u := seedUser(t, db, "live@test.com", models.RoleStudent)

	issued, err := sessionpkg.Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if w := doGet(r, "/protected", issued.Token); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestGuardAdminBypassesSessionCheck(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	admin := seedUser(t, db, "admin@test.com", models.RoleAdmin)

	// Token without any backing session row: fine for an admin.
	token, err := jwtpkg.Sign(admin, "whatever", jwtpkg.DefaultTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if w := doGet(r, "/protected", token); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w := doGet(r, "/admin", token); w.Code != http.StatusOK {
		t.Errorf("admin route status = %d, want 200", w.Code)
	}
}

func TestAdminOnlyRejectsStudent(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	u := seedUser(t, db, "st@test.com", models.RoleStudent)

	issued, err := sessionpkg.Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if w := doGet(r, "/admin", issued.Token); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestGuardTouchesSession(t *testing.T) {
	db := openTestDB(t)
	r := newGuardedRouter(db)
	u := seedUser(t, db, "touch@test.com", models.RoleStudent)

	issued, err := sessionpkg.Issue(db, u, "fp-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	stale := time.Now().Add(-time.Hour)
	db.Model(&models.ActiveSession{}).Where("id = ?", issued.Session.ID).Update("last_seen", stale)

	if w := doGet(r, "/protected", issued.Token); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var s models.ActiveSession
	db.Where("id = ?", issued.Session.ID).First(&s)
	if !s.LastSeen.After(stale.Add(30 * time.Minute)) {
		t.Errorf("guard must touch last_seen, got %v", s.LastSeen)
	}
}
