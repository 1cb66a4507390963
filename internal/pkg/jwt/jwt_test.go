package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/puls-academy/backend/internal/models"
)

func testUser() *models.UserModel {
	return &models.UserModel{
		Name:     "Token User",
		Email:    "token@test.com",
		Role:     models.RoleStudent,
		College:  models.CollegePharmacy,
		Gender:   models.GenderFemale,
		Password: "x",
	}
}

func TestSignParseRoundTrip(t *testing.T) {
	u := testUser()
	u.ID = "user-1"

	token, err := Sign(u, "session-1", 0)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != "session-1" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Refresh {
		t.Error("access token must not carry the refresh flag")
	}
	if claims.College != models.CollegePharmacy {
		t.Errorf("college = %q", claims.College)
	}
}

func TestParseExpired(t *testing.T) {
	token, err := Sign(testUser(), "session-1", -time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token); !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := Parse("not.a.token"); err == nil {
		t.Error("garbage token must not parse")
	}
}

func TestRefreshTokenFlag(t *testing.T) {
	token, err := SignRefresh(testUser(), "session-1")
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}
	claims, err := Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.Refresh {
		t.Error("refresh token must carry the refresh flag")
	}
	if claims.SessionID != "session-1" {
		t.Errorf("sid = %q", claims.SessionID)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	SetSecret("first-secret")
	token, err := Sign(testUser(), "session-1", 0)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	SetSecret("second-secret")
	defer SetSecret(defaultSecret)
	if _, err := Parse(token); err == nil {
		t.Error("token signed with a different secret must not verify")
	}
}
