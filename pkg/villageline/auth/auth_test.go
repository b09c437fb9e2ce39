package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/villageline/villageline/pkg/villageline/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)
	handler.RegisterRoutes(r.Group("/api/auth"))
	return r
}

func createStaffUser(t *testing.T, db *gorm.DB, email, password string, role models.StaffRole) models.StaffUser {
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.StaffUser{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create staff user: %v", err)
	}
	return user
}

func postLogin(router *gin.Engine, email, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(LoginRequest{Email: email, Password: password})
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("Expected matching password to verify")
	}
	if CheckPassword("wrong", hash) {
		t.Error("Expected wrong password to fail")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "staff@example.com", "staff")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "staff@example.com" || claims.Role != "staff" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestSetSecretInvalidatesOldTokens(t *testing.T) {
	old, err := GenerateToken(1, "staff@example.com", "staff")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	SetSecret("rotated-secret")
	defer SetSecret("")

	if _, err := ValidateToken(old); err == nil {
		t.Error("Expected token signed under the old key to be rejected")
	}

	fresh, err := GenerateToken(1, "staff@example.com", "staff")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ValidateToken(fresh); err != nil {
		t.Errorf("Expected token signed under the new key to validate, got %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("Expected error for malformed token")
	}
	if _, err := ValidateToken(""); err == nil {
		t.Error("Expected error for empty token")
	}
}

func TestLoginSuccess(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createStaffUser(t, db, "admin@example.com", "s3cret", models.StaffRoleAdmin)

	resp := postLogin(router, "admin@example.com", "s3cret")
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var auth AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &auth); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if auth.Token == "" {
		t.Error("Expected a token in the response")
	}
	if auth.User.Email != "admin@example.com" || auth.User.Role != "admin" {
		t.Errorf("Unexpected user in response: %+v", auth.User)
	}

	claims, err := ValidateToken(auth.Token)
	if err != nil {
		t.Fatalf("Issued token failed validation: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("Expected admin role in claims, got %q", claims.Role)
	}

	// A session cookie is set for the browser views
	cookie := resp.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, SessionCookie+"=") {
		t.Errorf("Expected session cookie, got %q", cookie)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createStaffUser(t, db, "admin@example.com", "s3cret", models.StaffRoleAdmin)

	resp := postLogin(router, "admin@example.com", "wrong")
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	resp := postLogin(router, "nobody@example.com", "s3cret")
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestLoginAcceptsFormEncoding(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createStaffUser(t, db, "admin@example.com", "s3cret", models.StaffRoleAdmin)

	form := "email=admin%40example.com&password=s3cret"
	req, _ := http.NewRequest("POST", "/api/auth/login", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 for form login, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMeRequiresToken(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/api/auth/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestMeWithSessionCookie(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createStaffUser(t, db, "staff@example.com", "s3cret", models.StaffRoleStaff)

	token, err := GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	req, _ := http.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var me UserResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &me); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if me.Email != "staff@example.com" {
		t.Errorf("Expected staff@example.com, got %q", me.Email)
	}
}
