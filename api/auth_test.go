package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestToken_RoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	userID, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != 42 {
		t.Fatalf("user id = %d, want 42", userID)
	}
}

func TestToken_WrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", 42)
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestToken_Malformed(t *testing.T) {
	for _, token := range []string{"", "abc", "1.2", "1.2.3.4"} {
		if _, err := ParseToken("secret", token); err == nil {
			t.Fatalf("expected %q to be rejected", token)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AuthMiddleware("secret"))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetInt64("user_id")})
	})

	// No token
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", w.Code)
	}

	// Valid token
	token, _ := GenerateToken("secret", 7)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", w.Code)
	}

	// Tampered token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("tampered token: status = %d, want 401", w.Code)
	}
}
