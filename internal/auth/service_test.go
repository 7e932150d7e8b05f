package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abduss/assethost/internal/config"
	"github.com/gin-gonic/gin"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenSecret: "access-secret",
		TokenTTL:    time.Minute,
		Issuer:      "assethost",
	}
}

func TestIssueAndValidate(t *testing.T) {
	service := NewService(testConfig())

	token, expiresAt, err := service.Issue("alice")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token to be issued")
	}

	claims, err := service.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken returned error: %v", err)
	}
	if claims.Principal != "alice" {
		t.Fatalf("unexpected principal: %s", claims.Principal)
	}
	if claims.ExpiresAt.Unix() != expiresAt.Unix() {
		t.Fatalf("unexpected expiry: %v vs %v", claims.ExpiresAt, expiresAt)
	}
}

func TestIssueRejectsAnonymous(t *testing.T) {
	service := NewService(testConfig())

	if _, _, err := service.Issue("  "); err != ErrEmptyPrincipal {
		t.Fatalf("expected ErrEmptyPrincipal, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	service := NewService(testConfig())
	issuedAt := time.Now().Add(-time.Hour)
	service.nowFunc = func() time.Time { return issuedAt }

	token, _, err := service.Issue("alice")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	service.nowFunc = time.Now
	if _, err := service.ValidateAccessToken(token); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuer := NewService(testConfig())
	token, _, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	cfg := testConfig()
	cfg.TokenSecret = "other-secret"
	verifier := NewService(cfg)

	if _, err := verifier.ValidateAccessToken(token); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMiddlewareInjectsPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := NewService(testConfig())
	token, _, err := service.Issue("bob")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	r := gin.New()
	r.Use(AuthMiddleware(service))
	r.GET("/whoami", func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, string(principal))
	})

	req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "bob" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}

	req, _ = http.NewRequest(http.MethodGet, "/whoami", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", rr.Code)
	}
}
