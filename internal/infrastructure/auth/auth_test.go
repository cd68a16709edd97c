package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/image-api/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(v *Validator) *gin.Engine {
	engine := gin.New()
	engine.Use(v.Middleware())
	engine.GET("/whoami", func(c *gin.Context) {
		p, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, p.UserID)
	})
	return engine
}

func TestHeaderIdentityWhenAuthDisabled(t *testing.T) {
	engine := newEngine(&Validator{cfg: &config.Config{}, log: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(UserIDHeader, " user-1 ")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenValidation(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := &config.Config{AuthEnabled: true, AuthIssuer: "https://issuer.test", AuthAudience: "image-api"}
	v := newStaticValidator(cfg, func(*jwt.Token) (any, error) { return &key.PublicKey, nil }, zerolog.Nop())
	engine := newEngine(v)

	sign := func(k *rsa.PrivateKey, claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(k)
		require.NoError(t, err)
		return token
	}
	valid := jwt.MapClaims{
		"sub": "user-42",
		"iss": "https://issuer.test",
		"aud": "image-api",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer " + sign(key, valid), status: http.StatusOK, body: "user-42"},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + sign(other, valid), status: http.StatusUnauthorized},
		{name: "wrong issuer", header: "Bearer " + sign(key, jwt.MapClaims{
			"sub": "user-42", "iss": "https://evil.test", "aud": "image-api", "exp": time.Now().Add(time.Hour).Unix(),
		}), status: http.StatusUnauthorized},
		{name: "wrong audience", header: "Bearer " + sign(key, jwt.MapClaims{
			"sub": "user-42", "iss": "https://issuer.test", "aud": "other", "exp": time.Now().Add(time.Hour).Unix(),
		}), status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + sign(key, jwt.MapClaims{
			"sub": "user-42", "iss": "https://issuer.test", "aud": "image-api", "exp": time.Now().Add(-time.Hour).Unix(),
		}), status: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + sign(key, jwt.MapClaims{
			"iss": "https://issuer.test", "aud": "image-api", "exp": time.Now().Add(time.Hour).Unix(),
		}), status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestReady(t *testing.T) {
	var nilValidator *Validator
	assert.True(t, nilValidator.Ready())
	assert.True(t, (&Validator{cfg: &config.Config{}}).Ready())
	assert.False(t, (&Validator{cfg: &config.Config{AuthEnabled: true}}).Ready())
}
