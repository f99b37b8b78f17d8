package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(secret []byte) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog())
	r.GET("/open", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": c.GetString("request_id")}) })
	r.GET("/secure", RequireBearer(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sub": c.GetString("token_subject"), "fp": c.GetString("token_fingerprint")})
	})
	return r
}

func serve(r http.Handler, path, auth string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sign(t *testing.T, secret []byte, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ann@example.com", "exp": exp.Unix()}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRequestIDAssignedAndKept(t *testing.T) {
	r := newRouter(nil)

	w := serve(r, "/open", "")
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	w = serve(r, "/open", "", RequestIDHeader, id)
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	w = serve(r, "/open", "", RequestIDHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestRequireBearerPassThrough(t *testing.T) {
	r := newRouter(nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/secure", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/secure", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/secure", "Bearer ").Code)

	w := serve(r, "/secure", "Bearer opaque-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fp":"`)
}

func TestRequireBearerVerifiesJWT(t *testing.T) {
	secret := []byte("s3cret")
	r := newRouter(secret)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/secure", "Bearer opaque-token").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/secure", "Bearer "+sign(t, []byte("other"), time.Now().Add(time.Hour))).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/secure", "Bearer "+sign(t, secret, time.Now().Add(-time.Hour))).Code)

	w := serve(r, "/secure", "Bearer "+sign(t, secret, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sub":"ann@example.com"`)
}
