package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(jwt.Middleware(secret))
	r.GET("/me", func(c *gin.Context) {
		claims, ok := jwt.GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Subject)
	})
	return r
}

func TestMiddleware(t *testing.T) {
	valid, err := jwt.Issue(secret, "moderator-1", time.Hour)
	require.NoError(t, err)
	expired, err := jwt.Issue(secret, "moderator-1", -time.Hour)
	require.NoError(t, err)
	wrongKey, err := jwt.Issue("other", "moderator-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{name: "valid token", header: "Bearer " + valid, wantCode: http.StatusOK, wantBody: "moderator-1"},
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantCode: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantCode: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + wrongKey, wantCode: http.StatusUnauthorized},
	}

	router := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
