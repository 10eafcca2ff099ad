package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newCORSRouter(allowedOrigins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinZapLogger(zap.NewNop()))
	r.Use(cors.New(NewCORSConfig(allowedOrigins)))
	r.POST("/api/action", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func preflight(r http.Handler, origin, method, headers string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/action", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	req.Header.Set("Access-Control-Request-Headers", headers)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSPreflightAllowsAnyHeaderAndMethod(t *testing.T) {
	r := newCORSRouter(nil)

	for _, headers := range []string{"X-Request-ID", "Authorization", "Content-Type, X-Custom-Trace"} {
		w := preflight(r, "http://game.test", http.MethodPost, headers)
		assert.Equal(t, http.StatusNoContent, w.Code, headers)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	}

	w := preflight(r, "http://game.test", http.MethodDelete, "X-Request-ID")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestCORSExposesRequestID(t *testing.T) {
	r := newCORSRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/action", nil)
	req.Header.Set("Origin", "http://game.test")
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.CanonicalHeaderKey(RequestIDHeader), w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	r := newCORSRouter([]string{"http://game.test"})

	w := preflight(r, "http://game.test", http.MethodPost, "X-Request-ID")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://game.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))

	w = preflight(r, "http://evil.test", http.MethodPost, "X-Request-ID")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
