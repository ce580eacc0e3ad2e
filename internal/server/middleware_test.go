package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func guardedRouter(auth *Authenticator, handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(AuthMiddleware(auth))
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"scope": ClaimsFrom(c).Scope})
	})
	router.GET("/test/:id", handlers...)
	return router
}

func get(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuthenticator("test-api-key", "test-secret")
	router := guardedRouter(auth)
	readToken, err := auth.IssueToken(ScopeRead, nil, time.Hour)
	require.NoError(t, err)

	w := get(router, "/test/x", "test-api-key")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ScopeWrite)

	w = get(router, "/test/x", readToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ScopeRead)

	assert.Equal(t, http.StatusUnauthorized, get(router, "/test/x", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/test/x", "invalid-token").Code)
}

func TestRequireWrite(t *testing.T) {
	auth := NewAuthenticator("test-api-key", "test-secret")
	router := guardedRouter(auth, RequireWrite())
	readToken, _ := auth.IssueToken(ScopeRead, nil, time.Hour)
	writeToken, _ := auth.IssueToken(ScopeWrite, nil, time.Hour)

	assert.Equal(t, http.StatusForbidden, get(router, "/test/x", readToken).Code)
	assert.Equal(t, http.StatusOK, get(router, "/test/x", writeToken).Code)
	assert.Equal(t, http.StatusOK, get(router, "/test/x", "test-api-key").Code)
}

func TestRequireLocation(t *testing.T) {
	auth := NewAuthenticator("test-api-key", "test-secret")
	router := guardedRouter(auth, RequireLocation(func(c *gin.Context) string {
		if id := c.Param("id"); id != "none" {
			return id
		}
		return ""
	}))
	scoped, _ := auth.IssueToken(ScopeRead, []string{"loc-1"}, time.Hour)

	assert.Equal(t, http.StatusOK, get(router, "/test/loc-1", scoped).Code)
	assert.Equal(t, http.StatusForbidden, get(router, "/test/loc-2", scoped).Code)
	assert.Equal(t, http.StatusOK, get(router, "/test/none", scoped).Code)
	assert.Equal(t, http.StatusOK, get(router, "/test/loc-2", "test-api-key").Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(5)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("test-client"))
	}
	assert.False(t, limiter.Allow("test-client"))

	// buckets are per client
	assert.True(t, limiter.Allow("another-client"))
}

func TestRateLimiter_DropsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1)
	limiter.idleTTL = 0

	assert.True(t, limiter.Allow("a"))
	time.Sleep(time.Millisecond)
	assert.True(t, limiter.Allow("b"))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.clients, "a")
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(2)

	router := gin.New()
	router.Use(RateLimitMiddleware(limiter))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"*"}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_SpecificOrigins(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://allowed.com", "http://also-allowed.com"}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Allowed origin
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://allowed.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://allowed.com", w.Header().Get("Access-Control-Allow-Origin"))

	// Not allowed origin
	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://not-allowed.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryMiddleware())
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	req := httptest.NewRequest("GET", "/panic", nil)
	w := httptest.NewRecorder()

	// Should not panic
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, req)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
