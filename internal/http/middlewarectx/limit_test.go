package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/identity-service/internal/http/middlewarectx"
)

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewIPLimiter(0.001, 2)
	h := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"), "other clients have a separate limiter")
}

func TestIPLimiter_Disabled(t *testing.T) {
	limiter := middlewarectx.NewIPLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"))
	}
}

func TestIPLimiter_BoundedClients(t *testing.T) {
	limiter := middlewarectx.NewIPLimiter(1, 1, middlewarectx.WithMaxClients(2))
	for i := range 10 {
		limiter.Allow(fmt.Sprintf("10.0.1.%d", i))
	}
	assert.Equal(t, 2, limiter.Len())

	// 10.0.1.0 was evicted and starts over with a full bucket.
	assert.True(t, limiter.Allow("10.0.1.0"))
}

func TestIPLimiter_ForgetsIdleClients(t *testing.T) {
	limiter := middlewarectx.NewIPLimiter(0.001, 1, middlewarectx.WithIdleTTL(50*time.Millisecond))
	require.True(t, limiter.Allow("10.0.2.1"))
	require.False(t, limiter.Allow("10.0.2.1"))
	assert.Equal(t, 1, limiter.Len())

	assert.Eventually(t, func() bool { return limiter.Len() == 0 }, time.Second, 10*time.Millisecond)
}
