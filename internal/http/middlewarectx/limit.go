package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/identity-service/internal/http/response"
)

// DefaultMaxClients — сколько адресов IPLimiter отслеживает одновременно.
const DefaultMaxClients = 100_000

// IPLimiter хранит отдельный rate.Limiter на каждый адрес клиента.
// Адреса хранятся в ограниченном LRU и удаляются после простоя,
// за который лимитер успел бы полностью восстановиться.
type IPLimiter struct {
	mu         sync.Mutex
	clients    *expirable.LRU[string, *rate.Limiter]
	rps        rate.Limit
	burst      int
	maxClients int
	idleTTL    time.Duration
}

// LimiterOption настраивает IPLimiter.
type LimiterOption func(*IPLimiter)

// WithMaxClients ограничивает число отслеживаемых адресов.
func WithMaxClients(n int) LimiterOption {
	return func(l *IPLimiter) { l.maxClients = n }
}

// WithIdleTTL задаёт время простоя, после которого адрес забывается.
func WithIdleTTL(d time.Duration) LimiterOption {
	return func(l *IPLimiter) { l.idleTTL = d }
}

// NewIPLimiter создаёт IPLimiter. rps <= 0 отключает ограничение.
func NewIPLimiter(rps float64, burst int, opts ...LimiterOption) *IPLimiter {
	l := &IPLimiter{
		rps:        rate.Limit(rps),
		burst:      burst,
		maxClients: DefaultMaxClients,
		idleTTL:    refillTime(rps, burst),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rps > 0 {
		l.clients = expirable.NewLRU[string, *rate.Limiter](l.maxClients, nil, l.idleTTL)
	}
	return l
}

// Allow сообщает, можно ли обработать ещё один запрос с адреса ip.
func (l *IPLimiter) Allow(ip string) bool {
	if l.rps <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.clients.Get(ip)
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
	}
	// Add продлевает срок жизни записи при каждом запросе.
	l.clients.Add(ip, lim)
	l.mu.Unlock()
	return lim.Allow()
}

// Len возвращает число отслеживаемых адресов.
func (l *IPLimiter) Len() int {
	if l.clients == nil {
		return 0
	}
	return len(l.clients.Keys())
}

// refillTime — время полного восстановления burst, но не меньше минуты.
func refillTime(rps float64, burst int) time.Duration {
	if rps <= 0 {
		return time.Minute
	}
	d := time.Duration(float64(burst) / rps * float64(time.Second))
	if d < time.Minute {
		return time.Minute
	}
	return d
}

// RateLimitMiddleware отклоняет запросы сверх лимита с кодом 429.
func RateLimitMiddleware(limiter *IPLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				log.Warn("too many requests", slog.String("ip", ip), slog.String("path", r.URL.Path))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
