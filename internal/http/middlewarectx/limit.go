package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
)

// limiterIdleTTL через сколько простоя ключ может быть удалён из Limiter.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter хранит отдельный rate.Limiter для каждого пользователя или адреса.
// Простаивающие ключи с восстановленным запасом периодически удаляются.
type Limiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiter создает Limiter с rps запросов в секунду и запасом burst.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		visitors:  make(map[string]*visitor),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleTTL:   limiterIdleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow сообщает, можно ли обработать ещё один запрос ключа key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.lim.AllowN(now, 1)
}

// sweep удаляет ключи, простоявшие дольше idleTTL. Ключ с неполным запасом
// остаётся, иначе удаление сбросило бы ему лимит.
func (l *Limiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) < l.idleTTL {
			continue
		}
		if v.lim.TokensAt(now) < float64(l.burst) {
			continue
		}
		delete(l.visitors, key)
	}
	l.lastSweep = now
}

// RateLimitMiddleware ограничивает частоту запросов по id пользователя из сессии,
// для анонимных запросов по адресу клиента.
func RateLimitMiddleware(limiter *Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := r.Context().Value(UserID).(string)
			if !ok || key == "" {
				key = clientIP(r)
			}
			if !limiter.Allow(key) {
				log.Warn("too many requests", slog.String("key", key))
				response.Fail(w, r, http.StatusTooManyRequests, response.MsgTooMany)
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
