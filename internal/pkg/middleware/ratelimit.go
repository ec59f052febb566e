package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"garagesale/internal/pkg/cache"
	"garagesale/internal/pkg/logger"
)

// RateLimiter aplica um limite de requisições por IP em uma janela fixa,
// usando contadores no Redis.
type RateLimiter struct {
	cache  cache.Client
	log    logger.Logger
	limit  int
	window time.Duration
}

// NewRateLimiter cria o rate limiter.
func NewRateLimiter(cacheClient cache.Client, log logger.Logger, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		cache:  cacheClient,
		log:    log,
		limit:  limit,
		window: window,
	}
}

// Middleware é o http.Handler de limitação. Se o Redis estiver indisponível,
// a requisição passa (fail-open): limitar é proteção, não dependência dura.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		key := fmt.Sprintf("ratelimit:%s", ip)

		count, err := rl.cache.GetInt(r.Context(), key)
		if err != nil && err != cache.ErrCacheMiss {
			rl.log.Warn("Rate limiter indisponível, liberando requisição", map[string]interface{}{
				"ip":    ip,
				"error": err.Error(),
			})
			next.ServeHTTP(w, r)
			return
		}

		if err == cache.ErrCacheMiss {
			// Primeira requisição da janela: cria o contador com expiração.
			if setErr := rl.cache.Set(r.Context(), key, 1, rl.window); setErr != nil {
				rl.log.Warn("Falha ao iniciar contador de rate limit", map[string]interface{}{
					"ip":    ip,
					"error": setErr.Error(),
				})
			}
			count = 1
		} else {
			if incrErr := rl.cache.Incr(r.Context(), key); incrErr != nil {
				rl.log.Warn("Falha ao incrementar contador de rate limit", map[string]interface{}{
					"ip":    ip,
					"error": incrErr.Error(),
				})
			}
			count++
		}

		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > rl.limit {
			rl.log.Warn("Requisição bloqueada por rate limit", map[string]interface{}{
				"ip":    ip,
				"count": count,
			})
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"code":429,"category":"RATE_LIMITED","message":"Limite de requisições excedido. Tente novamente em instantes."}`)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extrai o IP do cliente, respeitando o X-Forwarded-For de proxies.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
