package server

import (
	"bytes"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/logger"
	obsmetrics "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/metrics"
)

const limiterIdleTTL = 10 * time.Minute

// ipRateLimiter keeps one token bucket per client IP. Buckets idle for
// limiterIdleTTL are dropped; rate and burst are read from the devis config
// when a bucket is created.
type ipRateLimiter struct {
	limiters *cache.Cache
	config   *config.DevisConfigHolder
}

func newIPRateLimiter(holder *config.DevisConfigHolder) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: cache.New(limiterIdleTTL, limiterIdleTTL/2),
		config:   holder,
	}
}

func (l *ipRateLimiter) limiter(ip string) *rate.Limiter {
	if v, ok := l.limiters.Get(ip); ok {
		limiter := v.(*rate.Limiter)
		l.limiters.SetDefault(ip, limiter)
		return limiter
	}
	cfg := l.config.Get().RateLimit
	limiter := rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst)
	if err := l.limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		if v, ok := l.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

func (l *ipRateLimiter) Allow(ip string) bool {
	return l.limiter(ip).Allow()
}

// WriteRateLimit rejects mutating requests above the per-IP budget. The
// redis-backed limiter is used when present so replicas share budgets.
func (s *Server) WriteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		allowed := true
		retryAfter := time.Second
		switch {
		case s.sharedLimiter != nil:
			ok, wait, err := s.sharedLimiter.Allow(ctx, ip)
			if err != nil {
				logger.FromContext(ctx).Warn("write rate limit check failed", zap.Error(err))
				AbortWithError(c, ErrServiceUnavailable)
				return
			}
			allowed = ok
			if wait > retryAfter {
				retryAfter = wait
			}
		case s.writeLimiter != nil:
			allowed = s.writeLimiter.Allow(ip)
		}
		if allowed {
			c.Next()
			return
		}

		route := normalizeRoute(c)
		logger.FromContext(ctx).Warn("write rate limit exceeded",
			zap.String("route", route),
			zap.String("client_ip", ip),
		)
		s.obsMetrics.RecordRateLimitDenied(ctx, route)

		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		AbortWithError(c, ErrRateLimited)
	}
}

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheResponse serves repeated GETs of read-only resources from memory.
func (s *Server) CacheResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || s.responseCache == nil {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if v, found := s.responseCache.Get(key); found {
			cached := v.(cachedResponse)
			for k, values := range cached.headers {
				c.Writer.Header()[k] = values
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			_, _ = c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		w := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		if w.Status() >= http.StatusOK && w.Status() < http.StatusMultipleChoices {
			ttl := s.devisConfig.Get().CatalogCacheTTL
			if ttl <= 0 {
				ttl = cache.DefaultExpiration
			}
			s.responseCache.Set(key, cachedResponse{
				status:  w.Status(),
				headers: w.Header().Clone(),
				body:    append([]byte(nil), w.body.Bytes()...),
			}, ttl)
		}
	}
}

// HTTPMetrics records request counts and latency per route.
func HTTPMetrics(m *obsmetrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.RecordHTTPRequest(c.Request.Context(), c.Request.Method, normalizeRoute(c), c.Writer.Status(), time.Since(start))
	}
}

func normalizeRoute(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	route := strings.TrimSpace(c.FullPath())
	if route == "" {
		route = "unknown"
	}
	return route
}

func waitRequested(c *gin.Context) (bool, error) {
	wait, err := parseOptionalBool(c.Query("wait"))
	if err != nil {
		return false, newValidationError("wait", "invalid_wait", "wait must be a boolean")
	}
	return wait != nil && *wait, nil
}

func contentDisposition(filename string) string {
	return "attachment; filename=" + strconv.Quote(filename)
}
