package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/darshanhv296/Flight-Management-System/internal/auth"
	"github.com/darshanhv296/Flight-Management-System/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// SessionParser turns a bearer token into a session view.
type SessionParser interface {
	Parse(raw string) (auth.Session, error)
}

// RequestID keeps the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes one line per request.
func Logger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": GetRequestID(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"client_ip":  c.ClientIP(),
		})
		if p := auth.FromContext(c.Request.Context()); p.Authenticated() {
			entry = entry.WithFields(logrus.Fields{"user_id": p.UserID, "role": p.Kind.String()})
		}
		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last()).Error("request failed")
			return
		}
		entry.Info("request handled")
	}
}

// Metrics counts requests by route template rather than raw path.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Authenticate attaches the caller's principal to the request context.
// Requests without a bearer token continue as guests; a bad token is rejected.
func Authenticate(parser SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), auth.Anonymous))
			c.Next()
			return
		}

		session, err := parser.Parse(raw)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid_token", err.Error())
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), auth.Classify(session)))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CORS allows the configured origins, or any origin when none are configured.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader, idempotencyReplayHeader}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.MaxAge = 24 * time.Hour
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func principal(c *gin.Context) auth.Principal {
	return auth.FromContext(c.Request.Context())
}
