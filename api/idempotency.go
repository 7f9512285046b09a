package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/darshanhv296/Flight-Management-System/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	idempotencyHeader       = "Idempotency-Key"
	idempotencyReplayHeader = "Idempotent-Replayed"
	maxCapturedBody         = 1 << 20
)

// IdempotencyStore is implemented by cache.IdempotencyStore.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (*cache.StoredResponse, error)
	Reserve(ctx context.Context, key, requestID string) (bool, error)
	Release(ctx context.Context, key string) error
	Save(ctx context.Context, key string, resp cache.StoredResponse) error
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Keys are scoped to the method, route and caller. Requests without the header
// pass through, and so does everything when store is nil.
func Idempotency(store IdempotencyStore, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if store == nil || raw == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := scopedKey(c, raw)
		entry := log.WithFields(logrus.Fields{"idempotency_key": raw, "request_id": GetRequestID(c)})

		stored, err := store.Lookup(ctx, key)
		if err != nil {
			entry.WithError(err).Warn("idempotency lookup failed, processing request")
			c.Next()
			return
		}
		if stored != nil {
			replay(c, stored)
			return
		}

		reserved, err := store.Reserve(ctx, key, GetRequestID(c))
		if err != nil {
			entry.WithError(err).Warn("idempotency reserve failed, processing request")
			c.Next()
			return
		}
		if !reserved {
			respondError(c, http.StatusConflict, "request_in_progress", "a request with this idempotency key is in progress")
			return
		}
		defer func() {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				entry.WithError(err).Warn("idempotency release failed")
			}
		}()

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// Server failures are not replayed so that a retry can succeed.
		if w.Status() >= http.StatusInternalServerError || w.overflow {
			return
		}
		resp := cache.StoredResponse{
			Status:  w.Status(),
			Body:    w.body.Bytes(),
			Headers: map[string]string{"Content-Type": w.Header().Get("Content-Type")},
		}
		if err := store.Save(context.WithoutCancel(ctx), key, resp); err != nil {
			entry.WithError(err).Warn("idempotency save failed")
		}
	}
}

func scopedKey(c *gin.Context, raw string) string {
	caller := "guest"
	if p := principal(c); p.Authenticated() {
		caller = p.UserID
	}
	return fmt.Sprintf("%s:%s:%s:%s", c.Request.Method, c.FullPath(), caller, raw)
}

func replay(c *gin.Context, stored *cache.StoredResponse) {
	for k, v := range stored.Headers {
		if v != "" {
			c.Header(k, v)
		}
	}
	c.Header(idempotencyReplayHeader, "true")
	c.Status(stored.Status)
	_, _ = c.Writer.Write(stored.Body)
	c.Abort()
}

type captureWriter struct {
	gin.ResponseWriter
	body     bytes.Buffer
	overflow bool
}

func (w *captureWriter) capture(n int, write func()) {
	if w.body.Len()+n > maxCapturedBody {
		w.overflow = true
		return
	}
	write()
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.capture(len(b), func() { w.body.Write(b) })
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.capture(len(s), func() { w.body.WriteString(s) })
	return w.ResponseWriter.WriteString(s)
}
