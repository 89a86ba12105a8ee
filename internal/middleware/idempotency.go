package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/case-billing-api/internal/constants"
	apierrors "github.com/yukikurage/case-billing-api/internal/errors"
	"github.com/yukikurage/case-billing-api/internal/idempotency"
	applog "github.com/yukikurage/case-billing-api/internal/logger"
)

const maxIdempotencyKeyLength = 255

// bodyRecorder keeps a copy of everything written to the response
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency makes POST requests carrying an Idempotency-Key header execute
// once. Successful responses are stored for ttl and replayed to retries; a
// retry that arrives while the first request is running gets 409. Requests
// without the header pass through untouched. Runs after RequireOrganizationScope.
func Idempotency(store idempotency.Store, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = constants.DefaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(constants.IdempotencyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			apierrors.BadRequest(c, "Idempotency-Key is too long")
			c.Abort()
			return
		}

		scope, ok := MustScope(c)
		if !ok {
			return
		}

		storeKey := fmt.Sprintf("idempotency:%d:%d:%s:%s:%s",
			scope.OrganizationID, scope.UserID, c.Request.Method, c.Request.URL.Path, key)
		ctx := context.WithoutCancel(c.Request.Context())

		record, err := store.Reserve(ctx, storeKey, constants.IdempotencyLockTTL)
		if err != nil {
			if errors.Is(err, idempotency.ErrInProgress) {
				apierrors.Conflict(c, "A request with this Idempotency-Key is already in progress")
			} else {
				apierrors.InternalError(c, err)
			}
			c.Abort()
			return
		}
		if record != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(record.StatusCode, record.ContentType, record.Body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		logger := applog.FromContext(c)
		status := recorder.Status()
		if status >= 200 && status < 300 {
			saved := idempotency.Record{
				StatusCode:  status,
				ContentType: recorder.Header().Get("Content-Type"),
				Body:        recorder.body.Bytes(),
			}
			if err := store.Save(ctx, storeKey, saved, ttl); err != nil {
				logger.Error().Err(err).Str("key", storeKey).Msg("Failed to save idempotent response")
			}
			return
		}

		if err := store.Release(ctx, storeKey); err != nil {
			logger.Error().Err(err).Str("key", storeKey).Msg("Failed to release idempotency key")
		}
	}
}
