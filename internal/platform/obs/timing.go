package obs

import (
	"context"
	"log"
	"oil-collection-service/internal/platform/metrics"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time starts a stage timer; call the returned func with the stage's error
// to log it and record it in the stage metrics.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)
		failed := errp != nil && *errp != nil
		metrics.ObserveStage(name, dur.Seconds(), failed)

		if failed {
			log.Printf("req_id=%s op=%s dur=%dms err=%v", reqID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("req_id=%s op=%s dur=%dms", reqID, name, dur.Milliseconds())
	}
}
