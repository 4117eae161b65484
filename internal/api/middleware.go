package api

import (
	"log"
	"net/http"
	"oil-collection-service/internal/platform/metrics"
	"oil-collection-service/internal/platform/obs"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// statusWriter captures the final HTTP status code and number of bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Record implicit 200 responses when handlers write without calling WriteHeader.
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// loggingMiddleware tags each request with a request id, then logs and counts
// the response. An incoming X-Request-ID is reused.
func loggingMiddleware(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		sw := &statusWriter{ResponseWriter: w}
		mux.ServeHTTP(sw, r.WithContext(obs.WithRequestID(r.Context(), reqID)))

		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, routeLabel(mux, r), strconv.Itoa(sw.status)).Inc()

		log.Printf(
			"req_id=%s method=%s path=%s status=%d bytes=%d dur=%dms",
			reqID, r.Method, r.URL.RequestURI(), sw.status, sw.bytes, time.Since(start).Milliseconds(),
		)
	})
}

// routeLabel names the registered pattern serving r, or "other", so unknown
// paths share one metrics series.
func routeLabel(mux *http.ServeMux, r *http.Request) string {
	if _, pattern := mux.Handler(r); pattern != "" {
		return pattern
	}
	return "other"
}
