package middleware

import (
	"net/http"
	"time"

	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/metrics"
)

// Metrics records request counts and latency per method and status class.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			m.ObserveRequest(r.Method, recorder.status, start)
		})
	}
}
