package httpmetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
)

type Collector struct {
	now func() time.Time
}

// responseRecorder remembers the status and body size the handler produced.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func New() *Collector {
	return &Collector{now: time.Now}
}

func (c *Collector) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := c.now()
		path := NormalizePath(r.URL.Path)

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		class := StatusClass(rec.status)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, class).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, path, class).Observe(c.now().Sub(start).Seconds())
		metrics.HTTPResponseSizeBytes.WithLabelValues(path).Observe(float64(rec.bytes))
	})
}

// StatusClass folds a status code into its "2xx".."5xx" label.
func StatusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
