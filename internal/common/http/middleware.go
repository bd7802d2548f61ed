package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/httpmetrics"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
)

const (
	traceIDHeader   = "X-Trace-ID"
	requestIDHeader = "X-Request-ID"
	maxTraceIDLen   = 64
)

// The API only ever returns JSON, so nothing may be framed, sniffed or cached.
var apiHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Cache-Control":           "no-store",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none';",
}

// BuildBaseHandler wraps the routed handler with the chain every request
// passes through, outermost first: headers, panic recovery, trace id, body
// limit, request metrics.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	collector := httpmetrics.New()
	limit := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	recovery := RecoveryMiddleware(log)

	return SecurityHeadersMiddleware(recovery(TraceIDMiddleware(limit(collector.Wrap(handler)))))
}

func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range apiHeaders {
			w.Header().Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}

// MaxRequestSizeMiddleware rejects declared oversize bodies up front and caps
// the rest, so ReadJSON sees a MaxBytesError.
func MaxRequestSizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeDomainError(w, r, commonerrors.ErrRequestTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func RecoveryMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				metrics.PanicsRecoveredTotal.WithLabelValues(httpmetrics.NormalizePath(r.URL.Path)).Inc()
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"method": r.Method,
					"action": "panic_recovered",
				}).Errorf("panic recovered: %v\n%s", rec, debug.Stack())

				HandleError(w, r, commonerrors.ErrInternalError.WithCause(fmt.Errorf("panic: %v", rec)), log)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// TraceIDMiddleware reuses a caller supplied X-Trace-ID or X-Request-ID when
// it is short and made of safe characters, and mints a new one otherwise.
func TraceIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = r.Header.Get(requestIDHeader)
		}
		if !validTraceID(traceID) {
			traceID = uuid.NewString()
		}

		w.Header().Set(traceIDHeader, traceID)

		ctx := context.WithValue(r.Context(), constants.TraceIDKey, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validTraceID keeps ids that end up in log lines free of spaces and quotes.
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
