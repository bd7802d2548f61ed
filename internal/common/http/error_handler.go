package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/httpmetrics"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
)

type ErrorHandler struct {
	log *logger.Logger
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	traceID := getTraceIDFromContext(ctx)

	switch {
	case errors.Is(err, context.Canceled):
		h.log.WithFields(ctx, logger.Fields{
			"path":   r.URL.Path,
			"action": "request_canceled",
		}).Debug("client went away")
		return
	case errors.Is(err, context.DeadlineExceeded) && !commonerrors.IsDomainError(err):
		err = commonerrors.ErrRequestTimeout.WithCause(err)
	}

	if domainErr, ok := commonerrors.AsDomainError(err); ok {
		h.handleDomainError(w, r, domainErr, traceID)
		return
	}

	h.log.WithFields(ctx, logger.Fields{
		"path":   r.URL.Path,
		"action": "unhandled_error",
	}).Errorf("unhandled error: %v", err)

	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(http.StatusInternalServerError),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	WriteErrorEnvelope(
		w,
		commonerrors.ErrInternalError.HTTPStatus(),
		commonerrors.ErrInternalError.Code(),
		commonerrors.ErrInternalError.Message(),
		nil,
		traceID,
	)
}

func (h *ErrorHandler) handleDomainError(w http.ResponseWriter, r *http.Request, domainErr commonerrors.DomainError, traceID string) {
	ctx := r.Context()
	status := domainErr.HTTPStatus()

	fields := logger.Fields{
		"error_code": domainErr.Code(),
		"category":   string(domainErr.Category()),
		"status":     status,
		"action":     "domain_error",
	}

	if status >= http.StatusInternalServerError {
		h.log.WithFields(ctx, fields).Errorf("domain error: %s", domainErr.Error())
	} else if h.log.ShouldLog(logger.DEBUG) {
		h.log.WithFields(ctx, fields).Debugf("domain error: %s", domainErr.Error())
	}

	metrics.DomainErrorsTotal.WithLabelValues(
		string(domainErr.Category()),
		domainErr.Code(),
		strconv.Itoa(status),
	).Inc()

	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(status),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	WriteErrorEnvelope(w, status, domainErr.Code(), domainErr.Message(), nil, traceID)
}

// writeDomainError writes the envelope without logging, for middleware that
// rejects a request before any handler runs.
func writeDomainError(w http.ResponseWriter, r *http.Request, domainErr commonerrors.DomainError) {
	metrics.DomainErrorsTotal.WithLabelValues(
		string(domainErr.Category()),
		domainErr.Code(),
		strconv.Itoa(domainErr.HTTPStatus()),
	).Inc()
	WriteErrorEnvelope(w, domainErr.HTTPStatus(), domainErr.Code(), domainErr.Message(), nil, getTraceIDFromContext(r.Context()))
}

func HandleError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	NewErrorHandler(log).HandleError(w, r, err)
}

func getTraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, ok := ctx.Value(constants.TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
