package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "taskboard/api"
	requestEventName   = "taskboard.api.request"
	requestEventDomain = "app"
	observabilityEvent = "observability.event"

	attrRoute       = "http.route"
	attrMethod      = "http.method"
	attrStatusCode  = "http.status_code"
	attrTotalMillis = "taskboard.request.total_ms"
	attrUserID      = "taskboard.user_id"
	attrErrorStage  = "taskboard.request.error_stage"
	attrErrorMsg    = "error.message"
)

// requestMetrics collects what one request did and reports it once as a span
// and a structured log record.
type requestMetrics struct {
	logger     *log.Logger
	span       trace.Span
	start      time.Time
	method     string
	route      string
	userID     string
	errorStage string
}

func (m *requestMetrics) SetUserID(id string) {
	if m == nil {
		return
	}
	m.userID = id
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

// Log ends the span and writes the observability event.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	severityText, severityNumber := severityForStatus(status, err)
	totalMs := durationToMillis(time.Since(m.start))

	attrs := []attribute.KeyValue{
		attribute.String(attrRoute, m.route),
		attribute.String(attrMethod, m.method),
		attribute.Int(attrStatusCode, status),
		attribute.Float64(attrTotalMillis, totalMs),
	}
	fields := map[string]any{
		attrRoute:       m.route,
		attrMethod:      m.method,
		attrStatusCode:  status,
		attrTotalMillis: totalMs,
	}
	if m.userID != "" {
		attrs = append(attrs, attribute.String(attrUserID, m.userID))
		fields[attrUserID] = m.userID
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String(attrErrorStage, m.errorStage))
		fields[attrErrorStage] = m.errorStage
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorMsg, err.Error()))
		fields[attrErrorMsg] = err.Error()
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		m.span.AddEvent(observabilityEvent, trace.WithAttributes(append(attrs,
			attribute.String("event.name", requestEventName),
			attribute.String("event.domain", requestEventDomain),
			attribute.String("severity_text", severityText),
		)...))
		switch {
		case err != nil:
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	entry := m.logger.WithFields(log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      fields,
	})
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			entry = entry.WithFields(log.Fields{
				"trace_id": sc.TraceID().String(),
				"span_id":  sc.SpanID().String(),
			})
		}
	}
	entry.Info(observabilityEvent)
}

// severityForStatus follows the OpenTelemetry severity numbers for INFO,
// WARN and ERROR.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

// RequestMetrics opens a span for every request and logs one
// observability.event when it completes.
func RequestMetrics(logger *log.Logger) echo.MiddlewareFunc {
	tracer := otel.Tracer(tracerName)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			ctx, span := tracer.Start(req.Context(), "taskboard.api "+req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer))
			c.SetRequest(req.WithContext(ctx))

			m := &requestMetrics{
				logger: logger,
				span:   span,
				start:  time.Now(),
				method: req.Method,
				route:  route,
			}
			c.Set(metricsKey, m)

			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}
			m.Log(status, err)
			return err
		}
	}
}

const metricsKey = "request_metrics"

// metricsFrom returns the request's collector, or nil outside RequestMetrics.
func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsKey).(*requestMetrics)
	return m
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
