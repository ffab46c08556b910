// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName identifies this package's OpenTelemetry instruments.
const instrumentationName = "rivaas.dev/dispatch"

// MetricsRecorder is a built-in ObservabilityRecorder backed by the
// OpenTelemetry metric SDK with a Prometheus exporter. It records request
// counts and durations labeled by method, route pattern and status, creates
// a span per request through the global tracer provider, and writes access
// logs through the configured slog logger.
//
// The Prometheus registry is private to the recorder; expose it by mounting
// PrometheusHandler on a route:
//
//	rec, err := dispatch.NewMetricsRecorder()
//	r := dispatch.MustNew(dispatch.WithObservability(rec))
//	r.GET("/metrics", rec.PrometheusHandler())
type MetricsRecorder struct {
	provider *sdkmetric.MeterProvider
	registry *promclient.Registry
	handler  http.Handler
	tracer   trace.Tracer
	logger   *slog.Logger

	requests metric.Int64Counter
	duration metric.Float64Histogram

	excludePaths map[string]bool
}

// MetricsOption configures a MetricsRecorder.
type MetricsOption func(*MetricsRecorder)

// WithMetricsLogger sets the logger used for access log lines. Defaults to
// the no-op logger (no access logging).
func WithMetricsLogger(logger *slog.Logger) MetricsOption {
	return func(m *MetricsRecorder) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithExcludePaths excludes exact request paths (e.g. "/health",
// "/metrics") from metrics, spans and access logs. Context enrichment still
// applies on excluded paths.
func WithExcludePaths(paths ...string) MetricsOption {
	return func(m *MetricsRecorder) {
		for _, p := range paths {
			m.excludePaths[p] = true
		}
	}
}

// NewMetricsRecorder creates a recorder with a private Prometheus registry
// and a dedicated meter provider. It fails if the exporter or instruments
// cannot be created.
func NewMetricsRecorder(opts ...MetricsOption) (*MetricsRecorder, error) {
	m := &MetricsRecorder{
		registry:     promclient.NewRegistry(),
		tracer:       otel.Tracer(instrumentationName),
		logger:       noopLogger,
		excludePaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(m.registry))
	if err != nil {
		return nil, fmt.Errorf("create Prometheus exporter: %w", err)
	}
	m.provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := m.provider.Meter(instrumentationName)

	m.requests, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}
	m.duration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m, nil
}

// PrometheusHandler returns the scrape handler for the recorder's private
// registry.
func (m *MetricsRecorder) PrometheusHandler() http.Handler {
	return m.handler
}

// Shutdown flushes and stops the meter provider.
func (m *MetricsRecorder) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// requestState carries per-request observability state between hooks.
type requestState struct {
	start  time.Time
	method string
	span   trace.Span
}

// OnRequestStart implements ObservabilityRecorder.
func (m *MetricsRecorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	ctx, span := m.tracer.Start(ctx, req.Method+" route",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
		),
	)
	if m.excludePaths[req.URL.Path] {
		// Excluded: the enriched context still propagates, but no metrics,
		// span updates, or access logs are recorded.
		span.End()
		return ctx, nil
	}
	return ctx, &requestState{start: time.Now(), method: req.Method, span: span}
}

// WrapResponseWriter implements ObservabilityRecorder.
func (m *MetricsRecorder) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	if state == nil {
		return w
	}
	return &responseWriter{ResponseWriter: w}
}

// OnRequestEnd implements ObservabilityRecorder.
func (m *MetricsRecorder) OnRequestEnd(ctx context.Context, state any, writer http.ResponseWriter, routePattern string) {
	rs, ok := state.(*requestState)
	if !ok {
		return
	}

	status := http.StatusOK
	var size int64
	if info, ok := writer.(ResponseInfo); ok {
		status = info.StatusCode()
		size = info.Size()
	}
	elapsed := time.Since(rs.start)

	attrs := metric.WithAttributes(
		attribute.String("http.method", rs.method),
		attribute.String("http.route", routePattern),
		attribute.Int("http.status_code", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)

	rs.span.SetName(rs.method + " " + routePattern)
	rs.span.SetAttributes(
		attribute.String("http.route", routePattern),
		attribute.Int("http.status_code", status),
	)
	rs.span.End()

	m.logger.Info("request",
		"route", routePattern,
		"status", strconv.Itoa(status),
		"bytes", size,
		"duration", elapsed,
	)
}
