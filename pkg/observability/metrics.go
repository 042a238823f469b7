// Copyright 2025 Kadir Pekel
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

// Package observability provides metrics instrumentation for agentui.
//
// Metrics are recorded through OpenTelemetry and exposed in Prometheus
// format via the exporter's registry.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Recorder records bundle and event metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// BundleBuilt records a completed bundle build attempt.
	BundleBuilt(ctx context.Context, graphName string, duration time.Duration, success bool)

	// BundleCacheHit records a bundle served from cache.
	BundleCacheHit(ctx context.Context, graphName string)

	// EventEmitted records a UI event enqueued for a session.
	EventEmitted(ctx context.Context, kind string)

	// EventDropped records an event discarded for a missing session.
	EventDropped(ctx context.Context, kind string)

	// StreamOpened records a new SSE subscription.
	StreamOpened(ctx context.Context)

	// StreamClosed records a terminated SSE subscription.
	StreamClosed(ctx context.Context)
}

// Metrics is the OpenTelemetry-backed Recorder.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	buildDuration metric.Float64Histogram
	buildTotal    metric.Int64Counter
	cacheHits     metric.Int64Counter
	events        metric.Int64Counter
	drops         metric.Int64Counter
	streams       metric.Int64UpDownCounter
}

// Interface guard
var _ Recorder = (*Metrics)(nil)

// NewMetrics creates a Metrics recorder with its own Prometheus registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("agentui")

	m := &Metrics{registry: registry, provider: provider}

	if m.buildDuration, err = meter.Float64Histogram(
		"agentui_bundle_build_duration_seconds",
		metric.WithDescription("Duration of esbuild bundle builds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.buildTotal, err = meter.Int64Counter(
		"agentui_bundle_builds_total",
		metric.WithDescription("Total bundle build attempts"),
	); err != nil {
		return nil, err
	}

	if m.cacheHits, err = meter.Int64Counter(
		"agentui_bundle_cache_hits_total",
		metric.WithDescription("Bundles served from the in-memory cache"),
	); err != nil {
		return nil, err
	}

	if m.events, err = meter.Int64Counter(
		"agentui_events_emitted_total",
		metric.WithDescription("UI events enqueued for delivery"),
	); err != nil {
		return nil, err
	}

	if m.drops, err = meter.Int64Counter(
		"agentui_events_dropped_total",
		metric.WithDescription("UI events dropped for missing sessions"),
	); err != nil {
		return nil, err
	}

	if m.streams, err = meter.Int64UpDownCounter(
		"agentui_streams_active",
		metric.WithDescription("Currently attached SSE subscribers"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// Handler returns the HTTP handler serving Prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

func (m *Metrics) BundleBuilt(ctx context.Context, graphName string, duration time.Duration, success bool) {
	attrs := metric.WithAttributes(
		attribute.String("graph_name", graphName),
		attribute.Bool("success", success),
	)
	m.buildDuration.Record(ctx, duration.Seconds(), attrs)
	m.buildTotal.Add(ctx, 1, attrs)
}

func (m *Metrics) BundleCacheHit(ctx context.Context, graphName string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("graph_name", graphName)))
}

func (m *Metrics) EventEmitted(ctx context.Context, kind string) {
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) EventDropped(ctx context.Context, kind string) {
	m.drops.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) StreamOpened(ctx context.Context) {
	m.streams.Add(ctx, 1)
}

func (m *Metrics) StreamClosed(ctx context.Context) {
	m.streams.Add(ctx, -1)
}
