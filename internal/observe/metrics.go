// Package observe provides application-wide observability primitives for
// VisionAid: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all VisionAid metrics.
const meterName = "github.com/DenitaMariaJM/VisionAid-Personalized-voice-assistance-for-the-visually-impaired"

// Metrics holds all OpenTelemetry metric instruments for the assistant.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
//
// Metrics implements the engine's Recorder interface, so a *Metrics can be
// handed straight to the conversation engine.
type Metrics struct {
	// --- Latency histograms ---

	// TurnDuration tracks commit-to-response-done latency per turn. Use with
	// attribute: attribute.String("source", "realtime"|"fallback").
	TurnDuration metric.Float64Histogram

	// TranscriptWaitDuration tracks how long the engine waited for the
	// session's transcript of a committed utterance.
	TranscriptWaitDuration metric.Float64Histogram

	// VisionDuration tracks camera capture plus scene description latency.
	VisionDuration metric.Float64Histogram

	// --- Counters ---

	// FallbackTranscriptions counts turns recovered by local transcription.
	FallbackTranscriptions metric.Int64Counter

	// DroppedCommands counts utterances rejected before a response was
	// requested. Use with attribute: attribute.String("reason", ...).
	DroppedCommands metric.Int64Counter

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live realtime sessions. For a
	// single-user assistant this is 0 or 1; a flatline at 0 after startup
	// means the session keeps dying.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("visionaid.turn.duration",
		metric.WithDescription("Commit-to-response-done latency per turn, by source."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptWaitDuration, err = m.Float64Histogram("visionaid.transcript.wait",
		metric.WithDescription("Time spent waiting for the session transcript of a committed utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.VisionDuration, err = m.Float64Histogram("visionaid.vision.duration",
		metric.WithDescription("Camera capture plus scene description latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.FallbackTranscriptions, err = m.Int64Counter("visionaid.fallback.transcriptions",
		metric.WithDescription("Turns recovered by local transcription after a transcript timeout."),
	); err != nil {
		return nil, err
	}
	if met.DroppedCommands, err = m.Int64Counter("visionaid.command.dropped",
		metric.WithDescription("Utterances rejected before a response was requested, by reason."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("visionaid.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("visionaid.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("visionaid.active_sessions",
		metric.WithDescription("Number of live realtime sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("visionaid.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// ─── Engine Recorder implementation ───────────────────────────────────────────

// TurnCompleted records a finished exchange and its commit-to-done latency.
func (m *Metrics) TurnCompleted(source string, latency time.Duration) {
	m.TurnDuration.Record(context.Background(), latency.Seconds(),
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// TranscriptWait records how long the engine waited for a transcript.
func (m *Metrics) TranscriptWait(d time.Duration) {
	m.TranscriptWaitDuration.Record(context.Background(), d.Seconds())
}

// FallbackUsed counts a local transcription taking over a turn.
func (m *Metrics) FallbackUsed() {
	m.FallbackTranscriptions.Add(context.Background(), 1)
}

// CommandDropped counts an utterance rejected before response creation.
func (m *Metrics) CommandDropped(reason string) {
	m.DroppedCommands.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// ─── Provider helpers ─────────────────────────────────────────────────────────

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
