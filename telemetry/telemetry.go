// Package telemetry sets up OpenTelemetry tracing and metrics for the notes
// service. Metrics are exported through a Prometheus registry; traces go to
// an OTLP collector when an endpoint is configured.
//
// A nil *Provider is valid and records nothing.
package telemetry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the telemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint is the OTLP/gRPC collector address. Empty disables export.
	OTLPEndpoint string

	// SamplingRate is the trace sampling rate (0.0-1.0).
	SamplingRate float64

	// Registerer receives the metric collector. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// DefaultConfig returns a default telemetry configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "notes-backend",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		SamplingRate:   1.0,
	}
}

// Provider manages the tracer and meter providers and the service metrics.
type Provider struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	decisions metric.Int64Counter
	logins    metric.Int64Counter
	rateLimit metric.Int64Counter
	linkViews metric.Int64Counter
}

// NewProvider creates the providers and installs them as the otel globals.
func NewProvider(cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("environment", cfg.Environment),
	)

	if err := p.setupTracing(res); err != nil {
		return nil, err
	}
	if err := p.setupMetrics(res); err != nil {
		return nil, err
	}
	if err := p.initMetrics(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) setupTracing(res *resource.Resource) error {
	var sampler sdktrace.Sampler
	switch {
	case p.config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case p.config.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(p.config.SamplingRate)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
		sdktrace.WithResource(res),
	}
	if p.config.OTLPEndpoint != "" {
		exporter, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(p.config.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	p.tracerProvider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

func (p *Provider) setupMetrics(res *resource.Resource) error {
	var opts []otelprom.Option
	if p.config.Registerer != nil {
		opts = append(opts, otelprom.WithRegisterer(p.config.Registerer))
	}
	exporter, err := otelprom.New(opts...)
	if err != nil {
		return err
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)
	return nil
}

func (p *Provider) initMetrics() error {
	meter := p.meterProvider.Meter(p.config.ServiceName)

	var err error
	p.decisions, err = meter.Int64Counter(
		"notes.policy.decisions",
		metric.WithDescription("Authorization decisions by resource type, action and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	p.logins, err = meter.Int64Counter(
		"notes.login.attempts",
		metric.WithDescription("Login attempts by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	p.rateLimit, err = meter.Int64Counter(
		"notes.rate_limit.rejections",
		metric.WithDescription("Requests rejected by the rate limiter"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	p.linkViews, err = meter.Int64Counter(
		"notes.public_link.views",
		metric.WithDescription("Successful public note reads"),
		metric.WithUnit("1"),
	)
	return err
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tracerProvider != nil {
		errs = append(errs, p.tracerProvider.Shutdown(ctx))
	}
	if p.meterProvider != nil {
		errs = append(errs, p.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// TracerProvider returns the SDK tracer provider, or the global one when p
// is nil.
func (p *Provider) TracerProvider() trace.TracerProvider {
	if p == nil || p.tracerProvider == nil {
		return otel.GetTracerProvider()
	}
	return p.tracerProvider
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

// RecordDecision counts one authorization decision.
func (p *Provider) RecordDecision(ctx context.Context, resourceType, action string, allowed bool) {
	if p == nil || p.decisions == nil {
		return
	}
	p.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource_type", resourceType),
		attribute.String("action", action),
		attribute.String("outcome", outcome(allowed, "allow", "deny")),
	))
}

// RecordLogin counts one login attempt.
func (p *Provider) RecordLogin(ctx context.Context, success bool) {
	if p == nil || p.logins == nil {
		return
	}
	p.logins.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome(success, "success", "failure")),
	))
}

// RecordRateLimit counts one rejected request.
func (p *Provider) RecordRateLimit(ctx context.Context, scope string) {
	if p == nil || p.rateLimit == nil {
		return
	}
	p.rateLimit.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// RecordLinkView counts one public note read.
func (p *Provider) RecordLinkView(ctx context.Context) {
	if p == nil || p.linkViews == nil {
		return
	}
	p.linkViews.Add(ctx, 1)
}
