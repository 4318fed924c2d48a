package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	psotel "github.com/omargawdat/pii-shield/internal/otel"
)

const meterName = "github.com/omargawdat/pii-shield/internal/pipeline"

var (
	matchCounter      metric.Int64Counter
	durationHistogram metric.Float64Histogram
	metricsOnce       sync.Once
	metricsRegistered bool
)

func initMetrics() {
	meter := psotel.Meter(meterName)
	var err error
	matchCounter, err = meter.Int64Counter(
		"piishield.matches",
		metric.WithDescription("PII matches by kind and detector"),
	)
	if err != nil {
		return
	}
	durationHistogram, err = meter.Float64Histogram(
		"piishield.process.duration",
		metric.WithDescription("Pipeline run duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	metricsRegistered = true
}

func recordReport(ctx context.Context, r *Report, operation string) {
	metricsOnce.Do(initMetrics)
	if !metricsRegistered {
		return
	}
	for _, m := range r.Matches {
		matchCounter.Add(ctx, 1, metric.WithAttributes(
			psotel.PIIKind.String(string(m.Kind)),
			psotel.PIIDetector.String(m.Source),
			attribute.Bool("rejected", r.Rejected(m)),
		))
	}
	durationHistogram.Record(ctx, float64(r.ProcessingTime)/float64(time.Millisecond),
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("strategy", r.Strategy),
		))
}
