package llm

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	psotel "github.com/omargawdat/pii-shield/internal/otel"
)

const meterName = "github.com/omargawdat/pii-shield/internal/llm"

var (
	costHistogram     metric.Float64Histogram
	callCounter       metric.Int64Counter
	metricsOnce       sync.Once
	metricsRegistered bool
)

func initMetrics() {
	meter := psotel.Meter(meterName)
	var err error
	costHistogram, err = meter.Float64Histogram(
		"piishield.llm.cost",
		metric.WithDescription("Estimated cost in EUR per LLM validation call"),
		metric.WithUnit("eur"),
	)
	if err != nil {
		return
	}
	callCounter, err = meter.Int64Counter(
		"piishield.llm.calls",
		metric.WithDescription("LLM validation calls by outcome"),
	)
	if err != nil {
		return
	}
	metricsRegistered = true
}

// RecordCallMetrics records one provider call. outcome is "ok", "error" or
// "parse_error".
func RecordCallMetrics(ctx context.Context, provider, model, outcome string, costEUR float64) {
	metricsOnce.Do(initMetrics)
	if !metricsRegistered {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	)
	callCounter.Add(ctx, 1, attrs)
	if outcome == "ok" {
		costHistogram.Record(ctx, costEUR, attrs)
	}
}
