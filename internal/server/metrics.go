package server

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ironsheep/keypoint-annotator/internal/server"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics holds the event counters. The global meter is a no-op unless the
// process installs a provider.
type metrics struct {
	processed metric.Int64Counter
	rejected  metric.Int64Counter
	sessions  metric.Int64ObservableGauge
}

func newMetrics(activeSessions func() int) (*metrics, error) {
	m := meter()
	var (
		mt  metrics
		err error
	)

	mt.processed, err = m.Int64Counter(
		"annotator.events.processed",
		metric.WithDescription("Events applied to a session"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	mt.rejected, err = m.Int64Counter(
		"annotator.events.rejected",
		metric.WithDescription("Events rejected by validation or a failed save"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	mt.sessions, err = m.Int64ObservableGauge(
		"annotator.sessions.active",
		metric.WithDescription("Annotation sessions held in memory"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(mt.sessions, int64(activeSessions()))
			return nil
		},
		mt.sessions,
	)
	if err != nil {
		return nil, fmt.Errorf("registering sessions callback: %w", err)
	}

	return &mt, nil
}

func (m *metrics) event(ctx context.Context, kind string, err error) {
	attrs := metric.WithAttributes(attribute.String("event", kind))
	if err != nil {
		m.rejected.Add(ctx, 1, attrs)
		return
	}
	m.processed.Add(ctx, 1, attrs)
}
