package grove

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ARTM2000/grove"

// Attribute keys on resolution spans and metrics.
const (
	AttrService   = attribute.Key("grove.service")
	AttrContainer = attribute.Key("grove.container_id")
	AttrOutcome   = attribute.Key("grove.outcome")
)

type instruments struct {
	containerID string
	tracer      trace.Tracer
	resolutions metric.Int64Counter
	duration    metric.Float64Histogram
}

func newInstruments(tp trace.TracerProvider, mp metric.MeterProvider, containerID string) (*instruments, error) {
	meter := mp.Meter(instrumentationName)

	resolutions, err := meter.Int64Counter("grove.resolutions",
		metric.WithDescription("Top-level resolutions by outcome."),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("grove.resolution.duration",
		metric.WithDescription("Duration of top-level resolutions."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		containerID: containerID,
		tracer:      tp.Tracer(instrumentationName),
		resolutions: resolutions,
		duration:    duration,
	}, nil
}

func (in *instruments) start(key Key) (context.Context, trace.Span) {
	return in.tracer.Start(context.Background(), "grove.Resolve",
		trace.WithAttributes(
			AttrService.String(key.String()),
			AttrContainer.String(in.containerID),
		),
	)
}

func (in *instruments) finish(ctx context.Context, span trace.Span, key Key, start time.Time, err error) {
	defer span.End()

	outcome := outcomeOf(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(AttrOutcome.String(outcome))

	attrs := metric.WithAttributes(
		AttrService.String(key.String()),
		AttrOutcome.String(outcome),
	)
	in.resolutions.Add(ctx, 1, attrs)
	in.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCircularDependency):
		return "circular_dependency"
	case errors.Is(err, ErrUnresolvedParameter):
		return "unresolved_parameter"
	case errors.Is(err, ErrUnknownService):
		return "unknown_service"
	default:
		return "error"
	}
}
