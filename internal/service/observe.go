package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skotchmaster/animerch/internal/logging"
	"github.com/Skotchmaster/animerch/internal/mykafka"
)

// The global provider is a no-op until main installs one.
var tracer = otel.Tracer("github.com/Skotchmaster/animerch/internal/service")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// publish sends an event after the write has committed. Delivery failures
// are logged and never undo the write.
func publish(ctx context.Context, p mykafka.Publisher, topic, key string, event any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "key", key, "error", err)
	}
}
