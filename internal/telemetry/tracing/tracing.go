package tracing

import (
	"github.com/honeycombio/otel-config-go/otelconfig"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var GlobalTracer = otel.Tracer("outputdash-backend")

// EndSpanWithErrCheck ends the span, recording the error on it if present.
func EndSpanWithErrCheck(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// HoneycombSetup configures the OpenTelemetry SDK via the honeycomb distro.
// The returned function shuts the otel pipeline down and must be called on
// server teardown. When tracing is disabled, both the setup and the returned
// shutdown are no-ops.
func HoneycombSetup(tracingEnabled bool, serviceName string) (shutdown func(), err error) {
	if !tracingEnabled {
		log.Debugln("honeycomb tracing disabled, skipping otel setup")
		return func() {}, nil
	}

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(serviceName),
	)
	if err != nil {
		return nil, err
	}

	log.Debugf("honeycomb otel configured for service: %s", serviceName)
	return otelShutdown, nil
}
