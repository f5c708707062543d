package otel

import (
	"context"
	"errors"
	"os"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

const instrumentationName = "github.com/aiacademy/tutor"

// EnableTelemetry turns on OTLP export of traces, metrics and logs.
var EnableTelemetry = os.Getenv("TELEMETRY") != ""

type Observable interface {
	otelSetup()
}

type shutdownFunc func(context.Context) error

// Setup installs the global OTLP providers and returns a function flushing
// them. Without telemetry enabled it installs nothing.
func Setup(ctx context.Context, service, version string) (func(context.Context) error, error) {
	if !EnableTelemetry {
		return func(context.Context) error { return nil }, nil
	}

	resource, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithTelemetrySDK(),
		sdkresource.WithAttributes(
			semconv.ServiceNameKey.String(service),
			semconv.ServiceVersionKey.String(version),
		),
	)

	if err != nil {
		return nil, err
	}

	var shutdowns []shutdownFunc

	shutdown := func(ctx context.Context) error {
		var errs []error

		for _, s := range shutdowns {
			errs = append(errs, s(ctx))
		}

		return errors.Join(errs...)
	}

	for _, setup := range []func(context.Context, *sdkresource.Resource) (shutdownFunc, error){
		setupTracer,
		setupMeter,
		setupLogger,
	} {
		s, err := setup(ctx, resource)

		if err != nil {
			shutdown(ctx)
			return nil, err
		}

		shutdowns = append(shutdowns, s)
	}

	return shutdown, nil
}
