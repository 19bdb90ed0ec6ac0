package grove

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ARTM2000/grove/config"
	"github.com/ARTM2000/grove/logger"
)

// RegistrationOption configures a registration.
type RegistrationOption func(*registration)

// As exposes the registration under the key of T. The registered type must be
// assignable to T. As may be repeated to expose one registration under
// several interfaces; all of them then share the same recipe and, for
// [Singleton] registrations, the same instance.
func As[T any]() RegistrationOption {
	return func(r *registration) {
		r.addKey(TypeKey[T]())
	}
}

// AsNamed exposes the registration under the key of T qualified by name.
func AsNamed[T any](name string) RegistrationOption {
	return func(r *registration) {
		if name == "" {
			r.fail(fmt.Errorf("AsNamed[%s]: name cannot be empty", typeOf[T]()))
			return
		}
		r.addKey(NamedKey[T](name))
	}
}

// AsSelf exposes the registration under its own concrete type. This is the
// default when no As option is given; combine it with [As] to keep the
// concrete key reachable.
func AsSelf() RegistrationOption {
	return func(r *registration) {
		r.addKey(Key{Type: r.recipe.outType})
	}
}

// WithLifetime sets the [Lifetime] of the registration. The default is the
// builder's default lifetime, [Transient] unless configured otherwise.
func WithLifetime(l Lifetime) RegistrationOption {
	return func(r *registration) {
		r.lifetime = l
	}
}

// WithParameter attaches parameters that are consulted for every
// construction of this registration, after any call-site parameters of the
// same kind.
func WithParameter(params ...Parameter) RegistrationOption {
	return func(r *registration) {
		r.fixed = append(r.fixed, params...)
	}
}

// WithParameterNames declares the names of the constructor parameters, in
// order, so [Named] parameters can target them. The number of names must
// match the number of parameters.
func WithParameterNames(names ...string) RegistrationOption {
	return func(r *registration) {
		r.names = names
	}
}

// WithDefault supplies value for the parameter at pos when neither an
// explicit parameter nor the container can provide one.
func WithDefault(pos int, value any) RegistrationOption {
	return func(r *registration) {
		if r.rawDefaults == nil {
			r.rawDefaults = make(map[int]any)
		}
		r.rawDefaults[pos] = value
	}
}

// Eager constructs a [Singleton] registration during [Builder.Build]. A
// construction error then fails the build.
func Eager() RegistrationOption {
	return func(r *registration) {
		r.eager = true
	}
}

// BuilderOption configures a [Builder].
type BuilderOption func(*Builder)

// WithLogger sets the logger used for registration and resolution events.
func WithLogger(l *logger.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithDefaultLifetime sets the lifetime of registrations that do not use
// [WithLifetime].
func WithDefaultLifetime(l Lifetime) BuilderOption {
	return func(b *Builder) {
		b.defaultLifetime = l
	}
}

// WithDuplicatePolicy sets how the builder treats a key registered twice.
func WithDuplicatePolicy(p DuplicatePolicy) BuilderOption {
	return func(b *Builder) {
		b.policy = p
	}
}

// WithTracerProvider enables a span per top-level resolution.
func WithTracerProvider(tp trace.TracerProvider) BuilderOption {
	return func(b *Builder) {
		if tp != nil {
			b.tracerProvider = tp
		}
	}
}

// WithMeterProvider enables resolution count and duration metrics.
func WithMeterProvider(mp metric.MeterProvider) BuilderOption {
	return func(b *Builder) {
		if mp != nil {
			b.meterProvider = mp
		}
	}
}

// WithConfig applies a loaded [config.ContainerConfig]. Invalid values are
// reported by the first Register or Build call.
func WithConfig(cfg config.ContainerConfig) BuilderOption {
	return func(b *Builder) {
		cfg.ApplyDefaults()

		l, err := ParseLifetime(cfg.DefaultLifetime)
		if err != nil {
			b.err = fmt.Errorf("container config: %w", err)
			return
		}
		p, err := ParseDuplicatePolicy(cfg.DuplicatePolicy)
		if err != nil {
			b.err = fmt.Errorf("container config: %w", err)
			return
		}
		b.defaultLifetime = l
		b.policy = p

		if cfg.Tracing {
			b.tracerProvider = otel.GetTracerProvider()
			b.meterProvider = otel.GetMeterProvider()
		}
	}
}
