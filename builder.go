package grove

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/ARTM2000/grove/logger"
)

// Builder collects registrations and produces an immutable [Container].
// Use [NewBuilder] to create one.
type Builder struct {
	mu sync.Mutex

	registry *registry
	nextID   int

	defaultLifetime Lifetime
	policy          DuplicatePolicy
	log             *logger.Logger
	tracerProvider  trace.TracerProvider
	meterProvider   metric.MeterProvider

	// err holds an invalid builder option, reported by Register and Build.
	err   error
	built bool
}

// NewBuilder creates an empty [Builder] ready for registration.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		registry:        newRegistry(),
		defaultLifetime: Transient,
		policy:          LastWins,
		log:             logger.Nop(),
		tracerProvider:  tracenoop.NewTracerProvider(),
		meterProvider:   metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a constructor. The constructor must be a function with the
// signature func(deps...) T or func(deps...) (T, error). Each parameter is
// supplied by an explicit [Parameter] or resolved from the container by its
// declared type.
//
// Without [As], [AsNamed] or [AsSelf] options the registration is reachable
// under the key of T.
func (b *Builder) Register(constructor any, opts ...RegistrationOption) error {
	rcp, err := newConstructorRecipe(constructor)
	if err != nil {
		return err
	}
	return b.add(rcp, opts)
}

// RegisterNamed adds a constructor reachable under the key of its return
// type qualified by name.
func (b *Builder) RegisterNamed(name string, constructor any, opts ...RegistrationOption) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	rcp, err := newConstructorRecipe(constructor)
	if err != nil {
		return err
	}
	named := func(r *registration) { r.addKey(Key{Type: r.recipe.outType, Name: name}) }
	return b.add(rcp, append([]RegistrationOption{named}, opts...))
}

// RegisterInstance adds a pre-built value. Every key of the registration
// resolves to that same value; the container never closes it.
func (b *Builder) RegisterInstance(instance any, opts ...RegistrationOption) error {
	rcp, err := newInstanceRecipe(instance)
	if err != nil {
		return err
	}
	return b.add(rcp, opts)
}

// RegisterDelegate adds a function that builds T itself. The function
// receives a [Resolver] bound to the ongoing resolution and the call-site
// parameters followed by those given with [WithParameter]:
//
//	grove.RegisterDelegate(b, func(r grove.Resolver, p grove.Parameters) (*SMSLog, error) {
//	    phone, err := grove.NamedValue[string](p, "phoneNumber")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewSMSLog(phone), nil
//	}, grove.As[Log]())
func RegisterDelegate[T any](b *Builder, fn func(Resolver, Parameters) (T, error), opts ...RegistrationOption) error {
	if fn == nil {
		return fmt.Errorf("%w: delegate cannot be nil", ErrInvalidConstructor)
	}
	rcp := recipe{
		kind:    delegateRecipe,
		outType: typeOf[T](),
		delegate: func(r Resolver, params Parameters) (reflect.Value, error) {
			v, err := fn(r, params)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		},
	}
	return b.add(rcp, opts)
}

func (b *Builder) add(rcp recipe, opts []RegistrationOption) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return ErrAlreadyBuilt
	}
	if b.err != nil {
		return b.err
	}

	reg := &registration{
		id:       b.nextID,
		recipe:   rcp,
		lifetime: b.defaultLifetime,
	}
	for _, opt := range opts {
		opt(reg)
	}
	if err := reg.finalize(); err != nil {
		return fmt.Errorf("registering %s: %w", rcp.outType, err)
	}

	shadowed, err := b.registry.register(reg, b.policy)
	if err != nil {
		return err
	}
	b.nextID++

	for _, k := range shadowed {
		b.log.Debug("registration shadowed", logger.Fields(logger.FieldService, k.String()))
	}
	b.log.Debug("service registered", logger.Fields(
		logger.FieldService, joinKeys(reg.keys),
		logger.FieldLifetime, reg.lifetime.String(),
	))
	return nil
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

type buildState int

const (
	unvisited buildState = iota
	visiting
	visited
)

// Build validates the registry, rejecting cycles among constructor
// dependencies, and freezes it into a [Container]. [Eager] registrations
// are constructed before Build returns. After Build succeeds the builder
// accepts no further registrations.
func (b *Builder) Build() (*Container, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return nil, ErrAlreadyBuilt
	}
	if b.err != nil {
		return nil, b.err
	}

	regs := b.registry.registrations()
	states := make(map[*registration]buildState, len(regs))
	for _, reg := range regs {
		if err := b.checkCycles(reg, reg.keys[0], states, nil); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	inst, err := newInstruments(b.tracerProvider, b.meterProvider, id)
	if err != nil {
		return nil, fmt.Errorf("instrumentation: %w", err)
	}

	c := &Container{
		id:       id,
		registry: b.registry,
		log:      b.log.WithComponent("grove").WithFields(logger.Fields(logger.FieldContainer, id)),
		inst:     inst,
		shared:   make(map[*registration]reflect.Value),
	}

	for _, reg := range regs {
		if !reg.eager {
			continue
		}
		if _, err := c.ResolveKey(reg.keys[0]); err != nil {
			_ = c.Shutdown(context.Background())
			return nil, fmt.Errorf("activating %s: %w", reg.keys[0], err)
		}
	}

	b.built = true
	c.log.Info("container built", logger.Fields(logger.FieldCount, len(regs)))
	return c, nil
}

// checkCycles walks constructor dependencies depth-first. Only edges that
// resolution would certainly follow are considered: parameters covered by a
// registration-time parameter and bound-factory parameters are skipped.
func (b *Builder) checkCycles(reg *registration, key Key, states map[*registration]buildState, stack []Key) error {
	switch states[reg] {
	case visiting:
		return circularError(key, stack)
	case visited:
		return nil
	}

	states[reg] = visiting
	stack = append(stack, key)

	if reg.recipe.kind == constructorRecipe {
		for _, p := range reg.recipe.params {
			if suppliedByFixed(reg, p) {
				continue
			}
			depKey := Key{Type: p.Type}
			dep, ok := b.registry.lookup(depKey)
			if !ok {
				continue
			}
			if err := b.checkCycles(dep, depKey, states, stack); err != nil {
				return err
			}
		}
	}

	states[reg] = visited
	return nil
}

func suppliedByFixed(reg *registration, p ParamInfo) bool {
	for _, param := range reg.fixed {
		if staticMatch(param, p) {
			return true
		}
	}
	return false
}

func circularError(k Key, stack []Key) error {
	chain := make([]string, len(stack)+1)
	for i, s := range stack {
		chain[i] = s.String()
	}
	chain[len(stack)] = k.String()

	return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(chain, " -> "))
}

func joinKeys(keys []Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}
