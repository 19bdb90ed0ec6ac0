package grove

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"

	"github.com/ARTM2000/grove/logger"
)

// Container resolves services from a frozen set of registrations. It is
// created by [Builder.Build] and safe for concurrent use.
type Container struct {
	id       string
	registry *registry
	log      *logger.Logger
	inst     *instruments

	mu sync.RWMutex

	shared map[*registration]reflect.Value

	// closers holds container-built singletons that implement io.Closer, in
	// creation order. Shutdown iterates them in reverse.
	closers []io.Closer

	shutdown bool

	// construction serializes the creation of uncached singletons; see
	// resolution.resolve.
	construction sync.Mutex
}

// RegistrationInfo describes a registration for introspection.
type RegistrationInfo struct {
	Keys        []Key
	Lifetime    Lifetime
	Kind        string // "constructor", "instance" or "delegate"
	Initialized bool   // a shared instance exists
}

// ID returns the unique identifier of the container, used in logs and spans.
func (c *Container) ID() string {
	return c.id
}

// Resolve returns the value registered under the unnamed key of t.
func (c *Container) Resolve(t reflect.Type, params ...Parameter) (reflect.Value, error) {
	return c.ResolveKey(Key{Type: t}, params...)
}

// ResolveNamed returns the value registered under the key of t qualified by
// name.
func (c *Container) ResolveNamed(name string, t reflect.Type, params ...Parameter) (reflect.Value, error) {
	return c.ResolveKey(Key{Type: t, Name: name}, params...)
}

// IsRegistered reports whether key can be resolved, either from a
// registration or as a bound factory.
func (c *Container) IsRegistered(key Key) bool {
	return c.canResolve(key)
}

// Registrations returns every reachable registration in registration order.
func (c *Container) Registrations() []RegistrationInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	regs := c.registry.registrations()
	out := make([]RegistrationInfo, len(regs))
	for i, reg := range regs {
		_, cached := c.shared[reg]
		out[i] = RegistrationInfo{
			Keys:        append([]Key(nil), reg.keys...),
			Lifetime:    reg.lifetime,
			Kind:        reg.recipe.kind.String(),
			Initialized: cached || reg.recipe.kind == instanceRecipe,
		}
	}
	return out
}

// Shutdown closes all singletons built by the container that implement
// [io.Closer], in reverse creation order (dependents are closed before
// their dependencies). Instances added with [Builder.RegisterInstance] are
// left alone. The context controls the overall deadline; if it expires,
// remaining closers are skipped and the context error is included in the
// result.
//
// Resolutions after Shutdown fail with [ErrAlreadyShutdown], and so do
// subsequent Shutdown calls.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return ErrAlreadyShutdown
	}
	c.shutdown = true
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		c.log.Warn("container shut down with errors", logger.ErrorFields("shutdown", err))
	} else {
		c.log.Info("container shut down", logger.Fields(logger.FieldCount, len(closers)))
	}
	return err
}

func (c *Container) isShutdown() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shutdown
}

func (c *Container) cached(reg *registration) (reflect.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.shared[reg]
	return v, ok
}

// commit publishes the singletons staged by a successful resolution.
func (c *Container) commit(staged map[*registration]reflect.Value, order []*registration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, reg := range order {
		v := staged[reg]
		if c.shutdown {
			// Nothing will close it later.
			if closer, ok := closerOf(v); ok {
				_ = closer.Close()
			}
			continue
		}
		c.shared[reg] = v
		if closer, ok := closerOf(v); ok {
			c.closers = append(c.closers, closer)
		}
		c.log.Debug("singleton created", logger.Fields(logger.FieldService, reg.keys[0].String()))
	}
}

func (c *Container) canResolve(key Key) bool {
	if _, ok := c.registry.lookup(key); ok {
		return true
	}
	_, ok := c.factoryTarget(key)
	return ok
}

func closerOf(v reflect.Value) (io.Closer, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil, false
		}
	}
	closer, ok := v.Interface().(io.Closer)
	return closer, ok
}
