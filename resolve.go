package grove

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/ARTM2000/grove/logger"
)

// Resolver resolves services by key. Both [*Container] and the resolver
// handed to delegates and [ResolvedBy] accessors implement it; the latter
// keeps the dependency chain of the ongoing resolution so cycles through
// delegates are detected.
type Resolver interface {
	ResolveKey(key Key, params ...Parameter) (reflect.Value, error)
}

// ---------------------------------------------------------------------------
// Container methods
// ---------------------------------------------------------------------------

// ResolveKey returns the value registered under key. params apply to the
// constructor of that registration only; they are not passed on to its
// dependencies, and they are ignored when a singleton already exists.
//
// Transient registrations produce a new value per call. Singletons built
// during a failed resolution are discarded, so a failure leaves the
// container as it was.
func (c *Container) ResolveKey(key Key, params ...Parameter) (v reflect.Value, err error) {
	if c.isShutdown() {
		return reflect.Value{}, ErrAlreadyShutdown
	}

	start := time.Now()
	ctx, span := c.inst.start(key)
	res := &resolution{c: c}
	ok := false

	defer func() {
		res.finish(ok)
		c.inst.finish(ctx, span, key, start, err)
		if err != nil {
			c.log.Debug("resolution failed", logger.MergeWithDuration(
				logger.Fields(logger.FieldService, key.String(), logger.FieldError, err.Error()),
				time.Since(start),
			))
		}
	}()

	v, err = res.ResolveKey(key, params...)
	ok = err == nil
	return v, err
}

// ---------------------------------------------------------------------------
// Generic helpers
// ---------------------------------------------------------------------------

// Resolve is a generic helper that resolves the unnamed key of T. It is the
// recommended way to retrieve values:
//
//	log, err := grove.Resolve[Log](c, grove.Named("phoneNumber", "+123456789"))
func Resolve[T any](r Resolver, params ...Parameter) (T, error) {
	return resolveAs[T](r, TypeKey[T](), params)
}

// ResolveNamed is a generic helper that resolves the key of T qualified by
// name:
//
//	db, err := grove.ResolveNamed[*Database](c, "primary")
func ResolveNamed[T any](r Resolver, name string, params ...Parameter) (T, error) {
	return resolveAs[T](r, NamedKey[T](name), params)
}

// MustResolve is like [Resolve] but panics on error. It is intended for
// program setup where a missing service is a programming error.
func MustResolve[T any](r Resolver, params ...Parameter) T {
	v, err := Resolve[T](r, params...)
	if err != nil {
		panic(err)
	}
	return v
}

func resolveAs[T any](r Resolver, key Key, params []Parameter) (T, error) {
	var zero T
	val, err := r.ResolveKey(key, params...)
	if err != nil {
		return zero, err
	}
	return valueOf[T](val, key)
}

func valueOf[T any](val reflect.Value, key Key) (T, error) {
	var zero T
	if !val.IsValid() {
		return zero, nil
	}
	if (val.Kind() == reflect.Interface || val.Kind() == reflect.Pointer) && val.IsNil() {
		return zero, nil
	}
	out, ok := val.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("%s: cannot convert %s to %s", key, val.Type(), key.Type)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

type frame struct {
	key Key
	reg *registration
}

// resolution is the state of one top-level resolve call: the chain of
// registrations under construction and the singletons built so far, which
// are only published when the whole call succeeds.
type resolution struct {
	c      *Container
	stack  []frame
	staged map[*registration]reflect.Value
	order  []*registration

	// locked is set once this resolution holds c.construction.
	locked bool

	// done is set by finish. A Resolver or bound factory that outlives the
	// call forwards to the container from then on.
	done atomic.Bool
}

// ResolveKey resolves key within the ongoing resolution, sharing its
// dependency chain and construction lock. It must be called from the
// goroutine running the resolution; once that resolution has returned it
// behaves like [Container.ResolveKey].
func (res *resolution) ResolveKey(key Key, params ...Parameter) (reflect.Value, error) {
	if res.done.Load() {
		return res.c.ResolveKey(key, params...)
	}

	reg, ok := res.c.registry.lookup(key)
	if !ok {
		if fn, ok := res.implicitFactory(key); ok {
			return fn, nil
		}
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownService, key)
	}

	v, err := res.resolve(key, reg, params)
	if err != nil {
		return reflect.Value{}, err
	}
	return exact(v, key.Type), nil
}

func (res *resolution) resolve(key Key, reg *registration, params []Parameter) (reflect.Value, error) {
	for _, f := range res.stack {
		if f.reg == reg {
			return reflect.Value{}, circularError(key, res.chain())
		}
	}

	if reg.recipe.kind == instanceRecipe {
		return reg.recipe.instance, nil
	}

	if reg.lifetime == Singleton {
		if v, ok := res.c.cached(reg); ok {
			return v, nil
		}
		if v, ok := res.staged[reg]; ok {
			return v, nil
		}
		if !res.locked {
			res.c.construction.Lock()
			res.locked = true
			// Another resolution may have published it while we waited.
			if v, ok := res.c.cached(reg); ok {
				return v, nil
			}
		}
	}

	res.stack = append(res.stack, frame{key: key, reg: reg})
	v, err := res.construct(reg, params)
	res.stack = res.stack[:len(res.stack)-1]
	if err != nil {
		return reflect.Value{}, fmt.Errorf("resolving %s: %w", key, err)
	}

	if reg.lifetime == Singleton {
		if res.staged == nil {
			res.staged = make(map[*registration]reflect.Value)
		}
		res.staged[reg] = v
		res.order = append(res.order, reg)
	}
	return v, nil
}

func (res *resolution) construct(reg *registration, callSite []Parameter) (reflect.Value, error) {
	explicit := callSite
	if len(reg.fixed) > 0 {
		explicit = make([]Parameter, 0, len(callSite)+len(reg.fixed))
		explicit = append(explicit, callSite...)
		explicit = append(explicit, reg.fixed...)
	}

	rcp := reg.recipe
	if rcp.kind == delegateRecipe {
		return rcp.delegate(res, Parameters(explicit))
	}

	args := make([]reflect.Value, len(rcp.params))
	for i, p := range rcp.params {
		v, err := res.supply(reg, p, explicit)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = v
	}

	var results []reflect.Value
	if rcp.variadic {
		results = rcp.fn.CallSlice(args)
	} else {
		results = rcp.fn.Call(args)
	}
	if rcp.returnsErr && !results[1].IsNil() {
		return reflect.Value{}, results[1].Interface().(error)
	}
	return results[0], nil
}

// supply finds the value for one constructor parameter: explicit parameters
// by precedence (position, name, type, predicate), then the container, then
// the registration default, then an empty variadic slice.
func (res *resolution) supply(reg *registration, p ParamInfo, explicit []Parameter) (reflect.Value, error) {
	for _, prec := range explicitOrder {
		for _, param := range explicit {
			if param.precedence() != prec {
				continue
			}
			v, ok, err := param.supply(p, res)
			if err != nil {
				return reflect.Value{}, err
			}
			if ok {
				return v, nil
			}
		}
	}

	depKey := Key{Type: p.Type}
	if res.c.canResolve(depKey) {
		return res.ResolveKey(depKey)
	}

	if v, ok := reg.defaults[p.Position]; ok {
		return v, nil
	}
	if reg.recipe.variadic && p.Position == len(reg.recipe.params)-1 {
		return reflect.MakeSlice(p.Type, 0, 0), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnresolvedParameter, p)
}

// finish publishes staged singletons when ok and releases the construction
// lock.
func (res *resolution) finish(ok bool) {
	res.done.Store(true)
	if !res.locked {
		return
	}
	if ok && len(res.order) > 0 {
		res.c.commit(res.staged, res.order)
	}
	res.locked = false
	res.c.construction.Unlock()
}

func (res *resolution) chain() []Key {
	keys := make([]Key, len(res.stack))
	for i, f := range res.stack {
		keys[i] = f.key
	}
	return keys
}

// exact returns v as a value of type t, which v's type must be assignable
// to.
func exact(v reflect.Value, t reflect.Type) reflect.Value {
	if !v.IsValid() || v.Type() == t {
		return v
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out
}
