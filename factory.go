package grove

import (
	"fmt"
	"reflect"
)

// BoundFactory constructs a registration on demand. Its arguments fill the
// parameters left open when the factory was created.
type BoundFactory func(args ...any) (reflect.Value, error)

// Factory returns a [BoundFactory] for key. Each argument passed to the
// factory is supplied as a typed parameter of the corresponding open type;
// every other parameter is resolved as usual when the factory is called.
//
// Open types are matched against constructor parameters by type, so a
// constructor with two parameters of the same open type receives the first
// argument for both. Use [Positional] parameters with [Container.ResolveKey]
// in that case.
//
// A call to the returned factory is a top-level resolution. Inside a
// constructor, declare a func(A) (T, error) parameter instead: that factory
// joins the resolution that injected it.
func (c *Container) Factory(key Key, open ...reflect.Type) (BoundFactory, error) {
	reg, ok := c.registry.lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, key)
	}
	if reg.recipe.kind == constructorRecipe {
		for _, t := range open {
			if !reg.accepts(t) {
				return nil, fmt.Errorf("%w: %s has no parameter of type %s", ErrUnresolvedParameter, key, t)
			}
		}
	}

	open = append([]reflect.Type(nil), open...)
	return func(args ...any) (reflect.Value, error) {
		if len(args) != len(open) {
			return reflect.Value{}, fmt.Errorf("factory for %s expects %d arguments, got %d", key, len(open), len(args))
		}
		params := make([]Parameter, len(open))
		for i, t := range open {
			params[i] = typedParameter{typ: t, value: args[i]}
		}
		return c.ResolveKey(key, params...)
	}, nil
}

// Factory1 returns a function that builds T with its parameter of type A
// taken from the call:
//
//	newDomainObject, err := grove.Factory1[int, *DomainObject](c)
//	obj, err := newDomainObject(43)
func Factory1[A, T any](c *Container) (func(A) (T, error), error) {
	key := TypeKey[T]()
	bf, err := c.Factory(key, typeOf[A]())
	if err != nil {
		return nil, err
	}
	return func(a A) (T, error) {
		v, err := bf(a)
		if err != nil {
			var zero T
			return zero, err
		}
		return valueOf[T](v, key)
	}, nil
}

// Factory2 is like [Factory1] with two open parameters.
func Factory2[A, B, T any](c *Container) (func(A, B) (T, error), error) {
	key := TypeKey[T]()
	bf, err := c.Factory(key, typeOf[A](), typeOf[B]())
	if err != nil {
		return nil, err
	}
	return func(a A, b B) (T, error) {
		v, err := bf(a, b)
		if err != nil {
			var zero T
			return zero, err
		}
		return valueOf[T](v, key)
	}, nil
}

// factoryTarget reports the key produced by a function type
// func(A...) (T, error) when T is registered and the function type itself is
// not. Such function types are resolved as bound factories, both as keys and
// as constructor parameters.
func (c *Container) factoryTarget(key Key) (Key, bool) {
	t := key.Type
	if key.Name != "" || t == nil || t.Kind() != reflect.Func || t.IsVariadic() {
		return Key{}, false
	}
	if t.NumOut() != 2 || t.Out(1) != errorType {
		return Key{}, false
	}
	target := Key{Type: t.Out(0)}
	if _, ok := c.registry.lookup(target); !ok {
		return Key{}, false
	}
	return target, true
}

// implicitFactory builds the function value for a factory key. Calls made
// while res is still running join it, so they see its dependency chain and
// reuse its construction lock; later calls are top-level resolutions.
func (res *resolution) implicitFactory(key Key) (reflect.Value, bool) {
	target, ok := res.c.factoryTarget(key)
	if !ok {
		return reflect.Value{}, false
	}

	fnType := key.Type
	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		params := make([]Parameter, len(args))
		for i, a := range args {
			params[i] = typedParameter{typ: fnType.In(i), value: a.Interface()}
		}
		v, err := res.ResolveKey(target, params...)
		if err != nil {
			return []reflect.Value{reflect.Zero(target.Type), reflect.ValueOf(&err).Elem()}
		}
		return []reflect.Value{exact(v, target.Type), reflect.Zero(errorType)}
	})
	return fn, true
}
