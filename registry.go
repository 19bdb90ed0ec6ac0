package grove

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type recipeKind int

const (
	constructorRecipe recipeKind = iota
	instanceRecipe
	delegateRecipe
)

func (k recipeKind) String() string {
	switch k {
	case constructorRecipe:
		return "constructor"
	case instanceRecipe:
		return "instance"
	case delegateRecipe:
		return "delegate"
	default:
		return "unknown"
	}
}

type delegateFunc func(r Resolver, params Parameters) (reflect.Value, error)

// recipe is how a registration produces its value.
type recipe struct {
	kind    recipeKind
	outType reflect.Type

	// constructorRecipe
	fn         reflect.Value
	params     []ParamInfo
	variadic   bool
	returnsErr bool

	// instanceRecipe
	instance reflect.Value

	// delegateRecipe
	delegate delegateFunc
}

func newConstructorRecipe(constructor any) (recipe, error) {
	if constructor == nil {
		return recipe{}, fmt.Errorf("%w: constructor must be a function, got nil", ErrInvalidConstructor)
	}

	val := reflect.ValueOf(constructor)
	typ := val.Type()

	if typ.Kind() != reflect.Func {
		return recipe{}, fmt.Errorf("%w: constructor must be a function, got %s", ErrInvalidConstructor, typ)
	}
	if val.IsNil() {
		return recipe{}, fmt.Errorf("%w: constructor is a nil %s", ErrInvalidConstructor, typ)
	}
	if typ.NumOut() == 0 || typ.NumOut() > 2 {
		return recipe{}, fmt.Errorf("%w: constructor must return (T) or (T, error)", ErrInvalidConstructor)
	}
	if typ.NumOut() == 2 && typ.Out(1) != errorType {
		return recipe{}, fmt.Errorf("%w: second return value must be error", ErrInvalidConstructor)
	}

	params := make([]ParamInfo, typ.NumIn())
	for i := range params {
		params[i] = ParamInfo{Position: i, Type: typ.In(i)}
	}

	return recipe{
		kind:       constructorRecipe,
		outType:    typ.Out(0),
		fn:         val,
		params:     params,
		variadic:   typ.IsVariadic(),
		returnsErr: typ.NumOut() == 2,
	}, nil
}

func newInstanceRecipe(instance any) (recipe, error) {
	if instance == nil {
		return recipe{}, errors.New("instance cannot be nil")
	}
	val := reflect.ValueOf(instance)
	return recipe{kind: instanceRecipe, outType: val.Type(), instance: val}, nil
}

// registration binds keys to a recipe and a lifetime. Several keys may point
// to the same registration.
type registration struct {
	id       int
	recipe   recipe
	keys     []Key
	lifetime Lifetime
	eager    bool

	// registration-time parameters, consulted after call-site ones
	fixed    []Parameter
	names    []string
	defaults map[int]reflect.Value

	rawDefaults map[int]any
	errs        []error
}

func (r *registration) addKey(k Key) {
	for _, existing := range r.keys {
		if existing == k {
			return
		}
	}
	r.keys = append(r.keys, k)
}

func (r *registration) removeKey(k Key) {
	for i, existing := range r.keys {
		if existing == k {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			return
		}
	}
}

func (r *registration) fail(err error) {
	r.errs = append(r.errs, err)
}

func (r *registration) shared() bool {
	return r.recipe.kind == instanceRecipe || r.lifetime == Singleton
}

// accepts reports whether the constructor declares a parameter of type t.
func (r *registration) accepts(t reflect.Type) bool {
	for _, p := range r.recipe.params {
		if p.Type == t {
			return true
		}
	}
	return false
}

// finalize validates the options applied to r and resolves derived fields.
func (r *registration) finalize() error {
	if len(r.keys) == 0 {
		r.keys = []Key{{Type: r.recipe.outType}}
	}

	for _, k := range r.keys {
		if !r.recipe.outType.AssignableTo(k.Type) {
			r.fail(fmt.Errorf("%s is not assignable to %s", r.recipe.outType, k.Type))
		}
	}

	if len(r.names) > 0 {
		if r.recipe.kind != constructorRecipe {
			r.fail(fmt.Errorf("parameter names require a constructor, got %s registration", r.recipe.kind))
		} else if len(r.names) != len(r.recipe.params) {
			r.fail(fmt.Errorf("constructor has %d parameters, got %d names", len(r.recipe.params), len(r.names)))
		} else {
			for i, name := range r.names {
				r.recipe.params[i].Name = name
			}
		}
	}

	for pos, raw := range r.rawDefaults {
		if pos < 0 || pos >= len(r.recipe.params) {
			r.fail(fmt.Errorf("default for position %d: constructor has %d parameters", pos, len(r.recipe.params)))
			continue
		}
		v, err := coerce(r.recipe.params[pos], raw)
		if err != nil {
			r.fail(fmt.Errorf("default for position %d: %w", pos, err))
			continue
		}
		if r.defaults == nil {
			r.defaults = make(map[int]reflect.Value)
		}
		r.defaults[pos] = v
	}

	if r.recipe.kind == instanceRecipe {
		r.lifetime = Singleton
	}
	if r.eager && r.lifetime != Singleton {
		r.fail(errors.New("eager activation requires singleton lifetime"))
	}

	return errors.Join(r.errs...)
}

// registry maps keys to registrations. It is only mutated by the Builder and
// read-only once the Container exists.
type registry struct {
	byKey map[Key]*registration
}

func newRegistry() *registry {
	return &registry{byKey: make(map[Key]*registration)}
}

// register makes reg reachable under each of its keys. Under LastWins an
// existing key is taken over and returned in shadowed; under
// RejectDuplicates nothing is registered.
func (r *registry) register(reg *registration, policy DuplicatePolicy) (shadowed []Key, err error) {
	for _, k := range reg.keys {
		if _, exists := r.byKey[k]; exists {
			if policy == RejectDuplicates {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguousRegistration, k)
			}
			shadowed = append(shadowed, k)
		}
	}

	for _, k := range reg.keys {
		if prev, exists := r.byKey[k]; exists {
			prev.removeKey(k)
		}
		r.byKey[k] = reg
	}
	return shadowed, nil
}

func (r *registry) lookup(k Key) (*registration, bool) {
	reg, ok := r.byKey[k]
	return reg, ok
}

// registrations returns every reachable registration in registration order.
func (r *registry) registrations() []*registration {
	seen := make(map[*registration]bool, len(r.byKey))
	out := make([]*registration, 0, len(r.byKey))
	for _, reg := range r.byKey {
		if !seen[reg] {
			seen[reg] = true
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
