package grove

import (
	"fmt"
	"reflect"
)

// ParamInfo describes one formal parameter of a constructor. Name is empty
// unless the registration declared names with [WithParameterNames].
type ParamInfo struct {
	Position int
	Name     string
	Type     reflect.Type
}

func (p ParamInfo) String() string {
	if p.Name == "" {
		return fmt.Sprintf("parameter %d (%s)", p.Position, p.Type)
	}
	return fmt.Sprintf("parameter %d %q (%s)", p.Position, p.Name, p.Type)
}

// precedence orders the explicit strategies. Registry resolution is tried
// after all of them.
type precedence int

const (
	byPosition precedence = iota
	byName
	byType
	byPredicate
)

var explicitOrder = [...]precedence{byPosition, byName, byType, byPredicate}

// Parameter supplies a value for a constructor parameter, either at the call
// site ([Container.ResolveKey], [Resolve]) or at registration time
// ([WithParameter]). Use [Positional], [Named], [Typed], [TypedAs] or
// [ResolvedBy] to create one.
type Parameter interface {
	precedence() precedence
	// supply reports ok=false when the parameter does not apply to p.
	supply(p ParamInfo, r Resolver) (v reflect.Value, ok bool, err error)
}

// Parameters is the list of call-site parameters handed to a delegate
// registered with [RegisterDelegate].
type Parameters []Parameter

type positionalParameter struct {
	pos   int
	value any
}

// Positional supplies value for the parameter at zero-based position pos.
func Positional(pos int, value any) Parameter {
	return positionalParameter{pos: pos, value: value}
}

func (positionalParameter) precedence() precedence { return byPosition }

func (pp positionalParameter) supply(p ParamInfo, _ Resolver) (reflect.Value, bool, error) {
	if p.Position != pp.pos {
		return reflect.Value{}, false, nil
	}
	v, err := coerce(p, pp.value)
	return v, err == nil, err
}

type namedParameter struct {
	name  string
	value any
}

// Named supplies value for the parameter declared under name.
func Named(name string, value any) Parameter {
	return namedParameter{name: name, value: value}
}

func (namedParameter) precedence() precedence { return byName }

func (np namedParameter) supply(p ParamInfo, _ Resolver) (reflect.Value, bool, error) {
	if p.Name == "" || p.Name != np.name {
		return reflect.Value{}, false, nil
	}
	v, err := coerce(p, np.value)
	return v, err == nil, err
}

type typedParameter struct {
	typ   reflect.Type
	value any
}

// Typed supplies value for parameters whose declared type is exactly the
// dynamic type of value. Use [TypedAs] to target an interface type.
func Typed(value any) Parameter {
	return typedParameter{typ: reflect.TypeOf(value), value: value}
}

// TypedAs supplies value for parameters declared as T.
func TypedAs[T any](value T) Parameter {
	return typedParameter{typ: typeOf[T](), value: value}
}

func (typedParameter) precedence() precedence { return byType }

func (tp typedParameter) supply(p ParamInfo, _ Resolver) (reflect.Value, bool, error) {
	if tp.typ == nil || tp.typ != p.Type {
		return reflect.Value{}, false, nil
	}
	v, err := coerce(p, tp.value)
	return v, err == nil, err
}

type resolvedParameter struct {
	predicate func(ParamInfo) bool
	accessor  func(ParamInfo, Resolver) (any, error)
}

// ResolvedBy supplies the accessor's result for every parameter accepted by
// predicate. The accessor receives a [Resolver] bound to the ongoing
// resolution, so it may resolve other services.
//
//	grove.ResolvedBy(
//	    func(p grove.ParamInfo) bool { return p.Name == "phoneNumber" },
//	    func(grove.ParamInfo, grove.Resolver) (any, error) { return "+12345678", nil },
//	)
func ResolvedBy(predicate func(ParamInfo) bool, accessor func(ParamInfo, Resolver) (any, error)) Parameter {
	return resolvedParameter{predicate: predicate, accessor: accessor}
}

func (resolvedParameter) precedence() precedence { return byPredicate }

func (rp resolvedParameter) supply(p ParamInfo, r Resolver) (reflect.Value, bool, error) {
	if rp.predicate == nil || rp.accessor == nil || !rp.predicate(p) {
		return reflect.Value{}, false, nil
	}
	raw, err := rp.accessor(p, r)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("%s: %w", p, err)
	}
	v, err := coerce(p, raw)
	return v, err == nil, err
}

// staticMatch reports whether param would supply p regardless of the
// resolution state. Predicate parameters are asked; their accessor is not
// called.
func staticMatch(param Parameter, p ParamInfo) bool {
	switch pp := param.(type) {
	case positionalParameter:
		return pp.pos == p.Position
	case namedParameter:
		return p.Name != "" && pp.name == p.Name
	case typedParameter:
		return pp.typ != nil && pp.typ == p.Type
	case resolvedParameter:
		return pp.predicate != nil && pp.predicate(p)
	}
	return false
}

// coerce turns an explicit value into one usable as p.
func coerce(p ParamInfo, value any) (reflect.Value, error) {
	if value == nil {
		if nillable(p.Type.Kind()) {
			return reflect.Zero(p.Type), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: %s: nil value", ErrUnresolvedParameter, p)
	}

	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(p.Type):
		return rv, nil
	case numeric(rv.Kind()) && numeric(p.Type.Kind()):
		return convertNumeric(p, rv)
	}
	return reflect.Value{}, fmt.Errorf("%w: %s: cannot use value of type %s", ErrUnresolvedParameter, p, rv.Type())
}

// convertNumeric converts rv to p.Type only when the value survives the
// round trip unchanged.
func convertNumeric(p ParamInfo, rv reflect.Value) (reflect.Value, error) {
	out := rv.Convert(p.Type)
	if out.Convert(rv.Type()).Interface() != rv.Interface() {
		return reflect.Value{}, fmt.Errorf("%w: %s: %v does not fit in %s", ErrUnresolvedParameter, p, rv.Interface(), p.Type)
	}
	return out, nil
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// NamedValue returns the value of the [Named] parameter called name,
// converted to V. It is meant for delegates registered with
// [RegisterDelegate].
func NamedValue[V any](params Parameters, name string) (V, error) {
	p := ParamInfo{Position: -1, Name: name, Type: typeOf[V]()}
	for _, param := range params {
		if np, ok := param.(namedParameter); ok && np.name == name {
			return valueAs[V](p, np.value)
		}
	}
	var zero V
	return zero, fmt.Errorf("%w: no value named %q", ErrUnresolvedParameter, name)
}

// TypedValue returns the value of the first [Typed] or [TypedAs] parameter
// whose type is V.
func TypedValue[V any](params Parameters) (V, error) {
	p := ParamInfo{Position: -1, Type: typeOf[V]()}
	for _, param := range params {
		if tp, ok := param.(typedParameter); ok && tp.typ == p.Type {
			return valueAs[V](p, tp.value)
		}
	}
	var zero V
	return zero, fmt.Errorf("%w: no value of type %s", ErrUnresolvedParameter, p.Type)
}

// PositionalValue returns the value of the [Positional] parameter at pos,
// converted to V.
func PositionalValue[V any](params Parameters, pos int) (V, error) {
	p := ParamInfo{Position: pos, Type: typeOf[V]()}
	for _, param := range params {
		if pp, ok := param.(positionalParameter); ok && pp.pos == pos {
			return valueAs[V](p, pp.value)
		}
	}
	var zero V
	return zero, fmt.Errorf("%w: no value at position %d", ErrUnresolvedParameter, pos)
}

func valueAs[V any](p ParamInfo, raw any) (V, error) {
	var zero V
	v, err := coerce(p, raw)
	if err != nil {
		return zero, err
	}
	out, ok := v.Interface().(V)
	if !ok {
		// nil for a nillable V
		return zero, nil
	}
	return out, nil
}
