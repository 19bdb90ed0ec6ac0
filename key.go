package grove

import "reflect"

// Key identifies a service: a type, optionally qualified by a name.
type Key struct {
	Type reflect.Type
	Name string
}

// TypeKey returns the unnamed key for T.
func TypeKey[T any]() Key {
	return Key{Type: typeOf[T]()}
}

// NamedKey returns the key for T qualified by name.
func NamedKey[T any](name string) Key {
	return Key{Type: typeOf[T](), Name: name}
}

func (k Key) String() string {
	t := "<nil>"
	if k.Type != nil {
		t = k.Type.String()
	}
	if k.Name == "" {
		return t
	}
	return t + "[" + k.Name + "]"
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
