// Package grove provides a reflection-based, constructor-injection
// dependency resolver for Go.
//
// Register constructors, instances or delegates with a [Builder], freeze
// them into a [Container] with [Builder.Build], then retrieve fully-assembled
// objects with [Resolve] or [ResolveNamed].
//
// # Quick Start
//
//	b := grove.NewBuilder()
//	b.Register(NewConsoleLog, grove.As[Log](), grove.AsSelf())
//	b.Register(NewEngine)
//	b.Register(NewCar)
//	c, err := b.Build()
//
//	car, err := grove.Resolve[*Car](c)
//
// # Keys
//
// A [Key] is a type plus an optional name. One registration may be reachable
// under several keys ([As], [AsNamed], [AsSelf]). When two registrations
// claim the same key the later one wins, unless the builder was created with
// [WithDuplicatePolicy]([RejectDuplicates]).
//
// # Lifetimes
//
// [Transient] (default): a fresh instance per resolution.
//
// [Singleton]: one shared instance for the lifetime of the container.
//
//	b.Register(NewDatabase, grove.WithLifetime(grove.Singleton))
//
// # Parameters
//
// Every constructor parameter is supplied by the first strategy that
// applies: a [Positional] value, a [Named] value (names are declared with
// [WithParameterNames]), a [Typed] value, a [ResolvedBy] predicate, the
// container itself by the parameter's type, and finally a [WithDefault]
// value.
//
//	b.Register(NewSMSLog, grove.As[Log](), grove.WithParameterNames("phoneNumber"))
//	log, err := grove.Resolve[Log](c, grove.Named("phoneNumber", "+123456789"))
//
// # Factories
//
// [Factory1] and [Factory2] return functions that leave some constructor
// parameters open until call time. A constructor parameter of type
// func(A) (T, error) is injected as such a factory when T is registered.
// Calling an injected factory from the constructor that received it stays
// part of the same resolution, so a factory that leads back to the
// constructor's own type fails with [ErrCircularDependency].
//
// # Delegates
//
// Delegates registered with [RegisterDelegate] must resolve their own
// dependencies through the [Resolver] they are given, not through the
// container, so that cycles are detected and singleton construction does
// not block on itself. A Resolver kept past the delegate call resolves
// through the container.
package grove
