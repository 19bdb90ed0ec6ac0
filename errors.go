package grove

import "errors"

var (
	// ErrAlreadyBuilt is returned when a [Builder] is used after
	// [Builder.Build] has succeeded.
	ErrAlreadyBuilt = errors.New("container already built")

	// ErrAlreadyShutdown is returned by [Container.Shutdown] on the second
	// call and by every resolution made after shutdown.
	ErrAlreadyShutdown = errors.New("container already shut down")

	// ErrInvalidConstructor is returned when a value passed to
	// [Builder.Register] is not a usable constructor function.
	ErrInvalidConstructor = errors.New("invalid constructor")

	// ErrUnknownService is returned when no registration exists for the
	// requested key.
	ErrUnknownService = errors.New("unknown service")

	// ErrUnresolvedParameter is returned when no strategy can supply a
	// constructor parameter.
	ErrUnresolvedParameter = errors.New("unresolved parameter")

	// ErrCircularDependency is returned when a resolution chain revisits a
	// registration that is still being constructed. The error message
	// includes the full chain.
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrAmbiguousRegistration is returned when a key is registered twice
	// and the builder uses [RejectDuplicates].
	ErrAmbiguousRegistration = errors.New("ambiguous registration")
)
