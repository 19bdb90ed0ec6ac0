package grove

import "fmt"

// Lifetime controls how many instances of a registration the container
// creates.
type Lifetime int

const (
	// Transient is the default lifetime. A new instance is constructed on
	// every resolution.
	Transient Lifetime = iota

	// Singleton means the first successful resolution is cached and returned
	// for the lifetime of the [Container].
	Singleton
)

// String returns the human-readable name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// ParseLifetime is the inverse of [Lifetime.String].
func ParseLifetime(s string) (Lifetime, error) {
	switch s {
	case "singleton":
		return Singleton, nil
	case "transient":
		return Transient, nil
	default:
		return 0, fmt.Errorf("unknown lifetime %q", s)
	}
}

// DuplicatePolicy decides what happens when two registrations claim the same
// key.
type DuplicatePolicy int

const (
	// LastWins lets a later registration shadow an earlier one.
	LastWins DuplicatePolicy = iota

	// RejectDuplicates makes the second registration fail with
	// [ErrAmbiguousRegistration].
	RejectDuplicates
)

// String returns the configuration name of the policy.
func (p DuplicatePolicy) String() string {
	switch p {
	case LastWins:
		return "last-wins"
	case RejectDuplicates:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseDuplicatePolicy is the inverse of [DuplicatePolicy.String].
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "last-wins":
		return LastWins, nil
	case "reject":
		return RejectDuplicates, nil
	default:
		return 0, fmt.Errorf("unknown duplicate policy %q", s)
	}
}
