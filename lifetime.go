package godine

import (
	"encoding/json"
	"fmt"
)

// Lifetime specifies how long a provider's resolved value is cached.
// The lifetime determines when the factory runs and which scope owns
// the resulting cache entry and its teardown.
type Lifetime int

const (
	// Request specifies that the value is recomputed for every scope.
	// One instance exists per scope; it is torn down when the scope
	// closes. This is the default lifetime.
	Request Lifetime = iota

	// App specifies that the value is computed once per container and
	// reused by every scope for the life of the process. App providers
	// must not depend on Request providers.
	App
)

// String returns the string representation of the Lifetime.
func (lt Lifetime) String() string {
	switch lt {
	case Request:
		return "Request"
	case App:
		return "App"
	default:
		return fmt.Sprintf("Unknown(%d)", int(lt))
	}
}

// IsValid checks if the lifetime is a known value.
func (lt Lifetime) IsValid() bool {
	return lt >= Request && lt <= App
}

// MarshalText implements encoding.TextMarshaler.
func (lt Lifetime) MarshalText() ([]byte, error) {
	return []byte(lt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (lt *Lifetime) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Request", "request":
		*lt = Request
	case "App", "app":
		*lt = App
	default:
		return &LifetimeError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (lt Lifetime) MarshalJSON() ([]byte, error) {
	return json.Marshal(lt.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (lt *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return lt.UnmarshalText([]byte(s))
}
