package godine_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/pombredanne/godine"
)

func TestLifetime(t *testing.T) {
	t.Run("constants", func(t *testing.T) {
		// Request is the zero value so providers default to it.
		if godine.Request != 0 {
			t.Errorf("Request should be 0, got %d", godine.Request)
		}
		if godine.App != 1 {
			t.Errorf("App should be 1, got %d", godine.App)
		}
	})

	t.Run("String", func(t *testing.T) {
		tests := []struct {
			lifetime godine.Lifetime
			expected string
		}{
			{godine.Request, "Request"},
			{godine.App, "App"},
			{godine.Lifetime(999), "Unknown(999)"},
		}

		for _, tt := range tests {
			if got := tt.lifetime.String(); got != tt.expected {
				t.Errorf("lifetime %d: expected %q, got %q", tt.lifetime, tt.expected, got)
			}
		}
	})

	t.Run("IsValid", func(t *testing.T) {
		tests := []struct {
			lifetime godine.Lifetime
			valid    bool
		}{
			{godine.Request, true},
			{godine.App, true},
			{godine.Lifetime(-1), false},
			{godine.Lifetime(2), false},
			{godine.Lifetime(999), false},
		}

		for _, tt := range tests {
			if got := tt.lifetime.IsValid(); got != tt.valid {
				t.Errorf("lifetime %d: expected IsValid=%v, got %v", tt.lifetime, tt.valid, got)
			}
		}
	})
}

func TestLifetime_Marshaling(t *testing.T) {
	t.Run("MarshalText", func(t *testing.T) {
		tests := []struct {
			lifetime godine.Lifetime
			expected string
		}{
			{godine.Request, "Request"},
			{godine.App, "App"},
		}

		for _, tt := range tests {
			data, err := tt.lifetime.MarshalText()
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("lifetime %s: expected %q, got %q", tt.lifetime, tt.expected, string(data))
			}
		}
	})

	t.Run("UnmarshalText", func(t *testing.T) {
		tests := []struct {
			text     string
			expected godine.Lifetime
			wantErr  bool
		}{
			{"Request", godine.Request, false},
			{"request", godine.Request, false},
			{"App", godine.App, false},
			{"app", godine.App, false},
			{"Singleton", godine.Lifetime(0), true},
			{"", godine.Lifetime(0), true},
		}

		for _, tt := range tests {
			var lifetime godine.Lifetime
			err := lifetime.UnmarshalText([]byte(tt.text))

			if tt.wantErr {
				if err == nil {
					t.Errorf("text %q: expected error, got nil", tt.text)
					continue
				}
				var lifetimeErr *godine.LifetimeError
				if !errors.As(err, &lifetimeErr) {
					t.Errorf("text %q: expected LifetimeError, got %v", tt.text, err)
				}
				continue
			}

			if err != nil {
				t.Errorf("text %q: unexpected error: %v", tt.text, err)
			}
			if lifetime != tt.expected {
				t.Errorf("text %q: expected %v, got %v", tt.text, tt.expected, lifetime)
			}
		}
	})

	t.Run("JSON roundtrip", func(t *testing.T) {
		type testStruct struct {
			Lifetime godine.Lifetime `json:"lifetime"`
		}

		for _, lifetime := range []godine.Lifetime{godine.Request, godine.App} {
			original := testStruct{Lifetime: lifetime}

			data, err := json.Marshal(original)
			if err != nil {
				t.Errorf("failed to marshal %v: %v", lifetime, err)
				continue
			}

			var decoded testStruct
			err = json.Unmarshal(data, &decoded)
			if err != nil {
				t.Errorf("failed to unmarshal %v: %v", lifetime, err)
				continue
			}

			if decoded.Lifetime != original.Lifetime {
				t.Errorf("roundtrip failed: expected %v, got %v", original.Lifetime, decoded.Lifetime)
			}
		}
	})
}
