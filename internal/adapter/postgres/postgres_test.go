package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"unique", &pq.Error{Code: "23505"}, true},
		{"wrapped unique", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"check violation", &pq.Error{Code: "23514"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNonNil(t *testing.T) {
	if got := nonNil(nil); got == nil || len(got) != 0 {
		t.Errorf("nonNil(nil) = %#v, want empty slice", got)
	}
	in := []string{"asthma"}
	if got := nonNil(in); len(got) != 1 || got[0] != "asthma" {
		t.Errorf("nonNil(%v) = %v", in, got)
	}
}

func TestNullFloat(t *testing.T) {
	if got := nullFloat(nil); got.Valid {
		t.Errorf("nullFloat(nil) should be invalid, got %+v", got)
	}
	v := 72.5
	if got := nullFloat(&v); !got.Valid || got.Float64 != 72.5 {
		t.Errorf("nullFloat(&72.5) = %+v", got)
	}
}
