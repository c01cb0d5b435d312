package version

import (
	"errors"
	"reflect"
	"testing"

	"github.com/magnus188/trimix-analysator/internal/uerr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantParts []int
		wantErr   bool
	}{
		{
			name:      "plain",
			in:        "1.2.3",
			wantParts: []int{1, 2, 3},
		},
		{
			name:      "v prefix",
			in:        "v2.0.1",
			wantParts: []int{2, 0, 1},
		},
		{
			name:      "two components",
			in:        "1.2",
			wantParts: []int{1, 2},
		},
		{
			name:      "four components",
			in:        "1.2.3.4",
			wantParts: []int{1, 2, 3, 4},
		},
		{
			name:    "empty",
			in:      "",
			wantErr: true,
		},
		{
			name:    "marker only",
			in:      "v",
			wantErr: true,
		},
		{
			name:    "non numeric component",
			in:      "1.2.a",
			wantErr: true,
		},
		{
			name:    "pre release suffix is rejected",
			in:      "1.2.3-beta4",
			wantErr: true,
		},
		{
			name:    "negative component",
			in:      "1.-2.3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) should fail", tt.in)
				}
				if !errors.Is(err, uerr.ParseError) {
					t.Fatalf("Parse(%q) error kind=%q want parse_error", tt.in, uerr.Of(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got.Parts, tt.wantParts) {
				t.Fatalf("parts mismatch: got=%v want=%v", got.Parts, tt.wantParts)
			}
			if got.String() != tt.in {
				t.Fatalf("String()=%q want=%q", got.String(), tt.in)
			}
		})
	}
}

func TestCompareStrings(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{
			name: "less",
			a:    "1.0.0",
			b:    "1.0.1",
			want: -1,
		},
		{
			name: "greater across components",
			a:    "2.0.0",
			b:    "1.9.9",
			want: 1,
		},
		{
			name: "short form greater",
			a:    "2.0",
			b:    "1.9.9",
			want: 1,
		},
		{
			name: "marker prefix vs padded equal",
			a:    "v1.2.0",
			b:    "1.2",
			want: 0,
		},
		{
			name: "identical",
			a:    "1.2.3",
			b:    "1.2.3",
			want: 0,
		},
		{
			name: "numeric not lexicographic",
			a:    "1.10.0",
			b:    "1.2.99",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareStrings(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CompareStrings(%q, %q) failed: %v", tt.a, tt.b, err)
			}
			if got != tt.want {
				t.Fatalf("CompareStrings(%q, %q)=%d want=%d", tt.a, tt.b, got, tt.want)
			}
			// Ordering must be antisymmetric.
			rev, err := CompareStrings(tt.b, tt.a)
			if err != nil {
				t.Fatalf("reverse CompareStrings failed: %v", err)
			}
			if rev != -tt.want {
				t.Fatalf("reverse CompareStrings(%q, %q)=%d want=%d", tt.b, tt.a, rev, -tt.want)
			}
		})
	}
}

func TestCompareStringsInvalidInput(t *testing.T) {
	if _, err := CompareStrings("garbage", "1.0.0"); !errors.Is(err, uerr.ParseError) {
		t.Fatalf("malformed left side should be a parse_error, got %v", err)
	}
	if _, err := CompareStrings("1.0.0", ""); !errors.Is(err, uerr.ParseError) {
		t.Fatalf("empty right side should be a parse_error, got %v", err)
	}
}
