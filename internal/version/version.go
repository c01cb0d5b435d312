package version

import (
	"strconv"
	"strings"

	"github.com/magnus188/trimix-analysator/internal/uerr"
)

// Version is a parsed dotted version number such as "1.2.3" or "v2.0".
// Missing trailing components compare as zero, so "1.2" == "1.2.0".
type Version struct {
	Parts []int
	raw   string
}

func (v Version) String() string { return v.raw }

// Parse builds a Version from a string. A single non-numeric marker
// character may prefix the number (e.g. the "v" in "v1.2.3"). Every
// dot-separated component must be a non-negative integer; anything else
// is a parse_error rather than a silent zero.
func Parse(s string) (Version, error) {
	const op = "version.Parse"

	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, uerr.New(uerr.ParseError, op, "empty version string")
	}
	if s[0] < '0' || s[0] > '9' {
		s = s[1:]
		if s == "" {
			return Version{}, uerr.New(uerr.ParseError, op, "version "+strconv.Quote(raw)+" has no numeric components")
		}
	}

	segments := strings.Split(s, ".")
	parts := make([]int, 0, len(segments))
	for _, seg := range segments {
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 {
			return Version{}, uerr.New(uerr.ParseError, op, "invalid component "+strconv.Quote(seg)+" in version "+strconv.Quote(raw))
		}
		parts = append(parts, n)
	}

	return Version{Parts: parts, raw: raw}, nil
}

// Compare orders two versions component-wise, padding the shorter one
// with zeros. Returns -1 if a < b, 0 if equal, +1 if a > b.
func Compare(a, b Version) int {
	n := max(len(a.Parts), len(b.Parts))
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a.Parts) {
			av = a.Parts[i]
		}
		if i < len(b.Parts) {
			bv = b.Parts[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CompareStrings parses both inputs and compares them. Either side
// failing to parse yields a parse_error.
func CompareStrings(a, b string) (int, error) {
	av, err := Parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return Compare(av, bv), nil
}
