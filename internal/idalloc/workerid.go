package idalloc

import (
	"strconv"
	"strings"
)

// Format renders a worker identifier: prefix followed by the decimal number, no padding.
func Format(prefix string, n int64) string {
	return prefix + strconv.FormatInt(n, 10)
}

// Suffix extracts the numeric part of an identifier carrying prefix.
func Suffix(prefix, id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NumericPart reads the digits of an identifier regardless of its prefix.
// "JRCW10" -> 10. Identifiers without digits report ok=false.
func NumericPart(id string) (int64, bool) {
	var digits strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Compare orders identifiers by numeric part so that "JRCW9" < "JRCW10".
// Identifiers without digits sort before numbered ones, then lexically.
func Compare(a, b string) int {
	an, aok := NumericPart(a)
	bn, bok := NumericPart(b)

	switch {
	case aok && bok:
		if an < bn {
			return -1
		}
		if an > bn {
			return 1
		}
		return strings.Compare(a, b)
	case aok:
		return 1
	case bok:
		return -1
	default:
		return strings.Compare(a, b)
	}
}
