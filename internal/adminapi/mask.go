package adminapi

import "strings"

const (
	maskChar   = "X"
	maskLength = 4
)

// Mask hides all but the first and last four characters of s. Values of
// eight characters or fewer are returned unchanged.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 2*maskLength {
		return s
	}
	return string(r[:maskLength]) + strings.Repeat(maskChar, len(r)-2*maskLength) + string(r[len(r)-maskLength:])
}
