package comm

import (
	"strconv"
	"strings"
)

// MajorVersion extracts the major number from a dotted version string.
// It's 0 if there's no '.' or the major part is not a number.
func MajorVersion(version string) int {
	pos := strings.IndexByte(version, '.')
	if pos < 0 {
		return 0
	}
	major, err := strconv.Atoi(version[:pos])
	if err != nil {
		return 0
	}
	return major
}
