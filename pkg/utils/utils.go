// Package utils holds small helpers shared by the command and the
// internal packages.
package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Binary size constants.
const (
	KiB uint64 = 1 << (10 * (iota + 1))
	MiB
	GiB
	TiB
)

// Decimal (SI) size constants.
const (
	KB uint64 = 1000
	MB        = KB * 1000
	GB        = MB * 1000
	TB        = GB * 1000
)

var sizePattern = regexp.MustCompile(`^\+?(\d+(?:\.\d*)?|\.\d+)([a-z]*)$`)

// Position of each unit prefix; K is the first power.
const unitPrefixes = "kmgtpe"

var spaceStripper = strings.NewReplacer(" ", "", "_", "", ",", "")

// ParseSize converts a size such as "100K", "2 GiB" or "1.5G" to bytes.
// Plain suffixes are decimal and "i" suffixes are binary, so "1K" is 1000
// and "1KiB" is 1024.
func ParseSize(input string) (uint64, error) {
	s := spaceStripper.Replace(strings.ToLower(strings.TrimSpace(input)))
	if s == "" {
		return 0, errors.New("size string is empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("size must be non-negative: %s", input)
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", input, err)
	}
	mult, err := unitMultiplier(m[2])
	if err != nil {
		return 0, err
	}

	bytes := value * mult
	if bytes >= math.MaxUint64 {
		return 0, fmt.Errorf("size %s overflows uint64", input)
	}
	return uint64(bytes), nil
}

func unitMultiplier(suffix string) (float64, error) {
	switch suffix {
	case "", "b", "byte", "bytes":
		return 1, nil
	}

	power := strings.IndexByte(unitPrefixes, suffix[0]) + 1
	if power == 0 {
		return 0, fmt.Errorf("unknown size suffix %q", suffix)
	}

	switch suffix[1:] {
	case "", "b":
		return math.Pow(1000, float64(power)), nil
	case "i", "ib":
		return math.Pow(1024, float64(power)), nil
	}
	return 0, fmt.Errorf("unknown size suffix %q", suffix)
}

// IsAlphanumeric checks if a rune is alphanumeric (letter or digit)
func IsAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
