package utils

import (
	"regexp"
	"strings"
)

var hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// NormalizeHexColor canonicalizes a hex color to an upper-case, '#'-prefixed
// form. Three-digit shorthand is expanded to six digits; eight-digit ARGB
// values are kept as is.
// Example: "ff0" -> "#FFFF00", "#a1b2c3" -> "#A1B2C3"
// Values that are not hex colors are returned trimmed but otherwise unchanged.
func NormalizeHexColor(raw string) string {
	color := strings.TrimSpace(raw)
	match := hexColorPattern.FindStringSubmatch(color)
	if match == nil {
		return color
	}

	digits := strings.ToUpper(match[1])
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	return "#" + digits
}
