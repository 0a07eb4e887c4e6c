package utils

import (
	"strconv"
	"strings"
)

const (
	ColorAccepted = "#2ECC71"
	ColorRejected = "#E74C3C"
	ColorInfo     = "#3498DB"
	ColorNeutral  = "#95A5A6"
)

// ParseHexColor parses a hex color string (like "#FACF24") into an integer for Discord embeds.
// Returns the default red color (0xff0000) if parsing fails.
func ParseHexColor(hexColor string) int {
	if hexColor == "" {
		return 0xff0000
	}

	hexColor = strings.TrimPrefix(hexColor, "#")

	colorInt, err := strconv.ParseInt(hexColor, 16, 64)
	if err != nil {
		Logger.WithError(err).Warnf("Failed to parse hex color '%s'", hexColor)
		return 0xff0000
	}

	return int(colorInt)
}
