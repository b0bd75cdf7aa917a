package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decimals is the number of base units per coin exponent (1 coin = 10^8 units).
const Decimals = 8

// FormatAmount converts base units to a coin string without float precision loss
func FormatAmount(units uint64) string {
	return formatWithDecimals(units, Decimals)
}

// ParseAmount converts a coin string to base units without float precision loss.
// More than Decimals fractional digits is an error.
func ParseAmount(s string) (uint64, error) {
	return parseWithDecimals(s, Decimals)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(2498183, 8) = "0.02498183"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("0.02498183", 8) = 2498183
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	whole, frac, found := strings.Cut(s, ".")
	if found && strings.Contains(frac, ".") {
		return 0, fmt.Errorf("invalid decimal format %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	n, err := strconv.ParseUint(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return n, nil
}
