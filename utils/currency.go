package utils

import (
	"fmt"
	"strings"
)

// FormatRubles formats a whole-ruble amount with thin thousands separators.
// Example: 15000 -> "15 000 RUB"
func FormatRubles(amount uint) string {
	digits := fmt.Sprintf("%d", amount)

	var groups []string
	for i := len(digits); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{digits[start:i]}, groups...)
	}

	return strings.Join(groups, " ") + " RUB"
}
