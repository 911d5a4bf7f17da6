package utils

import (
	"fmt"
	"time"
)

// FormatDuration prints d with three decimals in the largest unit below it.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%.3fns", float64(d))
	case d < time.Millisecond:
		return fmt.Sprintf("%.3fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}
