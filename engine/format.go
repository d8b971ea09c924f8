package engine

import "fmt"

// FormatHours renders a millisecond total as the shared display string used
// everywhere in the UI: integer hours plus rounded minutes. A zero-minute
// remainder collapses to "Xh"; otherwise "Xh Ym".
func FormatHours(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / msPerHour
	remainder := ms % msPerHour
	minutes := (remainder + 30000) / 60000 // round to nearest minute
	if minutes == 60 {
		hours++
		minutes = 0
	}
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
