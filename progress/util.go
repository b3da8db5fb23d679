package progress

import (
	"fmt"
	"strconv"
	"time"
)

// formatQuantity renders a position or total without trailing zeros, so
// integral simulated times read as "1000" rather than "1000.0000".
func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatClock renders a duration as MM:SS, growing to H:MM:SS past an hour.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Seconds())
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// rate returns progress units per wall-clock second, or 0 when no time has
// elapsed yet.
func rate(e Event) float64 {
	sec := e.Elapsed.Seconds()
	if sec <= 0 {
		return 0
	}
	return e.Position / sec
}

// remaining estimates wall-clock time to completion from the current rate.
// The second return is false when no estimate is possible yet.
func remaining(e Event) (time.Duration, bool) {
	r := rate(e)
	if r <= 0 || e.Total <= e.Position {
		return 0, e.Total <= e.Position && e.Total > 0
	}
	return time.Duration((e.Total - e.Position) / r * float64(time.Second)), true
}

// formatTiming renders the "[<elapsed><eta>, <rate>]" suffix shared by the
// interactive and line renderers.
func formatTiming(e Event) string {
	eta := "?"
	if d, ok := remaining(e); ok {
		eta = formatClock(d)
	}
	r := rate(e)
	return fmt.Sprintf("[%s<%s, %.2f/s]", formatClock(e.Elapsed), eta, r)
}
