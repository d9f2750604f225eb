package output

import (
	"fmt"
	"time"
)

// FormatDuration renders d as H:MM:SS with a six-digit fractional part when d
// is not a whole number of seconds, e.g. "0:01:35" or "1:02:03.500000".
// Durations of a day or more are prefixed with "N day(s), ".
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	d = d.Truncate(time.Microsecond)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	micros := d / time.Microsecond

	out := fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	if micros > 0 {
		out += fmt.Sprintf(".%06d", micros)
	}
	switch {
	case days == 1:
		out = "1 day, " + out
	case days > 1:
		out = fmt.Sprintf("%d days, %s", days, out)
	}
	return sign + out
}
