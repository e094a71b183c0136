package check

import (
	"fmt"
	"strings"
)

// renderTimespan formats a duration in seconds using its two most
// significant units, e.g. "3 days 7 hours".
func renderTimespan(seconds float64) string {
	total := int64(seconds)
	if total <= 0 {
		return "0 seconds"
	}

	parts := []struct {
		value int64
		unit  string
	}{
		{total / 86400, "day"},
		{total % 86400 / 3600, "hour"},
		{total % 3600 / 60, "minute"},
		{total % 60, "second"},
	}

	out := make([]string, 0, 2)
	for i, p := range parts {
		if p.value == 0 && len(out) == 0 && i < len(parts)-1 {
			continue
		}
		out = append(out, fmt.Sprintf("%d %s", p.value, plural(p.unit, p.value)))
		if len(out) == 2 {
			break
		}
	}

	return strings.Join(out, " ")
}

func plural(unit string, value int64) string {
	if value == 1 {
		return unit
	}

	return unit + "s"
}
