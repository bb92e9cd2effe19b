package batch

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// HumanizeDuration is the default DurationFormatter. It renders a duration in
// seconds as a coarse human-readable string ("12 minutes", "2 hours").
func HumanizeDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	base := time.Unix(0, 0)
	later := base.Add(time.Duration(seconds * float64(time.Second)))
	return strings.TrimSpace(humanize.RelTime(base, later, "", ""))
}
