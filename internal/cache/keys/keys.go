// Package keys builds cache keys for fetched resources.
package keys

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Resource builds the cache key for one fetched resource locator. The key
// embeds the feed, the run the resource belongs to (so a whole run can be
// invalidated by prefix) and a hash of the full locator, which carries the
// variable/level/bbox selectors.
func Resource(feed, runDate string, runHour int, locator string) string {
	sum := xxhash.Sum64String(locator)
	return fmt.Sprintf("%s%016x", RunPrefix(feed, runDate, runHour), sum)
}

// RunPrefix is the shared key prefix of every resource from one model run.
func RunPrefix(feed, runDate string, runHour int) string {
	return fmt.Sprintf("%s:v1:%s:%02d:", sanitize(feed), sanitize(runDate), runHour)
}

// Point builds the cache key for a point-forecast response snapped to an H3
// cell.
func Point(feed string, res int, cell string, altitude int) string {
	if altitude < 0 {
		return fmt.Sprintf("%s:v1:r%d:%s", sanitize(feed), res, cell)
	}
	return fmt.Sprintf("%s:v1:r%d:%s:alt%d", sanitize(feed), res, cell, altitude)
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
