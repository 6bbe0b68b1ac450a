package sequence

import (
	"strings"
	"time"
)

// locationZones maps location substrings, as they appear on profiles, to
// IANA timezone names. Matching is case-insensitive and first-match wins,
// so more specific entries come before broader ones.
var locationZones = []struct {
	substr string
	zone   string
}{
	{"san francisco", "America/Los_Angeles"},
	{"los angeles", "America/Los_Angeles"},
	{"seattle", "America/Los_Angeles"},
	{"portland", "America/Los_Angeles"},
	{"denver", "America/Denver"},
	{"austin", "America/Chicago"},
	{"chicago", "America/Chicago"},
	{"dallas", "America/Chicago"},
	{"houston", "America/Chicago"},
	{"new york", "America/New_York"},
	{"boston", "America/New_York"},
	{"atlanta", "America/New_York"},
	{"miami", "America/New_York"},
	{"toronto", "America/Toronto"},
	{"vancouver", "America/Vancouver"},
	{"sao paulo", "America/Sao_Paulo"},
	{"london", "Europe/London"},
	{"dublin", "Europe/Dublin"},
	{"paris", "Europe/Paris"},
	{"berlin", "Europe/Berlin"},
	{"munich", "Europe/Berlin"},
	{"amsterdam", "Europe/Amsterdam"},
	{"zurich", "Europe/Zurich"},
	{"stockholm", "Europe/Stockholm"},
	{"tel aviv", "Asia/Jerusalem"},
	{"dubai", "Asia/Dubai"},
	{"bangalore", "Asia/Kolkata"},
	{"bengaluru", "Asia/Kolkata"},
	{"mumbai", "Asia/Kolkata"},
	{"india", "Asia/Kolkata"},
	{"singapore", "Asia/Singapore"},
	{"tokyo", "Asia/Tokyo"},
	{"sydney", "Australia/Sydney"},
	{"melbourne", "Australia/Melbourne"},
}

// zoneForLocation resolves a free-form profile location to a timezone.
// Unrecognized locations fall back to the configured default; a bad
// fallback name (rejected at config validation, but belt and braces here)
// degrades to UTC.
func zoneForLocation(location, fallback string) *time.Location {
	lower := strings.ToLower(location)
	for _, lz := range locationZones {
		if strings.Contains(lower, lz.substr) {
			if loc, err := time.LoadLocation(lz.zone); err == nil {
				return loc
			}
		}
	}
	if loc, err := time.LoadLocation(fallback); err == nil {
		return loc
	}
	return time.UTC
}

// adjustToSendHour shifts a raw due time to the send hour in the target's
// local zone, on the raw due date or the next day if that hour has already
// passed locally.
func adjustToSendHour(raw time.Time, loc *time.Location, sendHour int) time.Time {
	local := raw.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), sendHour, 0, 0, 0, loc)
	if candidate.Before(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
