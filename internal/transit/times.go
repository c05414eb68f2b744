package transit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a schedule time measured in seconds after local midnight.
// Values past 24:00:00 are legal and describe service running past midnight
// on the service day, per the GTFS convention.
type TimeOfDay int

// ParseTimeOfDay parses "H:MM:SS" or "HH:MM:SS" with hours allowed past 24.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("time %q: want H:MM:SS", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("time %q: bad hours", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q: bad minutes", value)
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil || s < 0 || s > 59 {
		return 0, fmt.Errorf("time %q: bad seconds", value)
	}
	return TimeOfDay(h*3600 + m*60 + s), nil
}

func (t TimeOfDay) String() string {
	sec := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec/60)%60, sec%60)
}

// Seconds returns the raw offset for persistence.
func (t TimeOfDay) Seconds() int { return int(t) }

// Date is a service date in YYYYMMDD form.
type Date string

// ParseDate validates a YYYYMMDD date string.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if _, err := time.Parse("20060102", value); err != nil {
		return "", fmt.Errorf("date %q: want YYYYMMDD", value)
	}
	return Date(value), nil
}

// After reports whether d falls strictly after other. YYYYMMDD compares
// correctly as a string.
func (d Date) After(other Date) bool { return string(d) > string(other) }

func (d Date) String() string { return string(d) }

// ValidTimezone reports whether tz names a loadable IANA zone.
func ValidTimezone(tz string) bool {
	if strings.TrimSpace(tz) == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}
