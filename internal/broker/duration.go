package broker

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LookbackDays converts a duration spec such as "30 D", "2 W", "12 M" or "1 Y"
// into an approximate number of calendar days.
func LookbackDays(spec string) (int, error) {
	n, unit, err := splitSpec(spec)
	if err != nil {
		return 0, err
	}
	switch strings.ToUpper(unit) {
	case "S":
		return 1, nil
	case "D":
		return n, nil
	case "W":
		return n * 7, nil
	case "M":
		return n * 30, nil
	case "Y":
		return n * 365, nil
	}
	return 0, fmt.Errorf("unknown duration unit %q in %q", unit, spec)
}

// BarSizeDuration converts a bar size such as "5 mins", "1 hour" or "1 day" into a time.Duration.
func BarSizeDuration(spec string) (time.Duration, error) {
	n, unit, err := splitSpec(spec)
	if err != nil {
		return 0, err
	}
	switch strings.TrimSuffix(strings.ToLower(unit), "s") {
	case "sec":
		return time.Duration(n) * time.Second, nil
	case "min":
		return time.Duration(n) * time.Minute, nil
	case "hour":
		return time.Duration(n) * time.Hour, nil
	case "day":
		return time.Duration(n) * 24 * time.Hour, nil
	case "week":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown bar size unit %q in %q", unit, spec)
}

func splitSpec(spec string) (int, string, error) {
	fields := strings.Fields(spec)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("malformed spec %q", spec)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return 0, "", fmt.Errorf("malformed count in %q", spec)
	}
	return n, fields[1], nil
}
