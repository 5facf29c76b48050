package recipient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidTime      = errors.New("time must be HH:MM")
	ErrInvalidFrequency = errors.New("frequency must be a positive number of minutes")
	ErrFrequencyTooLow  = errors.New("frequency below minimum")
)

// DefaultMinFrequency is the smallest accepted report frequency in minutes.
const DefaultMinFrequency = 5

// FallbackTimes is used when neither the recipient nor the configuration has valid times.
var FallbackTimes = []string{"08:00", "20:00"}

// IsValidHHMM reports whether t is a zero-padded 24h clock time.
func IsValidHHMM(t string) bool {
	if len(t) != 5 || t[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if t[i] < '0' || t[i] > '9' {
			return false
		}
	}
	h, _ := strconv.Atoi(t[:2])
	m, _ := strconv.Atoi(t[3:])
	return h <= 23 && m <= 59
}

// FilterTimes keeps the valid entries of times, dropping duplicates.
func FilterTimes(times []string) []string {
	seen := make(map[string]bool, len(times))
	var out []string
	for _, t := range times {
		t = strings.TrimSpace(t)
		if !IsValidHHMM(t) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// NormalizeTimes validates user-supplied times. Any malformed entry rejects the whole list.
func NormalizeTimes(times []string) ([]string, error) {
	var cleaned []string
	for _, t := range times {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !IsValidHHMM(t) {
			return nil, fmt.Errorf("%q: %w", t, ErrInvalidTime)
		}
		cleaned = append(cleaned, t)
	}
	cleaned = FilterTimes(cleaned)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no times given: %w", ErrInvalidTime)
	}
	return cleaned, nil
}

// ValidateFrequency checks minutes against the minimum.
func ValidateFrequency(minutes, min int) error {
	if minutes <= 0 {
		return fmt.Errorf("%d: %w", minutes, ErrInvalidFrequency)
	}
	if minutes < min {
		return fmt.Errorf("%d < %d minutes: %w", minutes, min, ErrFrequencyTooLow)
	}
	return nil
}

// ParseList splits a comma or space separated argument into upper-case symbols.
func ParseList(arg string) []string {
	fields := strings.FieldsFunc(arg, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	var out []string
	for _, f := range fields {
		if f = strings.ToUpper(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
