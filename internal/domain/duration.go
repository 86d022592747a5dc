/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package domain

import (
    "fmt"
    "regexp"
    "strconv"
    "strings"
    "time"
)

const (
    secondsInMinute     = 60
    secondsInHour       = 3600
    secondsInDay        = 86400
    secondsInBusinessDay = secondsInHour * 8

    minutesPerHour  = 60
    hoursPerDay     = 8
    daysPerWeek     = 5
)

// Duration is an elapsed-time value as YouTrack reports it: whole minutes on
// the wire, seconds internally so that timestamp subtraction stays exact.
// The zero value is a zero duration.
type Duration struct {
    d time.Duration
}

func DurationFromMinutes(minutes int) Duration {
    return Duration{d: time.Duration(minutes) * time.Minute}
}

func DurationFromSeconds(seconds int64) Duration {
    return Duration{d: time.Duration(seconds) * time.Second}
}

func DurationOf(d time.Duration) Duration { return Duration{d: d} }

var durationToken = regexp.MustCompile(`^(\d+)([wdhmWDHM])`)

// ParseDuration reads the YouTrack text form: integer segments tagged with
// w/d/h/m (case-insensitive, 1w=5d, 1d=8h), separated by optional spaces.
// Duplicate units and empty input are rejected.
func ParseDuration(s string) (Duration, error) {
    s = strings.TrimSpace(s)
    if s == "" { return Duration{}, fmt.Errorf("empty duration string") }

    total := 0
    seen := map[byte]bool{}
    for i := 0; i < len(s); {
        if s[i] == ' ' || s[i] == '\t' { i++; continue }
        m := durationToken.FindStringSubmatch(s[i:])
        if m == nil {
            return Duration{}, fmt.Errorf("invalid duration segment at position %d: %q", i, s[i:])
        }
        value, err := strconv.Atoi(m[1])
        if err != nil { return Duration{}, fmt.Errorf("invalid duration value %q: %w", m[1], err) }
        unit := byte(strings.ToLower(m[2])[0])
        if seen[unit] { return Duration{}, fmt.Errorf("duplicate duration unit %q", string(unit)) }
        seen[unit] = true
        switch unit {
        case 'm': total += value
        case 'h': total += value * minutesPerHour
        case 'd': total += value * hoursPerDay * minutesPerHour
        case 'w': total += value * daysPerWeek * hoursPerDay * minutesPerHour
        }
        i += len(m[0])
    }
    return DurationFromMinutes(total), nil
}

func (d Duration) Add(other Duration) Duration { return Duration{d: d.d + other.d} }

func (d Duration) Sub(other Duration) Duration { return Duration{d: d.d - other.d} }

func (d Duration) Less(other Duration) bool { return d.d < other.d }

func (d Duration) IsZero() bool { return d.d == 0 }

func (d Duration) Seconds() int64 { return int64(d.d / time.Second) }

func (d Duration) Minutes() int { return int(d.d / time.Minute) }

func (d Duration) Abs() Duration {
    if d.d < 0 { return Duration{d: -d.d} }
    return d
}

func (d Duration) Std() time.Duration { return d.d }

// FormatYT renders the business form where a day is 8 hours ("3d 1h 1m").
// Anything below one minute, including negatives, collapses to "0m".
func (d Duration) FormatYT() string { return d.format(secondsInBusinessDay) }

// FormatNatural renders with a 24-hour day ("1d 1h 1m").
func (d Duration) FormatNatural() string { return d.format(secondsInDay) }

func (d Duration) format(secondsPerDay int64) string {
    total := d.Seconds()
    if total < secondsInMinute { return "0m" }

    var parts []string
    if days := total / secondsPerDay; days != 0 {
        total -= days * secondsPerDay
        parts = append(parts, strconv.FormatInt(days, 10)+"d")
    }
    if hours := total / secondsInHour; hours != 0 {
        total -= hours * secondsInHour
        parts = append(parts, strconv.FormatInt(hours, 10)+"h")
    }
    if minutes := total / secondsInMinute; minutes != 0 {
        parts = append(parts, strconv.FormatInt(minutes, 10)+"m")
    }
    return strings.Join(parts, " ")
}
