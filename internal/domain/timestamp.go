/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package domain

import (
    "fmt"
    "time"
)

// Timestamp is an instant pinned to UTC. Constructing one from a non-UTC
// time is a programming error and panics: every computation downstream
// (business calendar, day-start detection) assumes UTC wall clock.
type Timestamp struct {
    t time.Time
}

func TimestampOf(t time.Time) Timestamp {
    if _, offset := t.Zone(); offset != 0 {
        panic(fmt.Sprintf("timestamp must be in UTC, got offset %ds", offset))
    }
    return Timestamp{t: t}
}

// TimestampFromMillis builds a Timestamp from the epoch-milliseconds form
// the tracker uses in every payload.
func TimestampFromMillis(msec int64) Timestamp {
    return Timestamp{t: time.UnixMilli(msec).UTC()}
}

func Now() Timestamp { return Timestamp{t: time.Now().UTC()} }

func (ts Timestamp) Time() time.Time { return ts.t }

func (ts Timestamp) Add(d Duration) Timestamp { return Timestamp{t: ts.t.Add(d.Std())} }

func (ts Timestamp) Sub(d Duration) Timestamp { return Timestamp{t: ts.t.Add(-d.Std())} }

// Since returns ts - other. Negative when other is later.
func (ts Timestamp) Since(other Timestamp) Duration { return DurationOf(ts.t.Sub(other.t)) }

func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

func (ts Timestamp) After(other Timestamp) bool { return ts.t.After(other.t) }

func (ts Timestamp) Equal(other Timestamp) bool { return ts.t.Equal(other.t) }

func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// PrevSecond backs off one second, used for end-exclusive boundaries.
func (ts Timestamp) PrevSecond() Timestamp { return Timestamp{t: ts.t.Add(-time.Second)} }

func (ts Timestamp) IsMonday() bool { return ts.t.Weekday() == time.Monday }

func (ts Timestamp) IsDayStart() bool {
    return ts.t.Hour() == businessHourBegin && ts.t.Minute() == 0
}

// EndOfPreviousBusinessDay moves to the closing hour of the last business
// day before this one: Monday and the weekend both land on Friday.
func (ts Timestamp) EndOfPreviousBusinessDay() Timestamp {
    shift := 1
    switch ts.t.Weekday() {
    case time.Monday: shift = 3
    case time.Sunday: shift = 2
    }
    t := ts.t.AddDate(0, 0, -shift)
    t = time.Date(t.Year(), t.Month(), t.Day(), businessHourEnd, 0, t.Second(), t.Nanosecond(), time.UTC)
    return Timestamp{t: t}
}

func (ts Timestamp) String() string { return ts.t.Format("2006-01-02T15:04Z07:00") }
