/* Copyright (c) 2025 Mikhail Gelvikh
 * SPDX-License-Identifier: Apache-2.0 */
package domain

import "time"

// Business hours, UTC. Two working windows a day with a fixed lunch hour
// in between: [06:00,10:00) and [11:00,15:00), Monday to Friday.
const (
    businessHourBegin      = 6
    businessHourLunchBegin = 10
    businessHourLunchEnd   = 11
    businessHourEnd        = 15

    // FullBusinessDayMinutes is the working-minute count of one whole day.
    FullBusinessDayMinutes = (businessHourLunchBegin - businessHourBegin + businessHourEnd - businessHourLunchEnd) * 60
)

// CountWorkingMinutes returns how many of the minute marks begin, begin+1m,
// begin+2m, ... inside [begin, end) land within business hours. The grid is
// anchored at begin, not at the wall clock, so a mark mid-minute still counts
// when its instant is inside a window. begin == end is zero, and the instant
// at end is never counted.
func CountWorkingMinutes(begin, end Timestamp) int {
    if !begin.Before(end) { return 0 }

    minutes := 0
    day := begin.t.Truncate(24 * time.Hour)
    for day.Before(end.t) {
        if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
            minutes += windowMarks(day, businessHourBegin, businessHourLunchBegin, begin.t, end.t)
            minutes += windowMarks(day, businessHourLunchEnd, businessHourEnd, begin.t, end.t)
        }
        day = day.AddDate(0, 0, 1)
    }
    return minutes
}

// windowMarks counts the begin-anchored minute marks falling inside the
// intersection of [begin, end) and the window [day+fromHour, day+toHour).
func windowMarks(day time.Time, fromHour, toHour int, begin, end time.Time) int {
    lo := day.Add(time.Duration(fromHour) * time.Hour)
    hi := day.Add(time.Duration(toHour) * time.Hour)
    if end.Before(hi) { hi = end }

    loSec := int64(lo.Sub(begin) / time.Second)
    if loSec < 0 { loSec = 0 }
    hiSec := int64(hi.Sub(begin) / time.Second)
    if hiSec <= loSec { return 0 }
    // Mark k sits at begin+60k seconds; loSec <= 60k < hiSec.
    return int((hiSec+59)/60 - (loSec+59)/60)
}
