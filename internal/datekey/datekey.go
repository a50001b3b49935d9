// Package datekey encodes calendar days as sortable YYYYMMDD integers.
//
// A key compares the same way the day it names does, so range queries and
// ordering over dates reduce to integer comparisons, and a key can serve
// as a primary key.
package datekey

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MinYear and MaxYear bound the years a key may encode.
	MinYear = 1900
	MaxYear = 2100

	labelLayout = "Mon, Jan 2, 2006"
)

// FromTime returns the key of the calendar day t falls on in t's location.
func FromTime(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Split decomposes a key into its year, month and day fields without
// validating them.
func Split(key int) (year int, month time.Month, day int) {
	return key / 10000, time.Month((key % 10000) / 100), key % 100
}

// Valid reports whether key names a real calendar day within
// [MinYear, MaxYear].
func Valid(key int) bool {
	y, m, d := Split(key)
	if y < MinYear || y > MaxYear || m < time.January || m > time.December || d < 1 {
		return false
	}
	// time.Date normalises overflow (Feb 30 -> Mar 2), so a real day
	// survives the round trip unchanged.
	return FromTime(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) == key
}

// ToTime returns midnight of the day named by key in loc.
func ToTime(key int, loc *time.Location) (time.Time, error) {
	if !Valid(key) {
		return time.Time{}, fmt.Errorf("invalid date key %d", key)
	}
	if loc == nil {
		loc = time.Local
	}
	y, m, d := Split(key)
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

// Today returns the key of the local calendar day containing now.
func Today(now time.Time) int {
	return FromTime(now.Local())
}

// AddDays shifts key by n calendar days (n may be negative).
func AddDays(key, n int) (int, error) {
	t, err := ToTime(key, time.UTC)
	if err != nil {
		return 0, err
	}
	return FromTime(t.AddDate(0, 0, n)), nil
}

// YearWindow returns the inclusive range [today-365 days, today] used for
// the yearly achievement summary.
func YearWindow(today int) (from, to int, err error) {
	from, err = AddDays(today, -365)
	if err != nil {
		return 0, 0, err
	}
	return from, today, nil
}

// Format renders key as a short human label such as "Thu, Oct 15, 2026".
// Invalid keys are rendered as their raw digits.
func Format(key int) string {
	t, err := ToTime(key, time.UTC)
	if err != nil {
		return strconv.Itoa(key)
	}
	return t.Format(labelLayout)
}

// Parse reads a key from "YYYY-MM-DD" or "YYYYMMDD" text.
func Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return FromTime(t), nil
	}
	if len(s) == 8 {
		if key, err := strconv.Atoi(s); err == nil && Valid(key) {
			return key, nil
		}
	}
	return 0, fmt.Errorf("invalid date %q: want YYYY-MM-DD or YYYYMMDD", s)
}
