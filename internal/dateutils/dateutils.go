// Package dateutils parses the purchase dates found in marketplace exports.
package dateutils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayoutISO   = "2006-01-02"
	DateLayoutSlash = "2006/01/02"
	DateLayoutFull  = "2006-01-02 15:04:05"
)

var isoDay = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)

// dayLayouts carry no time of day; they are anchored at noon UTC.
// Slash dates are read month-first before day-first.
var dayLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"01/02/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
}

// instantLayouts carry a time of day. Layouts without a zone are read as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateLayoutFull,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05 MST",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006 3:04 PM",
	time.RFC1123Z,
	time.RFC1123,
}

// NoonUTC returns 12:00 UTC of the calendar day (y, m, d). Anchoring at noon
// keeps the day stable when rendered in any timezone within ±12h.
func NoonUTC(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// ParsePurchaseDate reads a purchase date. YYYY-MM-DD and YYYY/MM/DD become
// noon UTC of that day; other layouts are tried in turn. When nothing
// matches, now (in UTC) is returned together with ok=false.
func ParsePurchaseDate(s string, now time.Time) (t time.Time, ok bool) {
	s = CleanDateString(s)
	if s == "" {
		return now.UTC(), false
	}

	if m := isoDay.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		day := NoonUTC(y, time.Month(mo), d)
		if day.Month() == time.Month(mo) && day.Day() == d {
			return day, true
		}
		return now.UTC(), false
	}

	for _, layout := range dayLayouts {
		if p, err := time.Parse(layout, s); err == nil {
			return NoonUTC(p.Year(), p.Month(), p.Day()), true
		}
	}
	for _, layout := range instantLayouts {
		if p, err := time.Parse(layout, s); err == nil {
			return p.UTC(), true
		}
	}
	return now.UTC(), false
}

// FromUnix converts a unix timestamp to UTC. Values too large to be seconds
// are read as milliseconds.
func FromUnix(v int64) time.Time {
	if v > 1e11 || v < -1e11 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

// ParseUnixOrDate accepts either a numeric unix timestamp or any layout
// understood by ParsePurchaseDate.
func ParseUnixOrDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return FromUnix(n), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return FromUnix(int64(f)), true
	}
	return ParsePurchaseDate(s, now)
}

// ToISODate formats t as YYYY-MM-DD in UTC.
func ToISODate(t time.Time) string {
	return t.UTC().Format(DateLayoutISO)
}

var spaces = regexp.MustCompile(`\s+`)

// CleanDateString trims s and collapses runs of whitespace.
func CleanDateString(s string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}
