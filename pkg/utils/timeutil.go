package utils

import (
	"time"
)

// ET is the US Eastern time location used by NYSE/NASDAQ.
var ET *time.Location

func init() {
	var err error
	ET, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed EST if the tz database is not available
		ET = time.FixedZone("EST", -5*60*60)
	}
}

// NowET returns the current time in US Eastern time.
func NowET() time.Time {
	return time.Now().In(ET)
}

// MarketOpenTime returns the regular-session open (9:30 AM ET) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, ET)
}

// MarketCloseTime returns the regular-session close (4:00 PM ET) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, ET)
}

// IsTradingDay reports whether t falls on a weekday. Exchange holidays are
// not modelled.
func IsTradingDay(t time.Time) bool {
	wd := t.In(ET).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// MarketStatusAt returns the US equity market session status at t.
func MarketStatusAt(t time.Time) string {
	now := t.In(ET)
	if !IsTradingDay(now) {
		return "CLOSED (Weekend)"
	}
	switch {
	case now.Before(MarketOpenTime(now)):
		return "PRE-MARKET"
	case !now.After(MarketCloseTime(now)):
		return "OPEN"
	default:
		return "CLOSED"
	}
}

// MarketStatus returns the current market status string.
func MarketStatus() string {
	return MarketStatusAt(time.Now())
}

// HistoryRange returns the [from, to] window covering the given number of
// calendar days up to end.
func HistoryRange(end time.Time, days int) (from, to time.Time) {
	if days <= 0 {
		days = 365
	}
	return end.AddDate(0, 0, -days), end
}

// FormatDate formats a time.Time to "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateTimeET formats a time.Time to "2006-01-02 15:04:05 ET".
func FormatDateTimeET(t time.Time) string {
	return t.In(ET).Format("2006-01-02 15:04:05") + " ET"
}
