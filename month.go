package tripdata

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// csvExtCutover is the last month published under the old
// "YYYYMM-citibike-tripdata.csv.zip" naming. Archives for later months
// drop the ".csv" infix.
var csvExtCutover = Month{Year: 2024, Month: time.April}

// Month identifies one month of published trip data.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a month in "YYYYMM" or "YYYY-MM" format.
func ParseMonth(s string) (Month, error) {
	for _, layout := range []string{"200601", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, errors.Errorf("invalid month %q, want YYYYMM or YYYY-MM", s)
}

// String renders the month as YYYYMM, matching the remote naming scheme.
func (m Month) String() string {
	return fmt.Sprintf("%04d%02d", m.Year, int(m.Month))
}

// Filename returns the canonical remote archive name for the month.
func (m Month) Filename() string {
	if m.After(csvExtCutover) {
		return m.String() + "-citibike-tripdata.zip"
	}
	return m.String() + "-citibike-tripdata.csv.zip"
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Prev returns the preceding calendar month.
func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

// After reports whether m is later than o.
func (m Month) After(o Month) bool {
	return o.Before(m)
}

// start returns midnight UTC on the first day of the month.
func (m Month) start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// PublishedBy reports whether the month's archive is expected to exist at
// time t. The publisher uploads an archive some days after the month ends;
// lagDays is that delay.
func (m Month) PublishedBy(t time.Time, lagDays int) bool {
	available := m.Next().start().AddDate(0, 0, lagDays)
	return !t.Before(available)
}

// LatestPublished returns the most recent month whose archive is expected
// to exist at time t. With a zero lag this is always the previous calendar
// month.
func LatestPublished(t time.Time, lagDays int) Month {
	m := MonthOf(t)
	for !m.PublishedBy(t, lagDays) {
		m = m.Prev()
	}
	return m
}

// MonthsBetween enumerates every month from start through end inclusive.
// Returns nil when end precedes start.
func MonthsBetween(start, end Month) []Month {
	if end.Before(start) {
		return nil
	}
	var months []Month
	for m := start; !m.After(end); m = m.Next() {
		months = append(months, m)
	}
	return months
}
