package export

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ErrInvalidDateRange is returned for unparseable dates or a start date
// after the end date.
var ErrInvalidDateRange = errors.New("invalid date range")

// exportZone is the timezone in which admins pick export dates.
var exportZone = mustLoadZone("Asia/Singapore")

func mustLoadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 8*60*60)
	}
	return loc
}

// ParseDateRange turns YYYY-MM-DD bounds into a half-open time range. The
// end date is inclusive, so the returned end is the start of the next day.
// Empty bounds are returned as zero times.
func ParseDateRange(start, end string) (from, to time.Time, err error) {
	if start != "" {
		if from, err = time.ParseInLocation(dateLayout, start, exportZone); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start date %q", ErrInvalidDateRange, start)
		}
	}
	if end != "" {
		if to, err = time.ParseInLocation(dateLayout, end, exportZone); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %q", ErrInvalidDateRange, end)
		}
		to = to.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date after end date", ErrInvalidDateRange)
	}
	return from, to, nil
}
