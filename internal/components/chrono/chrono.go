package chrono

import (
	"time"
)

// LocalLayout is the layout of localized display strings.
const LocalLayout = "2006-01-02 15:04:05"

// LoadLocation resolves an IANA timezone name (ex. "America/Los_Angeles").
// An empty name resolves to a nil location, meaning "no timezone configured".
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	return time.LoadLocation(name)
}

// LocalString formats an instant in the given location using LocalLayout.
func LocalString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(LocalLayout)
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct {
	loc *time.Location
}

// NewStandardTime is the constructor of StandardTime, loc may be nil in which case
// times are returned in UTC.
func NewStandardTime(loc *time.Location) StandardTime {
	return StandardTime{loc: loc}
}

func (s StandardTime) Now() time.Time {
	if s.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(s.loc)
}

// FixedTime is a TimeAPI that always returns the same instant.
type FixedTime time.Time

func (f FixedTime) Now() time.Time {
	return time.Time(f)
}
