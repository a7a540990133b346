package refresh

import "time"

// Session is a coarse market-session bucket used to pick the polling
// cadence.
type Session string

const (
	SessionRegular   Session = "regular"
	SessionExtended  Session = "extended"
	SessionOvernight Session = "overnight"
	SessionWeekend   Session = "weekend"
)

// marketTZ is the exchange timezone. Loading can only fail on a host
// without tzdata, in which case UTC is close enough to keep polling.
var marketTZ = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// SetTimezone overrides the exchange clock used for session bucketing.
// Call before Start; session lookups are not synchronized with it.
func SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	marketTZ = loc
	return nil
}

// SessionAt buckets an instant into its market session
func SessionAt(t time.Time) Session {
	local := t.In(marketTZ)

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return SessionWeekend
	}

	minutes := local.Hour()*60 + local.Minute()
	switch {
	case minutes >= 9*60+30 && minutes < 16*60:
		return SessionRegular
	case minutes >= 4*60 && minutes < 9*60+30:
		return SessionExtended
	case minutes >= 16*60 && minutes < 20*60:
		return SessionExtended
	default:
		return SessionOvernight
	}
}

// Interval returns the polling cadence for a session. Active hours
// poll tighter; quiet hours back off.
func (s Session) Interval() time.Duration {
	switch s {
	case SessionRegular:
		return 5 * time.Minute
	case SessionExtended:
		return 10 * time.Minute
	case SessionWeekend:
		return 15 * time.Minute
	default:
		return 20 * time.Minute
	}
}
