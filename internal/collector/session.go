package collector

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionClock dates the trading session a realtime quote belongs to.
//
// Night trading on Chinese futures exchanges opens at 21:00 and counts toward
// the next trading day. The session date is the calendar date, in the
// exchange timezone, of the next firing of the cutover schedule. With the
// default "0 21 * * *" that is today before 21:00 and tomorrow after it.
type SessionClock struct {
	schedule cron.Schedule
	loc      *time.Location
}

// NewSessionClock parses a standard five-field cron spec evaluated in tz.
func NewSessionClock(tz, spec string) (*SessionClock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("session timezone: %w", err)
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("session cutover %q: %w", spec, err)
	}
	return &SessionClock{schedule: schedule, loc: loc}, nil
}

// SessionDate returns the session date for now as a UTC midnight value.
func (c *SessionClock) SessionDate(now time.Time) time.Time {
	next := c.schedule.Next(now.In(c.loc)).In(c.loc)
	return dateOnly(next)
}

// Today returns the exchange-local calendar date of now.
func (c *SessionClock) Today(now time.Time) time.Time {
	return dateOnly(now.In(c.loc))
}
