package clock

import "time"

// Clock is the wall-clock source for command timestamps and the
// announcement scheduler.
type Clock struct{}

// NowUnix returns the current unix time in seconds.
func (Clock) NowUnix() int64 {
	return time.Now().Unix()
}
