package application

import "time"

// Clock lets the services take timestamps without calling time.Now directly,
// so tests can pin them.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock. All portal timestamps (upload time,
// error rows, summaries) are stored and compared in UTC; the retention
// schedule runs in UTC as well.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
