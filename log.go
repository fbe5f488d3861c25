package tripdata

import "github.com/sirupsen/logrus"

func (f *Fetcher) logf(format string, args ...interface{}) {
	if f.EnableLog {
		logrus.Printf(format, args...)
	}
}

func (f *Fetcher) verbosef(format string, args ...interface{}) {
	if f.EnableVerboseLog {
		logrus.Printf(format, args...)
	}
}

// warnf is not gated: failed downloads must stay visible so the month or
// URL can be retried manually.
func (f *Fetcher) warnf(format string, args ...interface{}) {
	logrus.Warnf(format, args...)
}
