package wsmprpc

import "github.com/sirupsen/logrus"

// Logger is the leveled logging surface Server and Client use for
// diagnostics (ambient stack, not part of the wire protocol). It is
// satisfied by *logrus.Logger and *logrus.Entry.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// defaultLogger wraps logrus's package-level standard logger, the same way
// the teacher's service_config.go reaches for its sibling grpclog package
// rather than rolling its own.
func defaultLogger() Logger {
	return logrus.StandardLogger()
}
