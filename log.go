package portlib

import "github.com/sirupsen/logrus"

// log is the package logger. Rejected writes, bad data shapes and calendar
// mismatches are reported here rather than raised.
var log = logrus.StandardLogger()

// SetLogger replaces the package logger.
func SetLogger(l *logrus.Logger) { log = l }
