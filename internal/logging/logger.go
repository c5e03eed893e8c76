// Package logging provides the labelled, klog-backed logger used across the
// client.
package logging

import (
	"fmt"

	"github.com/plan-systems/klog"
)

// Logger abstracts basic logging functions.
type Logger interface {
	LogLabel() string
	LogV(verboseLevel int32) bool
	Info(verboseLevel int32, args ...interface{})
	Infof(verboseLevel int32, format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
}

type logger struct {
	logPrefix string
	logLabel  string
}

// New creates a Logger whose entries are prefixed with "[label] ".
func New(label string) Logger {
	l := &logger{logLabel: label}
	if label != "" {
		l.logPrefix = fmt.Sprintf("[%s] ", label)
	}
	return l
}

// LogLabel returns the label given to New.
func (l *logger) LogLabel() string {
	return l.logLabel
}

// LogV returns true if logging is currently enabled for log verbose level.
func (l *logger) LogV(verboseLevel int32) bool {
	return klog.V(klog.Level(verboseLevel)).Enabled()
}

// Info logs to the INFO log.
//
// Verbose level conventions:
//  0. Important high-level events, such as a completed onboarding.
//  1. Changes in key state and chain round trips.
//  2. Low-level troubleshooting, such as individual receipt polls.
func (l *logger) Info(verboseLevel int32, args ...interface{}) {
	if verboseLevel == 0 || l.LogV(verboseLevel) {
		klog.InfoDepth(1, l.logPrefix, fmt.Sprint(args...))
	}
}

// Infof logs to the INFO log.
// See Info for guidelines on verboseLevel.
func (l *logger) Infof(verboseLevel int32, format string, args ...interface{}) {
	if verboseLevel == 0 || l.LogV(verboseLevel) {
		klog.InfoDepth(1, l.logPrefix, fmt.Sprintf(format, args...))
	}
}

// Warn logs to the WARNING and INFO logs.
//
// Warnings are for situations the client recovers from on its own, such as
// onboarding triggered implicitly by an encrypt call.
func (l *logger) Warn(args ...interface{}) {
	klog.WarningDepth(1, l.logPrefix, fmt.Sprint(args...))
}

// Warnf logs to the WARNING and INFO logs.
func (l *logger) Warnf(format string, args ...interface{}) {
	klog.WarningDepth(1, l.logPrefix, fmt.Sprintf(format, args...))
}

// Error logs to the ERROR, WARNING, and INFO logs.
func (l *logger) Error(args ...interface{}) {
	klog.ErrorDepth(1, l.logPrefix, fmt.Sprint(args...))
}

// Errorf logs to the ERROR, WARNING, and INFO logs.
func (l *logger) Errorf(format string, args ...interface{}) {
	klog.ErrorDepth(1, l.logPrefix, fmt.Sprintf(format, args...))
}

type discard struct{}

// Discard returns a Logger that drops every entry.
func Discard() Logger { return discard{} }

func (discard) LogLabel() string                    { return "" }
func (discard) LogV(int32) bool                     { return false }
func (discard) Info(int32, ...interface{})          {}
func (discard) Infof(int32, string, ...interface{}) {}
func (discard) Warn(...interface{})                 {}
func (discard) Warnf(string, ...interface{})        {}
func (discard) Error(...interface{})                {}
func (discard) Errorf(string, ...interface{})       {}
