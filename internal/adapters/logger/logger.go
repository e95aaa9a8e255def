// Package logger adapts logr to the domain Logger interface.
package logger

import (
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// debugLevel is the logr verbosity Debug messages are written at.
const debugLevel = 1

// Logger writes domain log messages through a logr.Logger.
type Logger struct {
	log logr.Logger
}

// New returns a logger writing to w. Debug messages are dropped unless verbose is set.
func New(w io.Writer, verbose bool) *Logger {
	if verbose {
		stdr.SetVerbosity(debugLevel)
	} else {
		stdr.SetVerbosity(0)
	}
	std := log.New(w, "", log.LstdFlags)
	return FromLogr(stdr.New(std).WithName("mobserve"))
}

// FromLogr wraps an existing logr.Logger.
func FromLogr(l logr.Logger) *Logger {
	return &Logger{log: l}
}

func (l *Logger) Debug(message string) {
	l.log.V(debugLevel).Info(message)
}

func (l *Logger) Error(message string) {
	l.log.Error(nil, message)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return FromLogr(logr.Discard())
}
