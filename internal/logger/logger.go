// Package logger provides leveled logging for mediakeep.
package logger

import (
	"log"
	"os"
)

var debugEnabled = os.Getenv("MEDIAKEEP_DEBUG") != ""

// Info logs informational messages
func Info(format string, args ...interface{}) {
	log.Printf("INFO: "+format, args...)
}

// Warn logs warning messages
func Warn(format string, args ...interface{}) {
	log.Printf("WARN: "+format, args...)
}

// Error logs error messages
func Error(format string, args ...interface{}) {
	log.Printf("ERROR: "+format, args...)
}

// Debug logs debug messages when MEDIAKEEP_DEBUG is set
func Debug(format string, args ...interface{}) {
	if !debugEnabled {
		return
	}
	log.Printf("DEBUG: "+format, args...)
}
