// Package debug provides opt-in diagnostic logging. Playback failures
// in the schedule fire path are swallowed in normal operation and only
// surface here.
package debug

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	sink    *os.File
	enabled bool
)

// Enable starts logging to the given path, truncating any previous log.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if enabled {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	sink = f
	enabled = true
	fmt.Fprintf(sink, "[%s] %-8s log opened\n", time.Now().Format("15:04:05.000"), "debug")
	return nil
}

// Disable stops logging and closes the sink.
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		sink.Close()
		sink = nil
	}
	enabled = false
}

// Logf writes one categorized line when logging is enabled, otherwise
// it is a cheap no-op.
func Logf(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || sink == nil {
		return
	}
	fmt.Fprintf(sink, "[%s] %-8s %s\n", time.Now().Format("15:04:05.000"), category, fmt.Sprintf(format, args...))
	sink.Sync() // flush so the line survives a crash
}
