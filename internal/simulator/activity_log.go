package simulator

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ActivityLog is a thread-safe ring of "millis: message" lines, the format
// the firmware serves from /api/log.
type ActivityLog struct {
	mu    sync.RWMutex
	lines []string
	cap   int
	now   func() time.Time
}

// NewActivityLog creates a log holding at most capacity lines
func NewActivityLog(capacity int) *ActivityLog {
	return &ActivityLog{
		lines: make([]string, 0, capacity),
		cap:   capacity,
		now:   time.Now,
	}
}

// Add appends a line, dropping the oldest when full
func (l *ActivityLog) Add(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%d: %s", l.now().UnixMilli(), message)

	if len(l.lines) >= l.cap {
		// Shift everything left by 1, drop oldest
		copy(l.lines, l.lines[1:])
		l.lines[len(l.lines)-1] = line
	} else {
		l.lines = append(l.lines, line)
	}
}

// Addf formats and appends a line
func (l *ActivityLog) Addf(format string, args ...interface{}) {
	l.Add(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the lines, oldest first
func (l *ActivityLog) Lines() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]string, len(l.lines))
	copy(result, l.lines)
	return result
}

// HTML joins the lines with <br>
func (l *ActivityLog) HTML() string {
	return strings.Join(l.Lines(), "<br>")
}
