package server

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info" or "error"
}

// WebLogger implements core.Logger, mirroring messages to out and keeping
// the most recent ones for the /api/console endpoint
type WebLogger struct {
	mu       sync.Mutex
	out      io.Writer
	limit    int
	messages []ConsoleMessage
}

// NewWebLogger creates a logger that retains up to limit messages
func NewWebLogger(limit int, out io.Writer) *WebLogger {
	if limit < 1 {
		limit = 1
	}
	if out == nil {
		out = io.Discard
	}
	return &WebLogger{out: out, limit: limit}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	level := "info"
	lower := strings.ToLower(message)
	if strings.Contains(lower, "fail") || strings.Contains(lower, "error") || strings.Contains(lower, "panic") {
		level = "error"
	}

	wl.mu.Lock()
	defer wl.mu.Unlock()

	fmt.Fprint(wl.out, message)
	wl.messages = append(wl.messages, ConsoleMessage{
		Message:   message,
		Timestamp: time.Now(),
		Level:     level,
	})
	if overflow := len(wl.messages) - wl.limit; overflow > 0 {
		wl.messages = append(wl.messages[:0], wl.messages[overflow:]...)
	}
}

// Messages returns the retained messages logged after since, oldest first
func (wl *WebLogger) Messages(since time.Time) []ConsoleMessage {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	result := make([]ConsoleMessage, 0, len(wl.messages))
	for _, msg := range wl.messages {
		if msg.Timestamp.After(since) {
			result = append(result, msg)
		}
	}
	return result
}
