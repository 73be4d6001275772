package habits

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DebugLogger provides opt-in debug logging for analysis runs. When
// enabled, it logs pipeline stage transitions, clustering statistics,
// per-cluster skip decisions, and external HTTP traffic.
type DebugLogger struct {
	mu      sync.Mutex
	enabled bool
	writer  io.Writer
}

// NewDebugLogger creates a new debug logger.
// If logPath is empty, logs to stderr.
func NewDebugLogger(enabled bool, logPath string) (*DebugLogger, error) {
	var writer io.Writer = os.Stderr

	if enabled && logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open debug log: %w", err)
		}
		writer = f
	}

	return &DebugLogger{
		enabled: enabled,
		writer:  writer,
	}, nil
}

// Close closes the debug logger if it's writing to a file.
func (l *DebugLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if closer, ok := l.writer.(io.Closer); ok && l.writer != os.Stderr {
		return closer.Close()
	}
	return nil
}

// Log writes a debug message if logging is enabled.
func (l *DebugLogger) Log(format string, args ...any) {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(l.writer, "[%s] [HABITS DEBUG] %s\n", timestamp, msg)
}

// LogStage logs a pipeline stage transition.
func (l *DebugLogger) LogStage(stage string, format string, args ...any) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("STAGE [%s]: %s", stage, fmt.Sprintf(format, args...))
}

// LogSkip logs a per-cluster skip decision.
func (l *DebugLogger) LogSkip(skip *ClusterSkipError) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("SKIP %v", skip)
}

// LogError logs an error with full details.
func (l *DebugLogger) LogError(operation string, err error) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("ERROR [%s]: %v", operation, err)
}

// LogRequest logs an outgoing HTTP request.
func (l *DebugLogger) LogRequest(method, url string) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("REQUEST %s %s", method, url)
}

// LogResponse logs an HTTP response.
func (l *DebugLogger) LogResponse(statusCode int, bodyLen int) {
	if l == nil || !l.enabled {
		return
	}
	l.Log("RESPONSE %d (%d bytes)", statusCode, bodyLen)
}
