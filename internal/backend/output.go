package backend

import (
	"bytes"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// maxLineBytes caps a single buffered output line
const maxLineBytes = 64 << 10

// lineLogger forwards subprocess output to the log one line at a time
type lineLogger struct {
	logger *zap.SugaredLogger
	stream string

	mu  sync.Mutex
	buf bytes.Buffer
}

func newLineLogger(logger *zap.SugaredLogger, stream string) *lineLogger {
	return &lineLogger{logger: logger, stream: stream}
}

// Write implements io.Writer
func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf.Write(p)
	for {
		idx := bytes.IndexByte(l.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(l.buf.Next(idx + 1))
		l.logLine(strings.TrimRight(line, "\r\n"))
	}

	if l.buf.Len() > maxLineBytes {
		l.logLine(l.buf.String())
		l.buf.Reset()
	}
	return len(p), nil
}

// Flush logs any trailing partial line
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.buf.Len() > 0 {
		l.logLine(l.buf.String())
		l.buf.Reset()
	}
}

func (l *lineLogger) logLine(line string) {
	if line == "" {
		return
	}
	if isErrorLine(line) {
		l.logger.Warnw("Backend error output", "stream", l.stream, "line", line)
		return
	}
	l.logger.Debugw("Backend output", "stream", l.stream, "line", line)
}

func isErrorLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "error") ||
		strings.Contains(lower, "failed") ||
		strings.Contains(lower, "traceback") ||
		strings.Contains(lower, "panic")
}
