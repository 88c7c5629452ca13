package logging

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

const lineTimeFormat = "2006-01-02 15:04:05.000"

// Logger is the correlation-aware log sink. Every line is tagged with the
// current LogID and buffered per test; the console only shows errors while a
// test runs, and the full buffer is emitted as one consolidated block when
// the test completes.
type Logger struct {
	mu      sync.Mutex
	logID   string
	records map[string]map[LogLevel][]string

	console *zap.Logger
	sink    *FileSink

	// borrowedSink marks a sink owned by another Logger; Close leaves it open.
	borrowedSink bool
}

// NewLogger creates a Logger whose live console output (stderr) carries only
// error-level lines. Buffered lines of every level are kept per LogID.
func NewLogger() *Logger {
	return NewLoggerWithSink(nil)
}

// NewLoggerWithSink creates a Logger that additionally mirrors every line to
// the given file sink. A nil sink disables file output.
func NewLoggerWithSink(sink *FileSink) *Logger {
	enc := zapcore.NewConsoleEncoder(encoderConfig())
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zapcore.ErrorLevel)
	console := zap.New(core)

	return &Logger{
		logID:   NewLogID(),
		records: make(map[string]map[LogLevel][]string),
		console: console,
		sink:    sink,
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		TimeKey:          "ts",
		NameKey:          "logid",
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format(lineTimeFormat) + "]")
		},
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + strings.ToUpper(l.String()) + "]")
		},
		EncodeName: func(n string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + n + "]")
		},
	}
}

// SetLogID switches the correlation identifier used for subsequent lines.
func (l *Logger) SetLogID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logID = id
}

// LogID returns the current correlation identifier.
func (l *Logger) LogID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logID
}

// HeadersWithLogID returns the HTTP headers carrying the current LogID.
func (l *Logger) HeadersWithLogID() map[string]string {
	return map[string]string{
		"logId":        l.LogID(),
		"Content-Type": "application/json",
	}
}

// formatLine renders the canonical line layout:
// [ts] [LEVEL] [logid] [file:line] msg
func formatLine(level LogLevel, logID, caller, msg string) string {
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s",
		time.Now().Format(lineTimeFormat), level, logID, caller, msg)
}

func callerRef(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown:0"
	}
	parts := strings.Split(file, "/")
	return fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	caller := callerRef(3)

	l.mu.Lock()
	id := l.logID
	if l.records[id] == nil {
		l.records[id] = make(map[LogLevel][]string)
	}
	line := formatLine(level, id, caller, msg)
	l.records[id][level] = append(l.records[id][level], line)
	l.mu.Unlock()

	if level == LevelError {
		l.console.Named(id).Error(fmt.Sprintf("[%s] %s", caller, msg))
	}
	if l.sink != nil {
		l.sink.Write(level, id, line)
	}
}

// Debug records a debug line under the current LogID.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info records an info line under the current LogID.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn records a warning line under the current LogID.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error records an error line under the current LogID. Errors also go to the
// console immediately.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// APICall records a single HTTP exchange.
func (l *Logger) APICall(method, url string, status int, elapsed time.Duration) {
	l.log(LevelInfo, "API %s %s -> %d (%.3fs)", method, url, status, elapsed.Seconds())
}

// Assertion records the outcome of one assertion.
func (l *Logger) Assertion(description string, ok bool) {
	if ok {
		l.log(LevelInfo, "ASSERT PASS: %s", description)
	} else {
		l.log(LevelError, "ASSERT FAIL: %s", description)
	}
}

// DataValidation records a field-level comparison.
func (l *Logger) DataValidation(field string, expected, actual interface{}, ok bool) {
	if ok {
		l.log(LevelInfo, "VALIDATE %s: expected=%v actual=%v", field, expected, actual)
	} else {
		l.log(LevelError, "VALIDATE %s FAILED: expected=%v actual=%v", field, expected, actual)
	}
}

// TestStart records the beginning of a test under a fresh buffer.
func (l *Logger) TestStart(name string) {
	l.log(LevelInfo, "TEST START: %s", name)
}

// TestComplete flushes the consolidated buffer for the current LogID to
// stdout, grouped by level, and clears it.
func (l *Logger) TestComplete(name string, passed bool) {
	verdict := "PASSED"
	if !passed {
		verdict = "FAILED"
	}
	l.log(LevelInfo, "TEST COMPLETE: %s [%s]", name, verdict)

	l.mu.Lock()
	id := l.logID
	buffered := l.records[id]
	delete(l.records, id)
	l.mu.Unlock()

	if len(buffered) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "==== consolidated log [%s] %s ====\n", id, name)
	levels := make([]LogLevel, 0, len(buffered))
	for level := range buffered {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	for _, level := range levels {
		for _, line := range buffered[level] {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	fmt.Fprint(os.Stdout, b.String())
}

// BufferedLines returns a copy of the buffered lines for the given LogID,
// mainly for inspection by callers that attach logs to reports.
func (l *Logger) BufferedLines(id string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	levels := make([]LogLevel, 0, len(l.records[id]))
	for level := range l.records[id] {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	for _, level := range levels {
		out = append(out, l.records[id][level]...)
	}
	return out
}

// Close releases the file sink, if any. Loggers that borrow another
// logger's sink leave it open.
func (l *Logger) Close() error {
	if l.sink != nil && !l.borrowedSink {
		return l.sink.Close()
	}
	return nil
}

var (
	std   = NewLogger()
	stdMu sync.Mutex
)

// Default returns the process-wide Logger shared by the API client, the
// retry engine, and the scenario runner.
func Default() *Logger {
	return std
}

// SetDefault replaces the process-wide Logger. Used at startup when a file
// sink is configured.
func SetDefault(l *Logger) {
	stdMu.Lock()
	defer stdMu.Unlock()
	std = l
}

// NewScoped creates a Logger with its own fresh LogID that shares the
// default logger's file sink, so lines logged under the scoped LogID still
// reach the configured log files. The sink stays owned by the default
// logger; Close on a scoped logger leaves it open.
func NewScoped() *Logger {
	stdMu.Lock()
	sink := std.sink
	stdMu.Unlock()
	l := NewLoggerWithSink(sink)
	l.borrowedSink = sink != nil
	return l
}

// SetLogID switches the default logger's correlation identifier.
func SetLogID(id string) { std.SetLogID(id) }

// CurrentLogID returns the default logger's correlation identifier.
func CurrentLogID() string { return std.LogID() }

// Debug logs a debug message on the default logger.
func Debug(format string, args ...interface{}) { std.log(LevelDebug, format, args...) }

// Info logs an informational message on the default logger.
func Info(format string, args ...interface{}) { std.log(LevelInfo, format, args...) }

// Warn logs a warning message on the default logger.
func Warn(format string, args ...interface{}) { std.log(LevelWarn, format, args...) }

// Error logs an error message on the default logger.
func Error(format string, args ...interface{}) { std.log(LevelError, format, args...) }
