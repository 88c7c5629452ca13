package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewLogID()
		assert.Len(t, id, 32)
		assert.True(t, ValidLogID(id), "expected lowercase hex, got %q", id)
		assert.False(t, seen[id], "duplicate LogID %q", id)
		seen[id] = true
	}
}

func TestValidLogID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{name: "generated", id: NewLogID(), valid: true},
		{name: "too short", id: "abc123", valid: false},
		{name: "non-hex chars", id: strings.Repeat("z", 32), valid: false},
		{name: "empty", id: "", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidLogID(tt.id))
		})
	}
}

func TestHeadersWithLogID(t *testing.T) {
	l := NewLogger()
	l.SetLogID("0123456789abcdef0123456789abcdef")

	headers := l.HeadersWithLogID()
	assert.Equal(t, "0123456789abcdef0123456789abcdef", headers["logId"])
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestLoggerBuffersPerLogID(t *testing.T) {
	l := NewLogger()
	id := NewLogID()
	l.SetLogID(id)

	l.Debug("debug line")
	l.Info("info line %d", 42)
	l.Warn("warn line")

	lines := l.BufferedLines(id)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[DEBUG]")
	assert.Contains(t, lines[0], "debug line")
	assert.Contains(t, lines[1], "info line 42")
	assert.Contains(t, lines[2], "[WARN]")
	for _, line := range lines {
		assert.Contains(t, line, "["+id+"]")
		assert.Contains(t, line, "logging_test.go:")
	}
}

func TestTestCompleteClearsBuffer(t *testing.T) {
	l := NewLogger()
	id := NewLogID()
	l.SetLogID(id)

	l.TestStart("some test")
	l.Info("doing work")
	l.TestComplete("some test", true)

	assert.Empty(t, l.BufferedLines(id))
}

func TestLoggerSwitchingLogIDsKeepsBuffersSeparate(t *testing.T) {
	l := NewLogger()
	first := NewLogID()
	second := NewLogID()

	l.SetLogID(first)
	l.Info("first message")
	l.SetLogID(second)
	l.Info("second message")

	require.Len(t, l.BufferedLines(first), 1)
	require.Len(t, l.BufferedLines(second), 1)
	assert.Contains(t, l.BufferedLines(first)[0], "first message")
	assert.Contains(t, l.BufferedLines(second)[0], "second message")
}

func TestLoggerHelpers(t *testing.T) {
	l := NewLogger()
	id := NewLogID()
	l.SetLogID(id)

	l.APICall("GET", "http://example.com/api/users", 200, 150*time.Millisecond)
	l.Assertion("status code is 200", true)
	l.Assertion("body has users", false)
	l.DataValidation("email", "a@b.com", "a@b.com", true)

	lines := strings.Join(l.BufferedLines(id), "\n")
	assert.Contains(t, lines, "API GET http://example.com/api/users -> 200")
	assert.Contains(t, lines, "ASSERT PASS: status code is 200")
	assert.Contains(t, lines, "ASSERT FAIL: body has users")
	assert.Contains(t, lines, "VALIDATE email")
}

func TestSanitizeTestcase(t *testing.T) {
	assert.Equal(t, "pkg_TestFoo_sub_case",
		SanitizeTestcase("pkg::TestFoo/sub\\case"))
}

func TestFileSinkWrites(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(FileConfig{
		Enabled:         true,
		Directory:       dir,
		FilenamePattern: "pte_{date}_{level}.log",
		SeparateByLevel: true,
	})
	require.NoError(t, err)
	defer sink.Close()

	sink.Write(LevelInfo, "deadbeef", "hello from the sink")

	name := filepath.Join(dir, "pte_"+time.Now().Format("20060102")+"_info.log")
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the sink")
}

func TestFileSinkSingleFileWhenNotSeparated(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(FileConfig{
		Directory:       dir,
		FilenamePattern: "pte_{level}.log",
	})
	require.NoError(t, err)
	defer sink.Close()

	sink.Write(LevelInfo, "id", "one")
	sink.Write(LevelError, "id", "two")

	data, err := os.ReadFile(filepath.Join(dir, "pte_all.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "one")
	assert.Contains(t, string(data), "two")
}

func TestFileSinkRetentionCleanup(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "pte_20200101_info.log")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	old := time.Now().AddDate(0, 0, -60)
	require.NoError(t, os.Chtimes(stale, old, old))

	sink, err := NewFileSink(FileConfig{Directory: dir, RetentionDays: 30})
	require.NoError(t, err)
	defer sink.Close()

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "expected stale log to be pruned")
}

func TestFileSinkSizeRotation(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(FileConfig{
		Directory:       dir,
		FilenamePattern: "pte.log",
		MaxSizeMB:       1,
		MaxBackups:      2,
	})
	require.NoError(t, err)
	defer sink.Close()

	line := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		sink.Write(LevelInfo, "id", line)
	}

	_, err = os.Stat(filepath.Join(dir, "pte.log.1"))
	assert.NoError(t, err, "expected a rotated backup after exceeding max size")
}

func TestNewScopedSharesDefaultSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(FileConfig{
		Directory:       dir,
		FilenamePattern: "pte_{level}.log",
	})
	require.NoError(t, err)

	prev := Default()
	SetDefault(NewLoggerWithSink(sink))
	t.Cleanup(func() {
		_ = Default().Close()
		SetDefault(prev)
	})

	scoped := NewScoped()
	scoped.Info("scoped line under %s", scoped.LogID())

	data, err := os.ReadFile(filepath.Join(dir, "pte_all.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "scoped line under "+scoped.LogID())
	assert.Contains(t, string(data), "["+scoped.LogID()+"]")

	// Closing the scoped logger must not close the shared sink.
	require.NoError(t, scoped.Close())
	Default().Info("still writable")
	data, err = os.ReadFile(filepath.Join(dir, "pte_all.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "still writable")
}

func TestFileSinkRotatesCarriedOverFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "pte_info.log")
	require.NoError(t, os.WriteFile(name, []byte("line from yesterday\n"), 0o644))
	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, os.Chtimes(name, yesterday, yesterday))

	sink, err := NewFileSink(FileConfig{
		Directory:       dir,
		FilenamePattern: "pte_{level}.log",
		RotateByDate:    true,
		SeparateByLevel: true,
	})
	require.NoError(t, err)
	defer sink.Close()

	sink.Write(LevelInfo, "id", "line from today")

	rotated, err := os.ReadFile(name + "." + yesterday.Format("20060102"))
	require.NoError(t, err)
	assert.Contains(t, string(rotated), "line from yesterday")

	current, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(current), "line from today")
	assert.NotContains(t, string(current), "line from yesterday")
}
