// Package logging provides the correlation-aware logging system for pte with
// per-test buffering and optional file output.
//
// This package implements a logging system built on zap, keyed by a generated
// LogID so that every HTTP call, retry attempt, and assertion made during one
// test can be traced together.
//
// # Architecture
//
// The logging system is built around these core concepts:
//
// ## LogID
// A 32 character lowercase hex identifier generated per test run (see
// NewLogID). The same value is attached to outgoing HTTP requests as the
// "logId" header and to every log line produced while the test runs.
//
// ## Per-test buffering
// Lines of every level accumulate in memory under their LogID. While a test
// runs the console only shows errors; when the test completes the full buffer
// is flushed to stdout as a single consolidated block, grouped by level.
//
// ## File sink
// An optional FileSink mirrors every line to disk. Filenames are resolved
// from a pattern with {date}, {time}, {datetime}, {level}, {logid} and
// {testcase} placeholders. Files rotate at date boundaries or on size,
// rotated files can be gzip-compressed, and files older than the retention
// window are pruned on startup.
//
// # Usage Examples
//
//	import "pte/pkg/logging"
//
//	logging.SetLogID(logging.NewLogID())
//	logging.Default().TestStart("create user")
//	logging.Info("creating user %s", user.Email)
//	logging.Default().APICall("POST", url, 201, elapsed)
//	logging.Default().TestComplete("create user", true)
//
// With a file sink:
//
//	sink, err := logging.NewFileSink(logging.FileConfig{
//	    Enabled:   true,
//	    Directory: "logs",
//	})
//	if err == nil {
//	    logging.SetDefault(logging.NewLoggerWithSink(sink))
//	}
//
// # Thread Safety
//
// The logging system is fully thread-safe: buffers and sink files are
// protected by mutexes, so scenarios running in parallel can log under
// distinct LogIDs concurrently.
package logging
