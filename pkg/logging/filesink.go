package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileConfig controls the optional log file sink.
type FileConfig struct {
	Enabled         bool   `yaml:"enabled" koanf:"enabled"`
	Directory       string `yaml:"directory" koanf:"directory"`
	FilenamePattern string `yaml:"filename_format" koanf:"filename_format"`
	RotateByDate    bool   `yaml:"rotate_by_date" koanf:"rotate_by_date"`
	MaxSizeMB       int    `yaml:"max_size_mb" koanf:"max_size_mb"`
	MaxBackups      int    `yaml:"max_backups" koanf:"max_backups"`
	SeparateByLevel bool   `yaml:"separate_by_level" koanf:"separate_by_level"`
	RetentionDays   int    `yaml:"retention_days" koanf:"retention_days"`
	Compress        bool   `yaml:"compress" koanf:"compress"`
}

// DefaultFileConfig returns the sink defaults: logs/ directory, one file per
// day and level, 30 day retention, no compression.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Directory:       "logs",
		FilenamePattern: "pte_{date}_{level}.log",
		RotateByDate:    true,
		MaxBackups:      5,
		SeparateByLevel: true,
		RetentionDays:   30,
	}
}

// FileSink writes log lines to files resolved from a filename pattern. The
// pattern may reference {date}, {time}, {datetime}, {level}, {logid} and
// {testcase}. Rotation runs either at date boundaries or on file size.
type FileSink struct {
	mu       sync.Mutex
	cfg      FileConfig
	testcase string
	files    map[string]*sinkFile
}

type sinkFile struct {
	f    *os.File
	date string
	size int64
}

// NewFileSink creates a sink for cfg and prunes files older than the
// configured retention window.
func NewFileSink(cfg FileConfig) (*FileSink, error) {
	if cfg.FilenamePattern == "" {
		cfg.FilenamePattern = DefaultFileConfig().FilenamePattern
	}
	if cfg.Directory == "" {
		cfg.Directory = DefaultFileConfig().Directory
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 5
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	s := &FileSink{cfg: cfg, files: make(map[string]*sinkFile)}
	s.cleanupExpired()
	return s, nil
}

// SetTestcase records the active test name for {testcase} substitution.
// Separator characters from test identifiers are flattened to underscores.
func (s *FileSink) SetTestcase(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testcase = SanitizeTestcase(name)
}

// SanitizeTestcase flattens path-like separators in a test identifier so it
// can be embedded in a filename.
func SanitizeTestcase(name string) string {
	r := strings.NewReplacer("::", "_", "/", "_", "\\", "_")
	return r.Replace(name)
}

func (s *FileSink) resolveName(level LogLevel, logID string) string {
	now := time.Now()
	levelTag := "all"
	if s.cfg.SeparateByLevel {
		levelTag = strings.ToLower(level.String())
	}
	testcase := s.testcase
	if testcase == "" {
		testcase = "session"
	}
	r := strings.NewReplacer(
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
		"{datetime}", now.Format("20060102_150405"),
		"{level}", levelTag,
		"{logid}", logID,
		"{testcase}", testcase,
	)
	return filepath.Join(s.cfg.Directory, r.Replace(s.cfg.FilenamePattern))
}

// Write appends one line for the given level and LogID, rotating first if
// needed.
func (s *FileSink) Write(level LogLevel, logID, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.resolveName(level, logID)
	sf, err := s.open(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log sink: %v\n", err)
		return
	}

	if s.cfg.RotateByDate && sf.date != time.Now().Format("20060102") {
		if err := s.rotateDate(name, sf); err != nil {
			fmt.Fprintf(os.Stderr, "log sink: %v\n", err)
			return
		}
		sf = s.files[name]
	}
	if s.cfg.MaxSizeMB > 0 && sf.size >= int64(s.cfg.MaxSizeMB)*1024*1024 {
		if err := s.rotateSize(name, sf); err != nil {
			fmt.Fprintf(os.Stderr, "log sink: %v\n", err)
			return
		}
		sf = s.files[name]
	}

	n, err := sf.f.WriteString(line + "\n")
	if err != nil {
		fmt.Fprintf(os.Stderr, "log sink: write %s: %v\n", name, err)
		return
	}
	sf.size += int64(n)
}

func (s *FileSink) open(name string) (*sinkFile, error) {
	if sf, ok := s.files[name]; ok {
		return sf, nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	var size int64
	date := time.Now().Format("20060102")
	if st, err := f.Stat(); err == nil {
		size = st.Size()
		// A carried-over file keeps the date it was last written on, so
		// the next Write rotates it out instead of appending across days.
		if size > 0 {
			date = st.ModTime().Format("20060102")
		}
	}
	sf := &sinkFile{f: f, date: date, size: size}
	s.files[name] = sf
	return sf, nil
}

// rotateDate closes the current file and renames it with the date it was
// opened on as suffix, then reopens a fresh file under the same name.
func (s *FileSink) rotateDate(name string, sf *sinkFile) error {
	if err := sf.f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	delete(s.files, name)
	rotated := name + "." + sf.date
	if err := os.Rename(name, rotated); err != nil {
		return fmt.Errorf("rotate %s: %w", name, err)
	}
	if s.cfg.Compress {
		if err := gzipFile(rotated); err != nil {
			return err
		}
	}
	_, err := s.open(name)
	return err
}

// rotateSize shifts numbered backups upward, dropping the oldest, and moves
// the current file to backup 1.
func (s *FileSink) rotateSize(name string, sf *sinkFile) error {
	if err := sf.f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	delete(s.files, name)

	suffix := ""
	if s.cfg.Compress {
		suffix = ".gz"
	}
	oldest := fmt.Sprintf("%s.%d%s", name, s.cfg.MaxBackups, suffix)
	_ = os.Remove(oldest)
	for i := s.cfg.MaxBackups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d%s", name, i, suffix)
		dst := fmt.Sprintf("%s.%d%s", name, i+1, suffix)
		if _, err := os.Stat(src); err == nil {
			_ = os.Rename(src, dst)
		}
	}
	rotated := name + ".1"
	if err := os.Rename(name, rotated); err != nil {
		return fmt.Errorf("rotate %s: %w", name, err)
	}
	if s.cfg.Compress {
		if err := gzipFile(rotated); err != nil {
			return err
		}
	}
	_, err := s.open(name)
	return err
}

// cleanupExpired removes files in the sink directory whose modification time
// is older than the retention window.
func (s *FileSink) cleanupExpired() {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	entries, err := os.ReadDir(s.cfg.Directory)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(s.cfg.Directory, e.Name()))
		}
	}
}

// Close flushes and closes every open file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, sf := range s.files {
		if err := sf.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
		delete(s.files, name)
	}
	return firstErr
}

func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	gw := gzip.NewWriter(dst)
	if _, err := io.Copy(gw, src); err != nil {
		gw.Close()
		dst.Close()
		return fmt.Errorf("compress %s: %w", path, err)
	}
	if err := gw.Close(); err != nil {
		dst.Close()
		return fmt.Errorf("compress %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return os.Remove(path)
}
