package config

// Selection names which IDC and environment the current run targets. It is
// stored in env.yaml next to the per-IDC configuration files.
type Selection struct {
	IDC            string `koanf:"idc" yaml:"idc"`
	Env            string `koanf:"env" yaml:"env"`
	ServerLanguage string `koanf:"server_language" yaml:"server_language,omitempty"`
}

// Settings is the content of one per-IDC configuration file (<idc>.yaml).
type Settings struct {
	Host           string                         `koanf:"host"`
	Timeout        int                            `koanf:"timeout"`
	RetryCount     int                            `koanf:"retry_count"`
	DefaultHeaders map[string]string              `koanf:"default_headers"`
	Environments   map[string]EnvironmentSettings `koanf:"environments"`
	Database       DatabaseSettings               `koanf:"database"`
	TestConfig     TestConfig                     `koanf:"test_config"`
}

// EnvironmentSettings overrides the IDC defaults for one named environment
// (for example prod or staging).
type EnvironmentSettings struct {
	Description string            `koanf:"description"`
	Timeout     int               `koanf:"timeout"`
	RetryCount  int               `koanf:"retry_count"`
	Headers     map[string]string `koanf:"headers"`
}

// DatabaseSettings groups database connections by engine.
type DatabaseSettings struct {
	MySQL MySQLSettings `koanf:"mysql"`
}

// MySQLSettings are the connection parameters for the MySQL state checker.
type MySQLSettings struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	Username    string `koanf:"username"`
	Password    string `koanf:"password"`
	Database    string `koanf:"database"`
	Charset     string `koanf:"charset"`
	MaxOpen     int    `koanf:"max_connections"`
	MaxIdle     int    `koanf:"max_idle_connections"`
	TimeoutSecs int    `koanf:"timeout"`
}

// TestConfig points at the directories the runner reads and writes.
type TestConfig struct {
	DataDir        string   `koanf:"test_data_dir"`
	ReportDir      string   `koanf:"test_report_dir"`
	LogDir         string   `koanf:"test_log_dir"`
	DefaultMarkers []string `koanf:"default_markers"`
}

// Resolved is the effective configuration after merging the selected
// environment's overrides into the IDC defaults.
type Resolved struct {
	IDC         string
	Env         string
	Description string
	Host        string
	Timeout     int
	RetryCount  int
	Headers     map[string]string
	Database    MySQLSettings
	TestConfig  TestConfig
}
