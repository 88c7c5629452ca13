package config

const (
	// DefaultIDC is used when env.yaml does not select one.
	DefaultIDC = "aws_offline"

	// DefaultEnv is used when env.yaml does not select one.
	DefaultEnv = "prod"

	// DefaultTimeout is the request timeout in seconds when neither the IDC
	// nor the environment specifies one.
	DefaultTimeout = 30

	// DefaultRetryCount is the per-request retry budget.
	DefaultRetryCount = 3

	// EnvVarIDC overrides the IDC selected in env.yaml.
	EnvVarIDC = "TEST_IDC"

	// EnvVarEnv overrides the environment selected in env.yaml.
	EnvVarEnv = "TEST_ENV"

	// EnvPrefix is the prefix for variables overriding individual settings,
	// e.g. PTE_HOST or PTE_RETRY_COUNT.
	EnvPrefix = "PTE_"
)

// KnownIDCs maps every recognized IDC name to its description.
var KnownIDCs = map[string]string{
	"aws_offline": "Offline AWS Environment",
	"gcp_offline": "Offline GCP Environment",
	"aws_online":  "Online AWS Environment",
	"gcp_online":  "Online GCP Environment",
}

// DefaultTestConfig returns the directory layout used when test_config is
// only partially specified.
func DefaultTestConfig() TestConfig {
	return TestConfig{
		DataDir:        "data",
		ReportDir:      "reports",
		LogDir:         "logs",
		DefaultMarkers: []string{"smoke", "api"},
	}
}
