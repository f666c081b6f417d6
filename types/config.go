package types

import "time"

// Config is a struct to hold the configuration data
type Config struct {
	Logging struct {
		OutputLevel  string `yaml:"outputLevel" envconfig:"LOGGING_OUTPUT_LEVEL"`
		OutputStderr bool   `yaml:"outputStderr" envconfig:"LOGGING_OUTPUT_STDERR"`

		FilePath  string `yaml:"filePath" envconfig:"LOGGING_FILE_PATH"`
		FileLevel string `yaml:"fileLevel" envconfig:"LOGGING_FILE_LEVEL"`
	} `yaml:"logging"`

	Provider ProviderConfig `yaml:"provider"`

	Program struct {
		ID      string `yaml:"id" envconfig:"PROGRAM_ID"`
		IdlPath string `yaml:"idlPath" envconfig:"PROGRAM_IDL_PATH"`
	} `yaml:"program"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
		Host    string `yaml:"host" envconfig:"METRICS_HOST"`
		Port    string `yaml:"port" envconfig:"METRICS_PORT"`
	} `yaml:"metrics"`

	Journal JournalConfig `yaml:"journal"`
}

// ProviderConfig describes how remote calls are routed and signed.
// The env names match the ones used by the anchor toolchain.
type ProviderConfig struct {
	Url     string            `yaml:"url" envconfig:"ANCHOR_PROVIDER_URL"`
	Wallet  string            `yaml:"wallet" envconfig:"ANCHOR_WALLET"`
	Headers map[string]string `yaml:"headers"`

	Commitment          string        `yaml:"commitment" envconfig:"ANCHOR_COMMITMENT"`
	PreflightCommitment string        `yaml:"preflightCommitment" envconfig:"ANCHOR_PREFLIGHT_COMMITMENT"`
	SkipPreflight       bool          `yaml:"skipPreflight" envconfig:"ANCHOR_SKIP_PREFLIGHT"`
	ConfirmTimeout      time.Duration `yaml:"confirmTimeout" envconfig:"ANCHOR_CONFIRM_TIMEOUT"`
	PollInterval        time.Duration `yaml:"pollInterval" envconfig:"ANCHOR_POLL_INTERVAL"`

	RateLimit float64 `yaml:"rateLimit" envconfig:"PROVIDER_RATE_LIMIT"` // requests per second, 0 = unlimited
	RateBurst int     `yaml:"rateBurst" envconfig:"PROVIDER_RATE_BURST"`

	Ssh *SshConfig `yaml:"ssh" ignored:"true"`
}

// SshConfig routes rpc traffic through an ssh jump host.
type SshConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Keyfile    string `yaml:"keyfile"`
	KnownHosts string `yaml:"knownHosts"`
}

type JournalConfig struct {
	Path      string `yaml:"path" envconfig:"JOURNAL_PATH"`
	CacheSize int    `yaml:"cacheSize" envconfig:"JOURNAL_CACHE_SIZE"`
}
