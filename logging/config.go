package logging

// Config contains the configurable items for this package.
type Config struct {
	// Environment selects the encoder: "dev" writes colourless console lines at
	// debug level, anything else writes JSON at info level.
	Environment string `yaml:"environment"`
	// Level overrides the environment's default level when set
	// ("debug", "info", "warn", "error").
	Level string `yaml:"level"`
	// File, when its Path is set, adds a rotated log file next to stdout.
	File FileConfig `yaml:"file"`
}

// FileConfig configures the rotated file sink.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// NewDefaultConfig creates an instance of the package-specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Environment: "dev",
		File: FileConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}
