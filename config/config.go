package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Matching   MatchingConfig
	Simplifier SimplifierConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MatchingConfig holds fuzzy matching tuning.
// Cutoffs are deliberately strict: in a pharmaceutical catalog a false
// positive is a safety problem, not a cosmetic one.
type MatchingConfig struct {
	CutoffTokenSort    int  `mapstructure:"cutoff_token_sort"`
	CutoffTokenSet     int  `mapstructure:"cutoff_token_set"`
	CutoffPartial      int  `mapstructure:"cutoff_partial"`
	ScoreTolerance     int  `mapstructure:"score_tolerance"`
	ConfidenceHigh     int  `mapstructure:"confidence_high"`
	ConfidenceMedium   int  `mapstructure:"confidence_medium"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// SimplifierConfig holds the noise patterns stripped from catalog names
// before they are used as fuzzy-matching keys.
type SimplifierConfig struct {
	NoisePatterns []string `mapstructure:"noise_patterns"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pharmaprocure/")

	// Environment variable settings
	v.SetEnvPrefix("PHARMAPROC")
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.path", "pharma.db")

	// Matching defaults. Partial-ratio gets the highest cutoff because it is
	// the most permissive of the three scorers.
	v.SetDefault("matching.cutoff_token_sort", 85)
	v.SetDefault("matching.cutoff_token_set", 85)
	v.SetDefault("matching.cutoff_partial", 90)
	v.SetDefault("matching.score_tolerance", 3)
	v.SetDefault("matching.confidence_high", 95)
	v.SetDefault("matching.confidence_medium", 85)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("simplifier.noise_patterns", DefaultNoisePatterns)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "pharmaprocure.log")
}

// DefaultNoisePatterns are the regulatory/packaging phrases stripped by the
// name simplifier. Order matters: the comma rule removes trailing packaging
// descriptions before the container phrases are looked for.
var DefaultNoisePatterns = []string{
	`\bBP\b`,
	`\bUSP\b`,
	`\bB\.P\.\b`,
	`\bU\.S\.P\.\b`,
	`INFUSION/SOLUTION FOR`,
	`INFUSION FOR`,
	`SOLUTION FOR`,
	`INJECTION FOR`,
	`,.*$`,
	`\d+ML PLASTIC BAG`,
	`\d+ML PLASTIC BOTTLE`,
	`\d+ML GLASS VIAL`,
	`\d+ML GLASS BOTTLE`,
	`PLASTIC BAG`,
	`PLASTIC BOTTLE`,
	`GLASS VIAL`,
	`GLASS BOTTLE`,
	`BLISTER PACK`,
	`STRIP`,
	`\d+'S\b`,
	`\d+S\b`,
}

// validate validates the configuration
func validate(config *Config) error {
	m := config.Matching
	for _, c := range []struct {
		name  string
		value int
	}{
		{"cutoff_token_sort", m.CutoffTokenSort},
		{"cutoff_token_set", m.CutoffTokenSet},
		{"cutoff_partial", m.CutoffPartial},
		{"confidence_high", m.ConfidenceHigh},
		{"confidence_medium", m.ConfidenceMedium},
	} {
		if c.value < 0 || c.value > 100 {
			return fmt.Errorf("matching.%s must be in [0,100], got: %d", c.name, c.value)
		}
	}

	if m.ConfidenceMedium >= m.ConfidenceHigh {
		return fmt.Errorf("matching.confidence_medium (%d) must be below matching.confidence_high (%d)",
			m.ConfidenceMedium, m.ConfidenceHigh)
	}

	if m.ScoreTolerance < 0 {
		return fmt.Errorf("matching.score_tolerance must not be negative, got: %d", m.ScoreTolerance)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path is required (set PHARMAPROC_DATABASE_PATH)")
	}

	return nil
}
