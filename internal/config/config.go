// Package config provides the configuration structure for the
// phonemizer-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                       string `toml:"url"`
	PhonemizeRequestSubject   string `toml:"phonemize_request_subject"`
	PhonemesGeneratedSubject  string `toml:"phonemes_generated_subject"`
	TextObjectStoreBucket     string `toml:"text_object_store_bucket"`
	PhonemesObjectStoreBucket string `toml:"phonemes_object_store_bucket"`
}

// PhonemizerConfig holds the specific configuration for the phonemizer.
type PhonemizerConfig struct {
	// DefaultVoice is the voice used when a request does not name one,
	// e.g. "en-us".
	DefaultVoice string `toml:"default_voice"`

	// DataPath points at the espeak-ng-data directory. Empty uses the
	// library default.
	DataPath string `toml:"data_path"`

	// Strategy selects raw phoneme acquisition: "capture" (default) or
	// "direct".
	Strategy string `toml:"strategy"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS       NATSConfig       `toml:"nats"`
	Phonemizer PhonemizerConfig `toml:"phonemizer"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads the configuration for the phonemizer-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
