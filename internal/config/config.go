package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Memory  MemoryConfig  `yaml:"memory"`
	Journal JournalConfig `yaml:"journal"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type MemoryConfig struct {
	// Backend selects the underlying allocator: "go", "slab" or
	// "arena".
	Backend   string       `yaml:"backend"`
	ChunkSize int          `yaml:"chunk_size"`
	Defrag    DefragConfig `yaml:"defrag"`
}

type DefragConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	Threshold float64       `yaml:"threshold"`
}

type JournalConfig struct {
	Path           string        `yaml:"path"`
	SampleInterval time.Duration `yaml:"sample_interval"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		Memory: MemoryConfig{
			Backend: "go",
			Defrag: DefragConfig{
				Enabled:   true,
				Interval:  5 * time.Minute,
				Threshold: 0.25,
			},
		},
		Journal: JournalConfig{
			Path:           "interloc.journal",
			SampleInterval: time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    2112,
			Path:    "/metrics",
		},
	}
}

// Load reads a YAML config file, filling unset fields from
// DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}
