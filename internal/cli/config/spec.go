package config

import "time"

// CLIConfig is the configuration for ledgermesh-cli.
type CLIConfig struct {
	Server   string        `json:"server" yaml:"server"`
	Output   string        `json:"output" yaml:"output"` // table, json, yaml
	CAFile   string        `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
	Insecure bool          `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "localhost:5080",
		Output:  "table",
		Timeout: 30 * time.Second,
	}
}
