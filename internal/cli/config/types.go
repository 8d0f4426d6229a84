// Package config loads sqltrace configuration from file, environment,
// and CLI flags.
package config

// Defaults for configuration values.
const (
	DefaultHost   = "127.0.0.1"
	DefaultPort   = 8000
	DefaultOutput = "text"
)

// Config holds the resolved sqltrace configuration.
type Config struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	Output      string `koanf:"output"`
	Verbose     bool   `koanf:"verbose"`
	KeepOrphans bool   `koanf:"keep_orphans"`
}
