package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultPort              = 9000
	DefaultDataFile          = "/var/tmp/aesdsocketdata"
	DefaultAcceptTimeout     = time.Second
	DefaultTimestampInterval = 10 * time.Second
	DefaultPollInterval      = 100 * time.Millisecond
	DefaultChunkSize         = 1024
	DefaultInstanceName      = "aesdsocket"
)

// Config is the server configuration as stored in config.yaml.
type Config struct {
	Version           int      `yaml:"version"`
	Host              string   `yaml:"host"`                    // Empty = all interfaces
	Port              int      `yaml:"port"`                    // TCP port for client sessions
	DataFile          string   `yaml:"data_file"`               // Backing file of the shared log
	AcceptTimeout     Duration `yaml:"accept_timeout"`          // Bounded wait between stop-flag checks
	TimestampInterval Duration `yaml:"timestamp_interval"`      // 0 disables timestamp records
	PollInterval      Duration `yaml:"poll_interval"`           // Sleep between timer and tail checks
	ChunkSize         int      `yaml:"chunk_size"`              // Receive buffer per read
	LogLevel          string   `yaml:"log_level,omitempty"`     // debug, info, warn, error
	TailAddr          string   `yaml:"tail_addr,omitempty"`     // HTTP/WebSocket tail endpoint, empty = disabled
	Advertise         bool     `yaml:"advertise"`               // Announce the service over mDNS
	InstanceName      string   `yaml:"instance_name,omitempty"` // mDNS instance name
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Version:           1,
		Port:              DefaultPort,
		DataFile:          DefaultDataFile,
		AcceptTimeout:     Duration(DefaultAcceptTimeout),
		TimestampInterval: Duration(DefaultTimestampInterval),
		PollInterval:      Duration(DefaultPollInterval),
		ChunkSize:         DefaultChunkSize,
		InstanceName:      DefaultInstanceName,
	}
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Duration is a time.Duration that reads and writes Go duration strings
// ("1s", "250ms") in YAML.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
