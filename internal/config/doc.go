// Package config loads the aesdsocket server configuration.
//
// The configuration is a YAML file; every key is optional and falls back to
// the value in Default(). Command line flags take precedence over the file.
//
// # Configuration File Location
//
// Without --config the file is looked up in the platform location:
//   - Linux: $XDG_CONFIG_HOME/aesdsocket/config.yaml or $HOME/.config/aesdsocket/config.yaml
//   - macOS: $HOME/.config/aesdsocket/config.yaml
//   - Windows: %LOCALAPPDATA%\aesdsocket\config.yaml
//
// A missing file at the default location is not an error.
//
// # Example
//
//	version: 1
//	port: 9000
//	data_file: /var/tmp/aesdsocketdata
//	accept_timeout: 1s
//	timestamp_interval: 10s
//	poll_interval: 100ms
//	chunk_size: 1024
//	log_level: info
//	tail_addr: 127.0.0.1:9080
//	advertise: true
package config
