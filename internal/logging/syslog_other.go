//go:build windows || plan9

package logging

import "errors"

// InitializeSyslog is not available on this platform.
func InitializeSyslog(level string, tag string) error {
	return errors.New("syslog is not supported on this platform")
}
