package daemon

import (
	"errors"
	"os"
)

// EnvVar marks a process started by Detach.
const EnvVar = "AESDSOCKET_DAEMON"

// listenerFD is the descriptor number of the first entry of ExtraFiles.
const listenerFD = 3

// ErrNotChild is returned by InheritedListener in a process that was not
// started by Detach.
var ErrNotChild = errors.New("daemon: not started as a detached child")

// IsChild reports whether this process was started by Detach.
func IsChild() bool {
	return os.Getenv(EnvVar) == "1"
}
