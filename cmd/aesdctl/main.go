// Aesdctl is the command line client for aesdsocket servers.
//
// It sends records, follows the log over the server's WebSocket tail
// endpoint and finds servers on the local network over mDNS.
//
// Usage:
//
//	aesdctl [command] [flags]
//
// See 'aesdctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/aesdsocket/internal/logging"
	"github.com/muurk/aesdsocket/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var plain bool

var rootCmd = &cobra.Command{
	Use:   "aesdctl",
	Short: "aesdsocket client",
	Long: `A client for aesdsocket servers.

Send records, follow the shared log live and find servers on the local
network. Output is styled on a terminal and plain when piped.

Set AESDSOCKET_LOG_LEVEL to debug, info, warn or error to see log output.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless AESDSOCKET_LOG_LEVEL is set
		return logging.InitializeFromEnv()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Disable styled output (default when stdout is not a terminal)")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aesdctl %s\n", version.Full())
	},
}
