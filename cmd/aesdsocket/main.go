// Aesdsocket is a TCP server that appends every received line to a shared
// log file and answers each completed line with the whole log.
//
// Usage:
//
//	aesdsocket [-d] [flags]
//
// The server listens on port 9000 by default, writes a timestamp record
// every 10 seconds and removes its data file on SIGINT or SIGTERM.
// See 'aesdsocket --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/aesdsocket/internal/config"
	"github.com/muurk/aesdsocket/internal/daemon"
	"github.com/muurk/aesdsocket/internal/logging"
	"github.com/muurk/aesdsocket/internal/server"
	"github.com/muurk/aesdsocket/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	configPath string
	daemonize  bool
	host       string
	port       int
	dataFile   string
	logLevel   string
	tailAddr   string
	advertise  bool
)

var rootCmd = &cobra.Command{
	Use:   "aesdsocket",
	Short: "Line-oriented TCP log server",
	Long: `A TCP server that keeps a shared, append-only log.

Every byte a client sends is appended to the log. Once a client has sent a
newline, the server replies with the complete log and closes the connection.
A timestamp record is appended at startup and then every 10 seconds.

On SIGINT or SIGTERM the server stops accepting connections, waits for
in-flight clients to finish and deletes the data file.`,
	Example: `  # Run in the foreground on port 9000
  aesdsocket

  # Detach from the terminal
  aesdsocket -d

  # Custom port and data file, with debug logging
  aesdsocket --port 9100 --data-file /tmp/aesd.log --log-level debug

  # Expose the log over WebSocket and announce the server over mDNS
  aesdsocket --tail-addr :9080 --advertise`,
	Version:       version.Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config dir)")

	rootCmd.Flags().BoolVarP(&daemonize, "daemon", "d", false, "Run in the background")
	rootCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	rootCmd.Flags().IntVar(&port, "port", config.DefaultPort, "TCP port")
	rootCmd.Flags().StringVar(&dataFile, "data-file", config.DefaultDataFile, "Path of the shared log file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&tailAddr, "tail-addr", "", "Serve the log over HTTP/WebSocket on this address (disabled if not specified)")
	rootCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the server over mDNS")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file and applies the flags the user set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = host
	}
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("data-file") {
		cfg.DataFile = dataFile
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("tail-addr") {
		cfg.TailAddr = tailAddr
	}
	if flags.Changed("advertise") {
		cfg.Advertise = advertise
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	serverConfig := &server.Config{
		Host:              cfg.Host,
		Port:              cfg.Port,
		DataFile:          cfg.DataFile,
		AcceptTimeout:     cfg.AcceptTimeout.D(),
		TimestampInterval: cfg.TimestampInterval.D(),
		PollInterval:      cfg.PollInterval.D(),
		ChunkSize:         cfg.ChunkSize,
		TailAddr:          cfg.TailAddr,
		Advertise:         cfg.Advertise,
		InstanceName:      cfg.InstanceName,
	}

	switch {
	case daemon.IsChild():
		// stdout is /dev/null in the detached process
		if err := logging.InitializeSyslog(cfg.LogLevel, "aesdsocket"); err != nil {
			return err
		}
		ln, err := daemon.InheritedListener()
		if err != nil {
			logging.Error("Failed to inherit listener", zap.Error(err))
			return err
		}
		serverConfig.Listener = ln

	case daemonize:
		if err := logging.Initialize(cfg.LogLevel); err != nil {
			return err
		}
		// Bind here so address errors reach the terminal
		ln, err := server.Listen(context.Background(), cfg.Addr())
		if err != nil {
			return err
		}
		pid, err := daemon.Detach(ln, os.Args[1:])
		_ = ln.Close()
		if err != nil {
			return err
		}
		fmt.Printf("aesdsocket running in the background (pid %d)\n", pid)
		return nil

	default:
		if err := logging.Initialize(cfg.LogLevel); err != nil {
			return err
		}
	}

	srv, err := server.New(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aesdsocket %s\n", version.Full())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}

		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		out, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
