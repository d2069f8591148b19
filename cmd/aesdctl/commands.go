package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/aesdsocket/internal/client"
	"github.com/muurk/aesdsocket/internal/discovery"
	"github.com/muurk/aesdsocket/internal/logging"
	"github.com/muurk/aesdsocket/internal/protocol"
	"github.com/muurk/aesdsocket/internal/ui"
)

const (
	defaultServerAddr = "localhost:9000"
	defaultTailURL    = "ws://localhost:9080/tail"
)

func newPrinter() *ui.Printer {
	p := ui.NewPrinter(os.Stdout)
	p.Plain = plain || !ui.IsTerminal()
	return p
}

// discoverFirst returns the first server answering an mDNS scan
func discoverFirst(ctx context.Context, timeout time.Duration) (*discovery.Service, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = timeout

	svc, err := scanner.First(ctx)
	if err != nil {
		return nil, err
	}
	logging.Info("Discovered server", zap.String("service", svc.String()))
	return svc, nil
}

// Send command

var (
	sendAddr     string
	sendDiscover bool
	sendRaw      bool
	sendTimeout  time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send [text...]",
	Short: "Append a record and print the log",
	Long: `Send a record to the server and print the log it replies with.

The arguments are joined with spaces and terminated with a newline. Without
arguments the record is read from stdin. With --raw the input is sent
exactly as given, so no newline is added.`,
	Example: `  # Append one line
  aesdctl send hello world

  # Send a file through a server found over mDNS
  aesdctl send --discover --raw < records.txt`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendAddr, "addr", defaultServerAddr, "Server address")
	sendCmd.Flags().BoolVar(&sendDiscover, "discover", false, "Find the server over mDNS instead of using --addr")
	sendCmd.Flags().BoolVar(&sendRaw, "raw", false, "Send input unchanged, without adding a newline")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 5*time.Second, "Timeout for discovery and the exchange")
}

func buildPayload(args []string, stdin io.Reader, raw bool) ([]byte, error) {
	var payload []byte
	if len(args) > 0 {
		payload = []byte(strings.Join(args, " "))
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		payload = data
	}

	if !raw && !protocol.HasTerminator(payload) {
		payload = append(payload, protocol.Terminator)
	}
	return payload, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	printer := newPrinter()

	payload, err := buildPayload(args, os.Stdin, sendRaw)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
	defer cancel()

	addr := sendAddr
	if sendDiscover {
		svc, err := discoverFirst(ctx, sendTimeout)
		if err != nil {
			return err
		}
		addr = svc.Addr()
	}

	printer.PrintHeader("Send", "aesdctl send", map[string]string{
		"Server": addr,
		"Bytes":  fmt.Sprint(len(payload)),
	})

	reply, err := client.Send(ctx, addr, payload)
	if err != nil {
		return err
	}
	printer.PrintLog(reply)
	return nil
}

// Tail command

var (
	tailURL      string
	tailDiscover bool
	tailTimeout  time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the log live",
	Long: `Follow the server's log over its WebSocket tail endpoint.

The server must be started with --tail-addr. On a terminal the log is shown
in a scrollable view; otherwise the raw bytes are copied to stdout.`,
	Example: `  # Follow a local server
  aesdctl tail --url ws://localhost:9080/tail

  # Follow the first server announced over mDNS
  aesdctl tail --discover`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVar(&tailURL, "url", defaultTailURL, "Tail endpoint URL")
	tailCmd.Flags().BoolVar(&tailDiscover, "discover", false, "Find the server over mDNS instead of using --url")
	tailCmd.Flags().DurationVar(&tailTimeout, "timeout", discovery.DefaultScanTimeout, "Discovery timeout")
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	url := tailURL
	if tailDiscover {
		svc, err := discoverFirst(ctx, tailTimeout)
		if err != nil {
			return err
		}
		if url = svc.TailURL(); url == "" {
			return fmt.Errorf("%s does not publish a tail endpoint", svc.Instance)
		}
	}

	if plain || !ui.IsTerminal() {
		return client.Follow(ctx, url, func(data []byte) {
			_, _ = os.Stdout.Write(data)
		})
	}

	p := tea.NewProgram(ui.NewTailModel(url), tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		err := client.Follow(ctx, url, func(data []byte) {
			p.Send(ui.LogChunkMsg(data))
		})
		p.Send(ui.StreamEndedMsg{Err: err})
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tail view failed: %w", err)
	}
	if m, ok := final.(ui.TailModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// Discover command

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find aesdsocket servers on the local network",
	Long: `Scan the local network for servers started with --advertise.

Servers announce themselves as ` + discovery.ServiceType + ` over mDNS.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "Scan duration")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	printer.PrintHeader("Discover", "aesdctl discover", map[string]string{
		"Service": discovery.ServiceType,
		"Timeout": discoverTimeout.String(),
	})

	scanner := discovery.NewScanner()
	scanner.Timeout = discoverTimeout

	services, err := scanner.Scan(cmd.Context())
	if err != nil {
		return err
	}
	printer.PrintServices(services)
	return nil
}
