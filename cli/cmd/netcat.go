package cmd

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/julienstroheker/ttcp/internal/config"
	"github.com/julienstroheker/ttcp/internal/logging"
	"github.com/julienstroheker/ttcp/internal/netcat"
	"github.com/julienstroheker/ttcp/internal/relay"
	"github.com/julienstroheker/ttcp/internal/transport"
)

var (
	listenPortFlag     int
	serverFlag         string
	ncPortFlag         int
	transportFlag      string
	bufferSizeFlag     int
	queueDepthFlag     int
	reportIntervalFlag time.Duration
)

var netcatCmd = &cobra.Command{
	Use:   "netcat",
	Short: "Relay stdin/stdout over a connection",
	Long: `Relay stdin/stdout over a connection.

Listen with -l <port> and relay every client that connects, or dial a server
with -s <host> -p <port>. Inbound throughput is logged periodically.`,
	Example: `  ttcp netcat -l 9000
  ttcp netcat -s 127.0.0.1 -p 9000 < file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNetcat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(netcatCmd)

	flags := netcatCmd.Flags()
	flags.IntVarP(&listenPortFlag, "listen-port", "l", 0, "Listen on this port (server role)")
	flags.StringVarP(&serverFlag, "server", "s", "", "Server address to connect to (client role)")
	flags.IntVarP(&ncPortFlag, "port", "p", 0, "Server port to connect to (client role)")
	flags.StringVar(&transportFlag, "transport", config.TransportTCP.String(), "Carrier: tcp or ws")
	flags.IntVar(&bufferSizeFlag, "buffer-size", config.DefaultBufferSize, "Bytes per read")
	flags.IntVar(&queueDepthFlag, "queue-depth", config.DefaultQueueDepth, "Chunks buffered per direction")
	flags.DurationVar(&reportIntervalFlag, "report-interval", config.DefaultReportInterval, "Throughput report period")

	netcatCmd.MarkFlagsOneRequired("listen-port", "server")
	netcatCmd.MarkFlagsMutuallyExclusive("listen-port", "server")
	netcatCmd.MarkFlagsMutuallyExclusive("listen-port", "port")
	netcatCmd.MarkFlagsRequiredTogether("server", "port")
}

// applyNetcatFlags layers explicitly set flags over the loaded configuration
func applyNetcatFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("transport") {
		c.Transport = config.ParseTransport(transportFlag)
	}
	if flags.Changed("buffer-size") {
		c.BufferSize = bufferSizeFlag
	}
	if flags.Changed("queue-depth") {
		c.QueueDepth = queueDepthFlag
	}
	if flags.Changed("report-interval") {
		c.ReportInterval = reportIntervalFlag
	}
	return c.Validate()
}

func runNetcat(cmd *cobra.Command) error {
	c := *GetConfig()
	if err := applyNetcatFlags(cmd, &c); err != nil {
		return err
	}

	opts := relay.Options{
		BufferSize:     c.BufferSize,
		QueueDepth:     c.QueueDepth,
		ReportInterval: c.ReportInterval,
	}
	streams := relay.Streams{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}

	if cmd.Flags().Changed("listen-port") {
		if err := validatePort(listenPortFlag, true); err != nil {
			return err
		}
		return runNetcatServer(cmd, &c, opts, streams)
	}

	if err := validatePort(ncPortFlag, false); err != nil {
		return err
	}
	return runNetcatClient(cmd, &c, opts, streams)
}

func runNetcatServer(cmd *cobra.Command, c *config.Config, opts relay.Options, streams relay.Streams) error {
	log := GetLogger()

	ln, err := transport.Listen(c.Transport, net.JoinHostPort("", strconv.Itoa(listenPortFlag)))
	if err != nil {
		return err
	}

	// every connection gets the whole of stdin, not whichever chunks it wins
	input := netcat.NewBroadcaster(streams.In, c.BufferSize)

	srv := netcat.NewServer(&netcat.ServerOptions{
		Listener: ln,
		Streams:  input.Streams(streams.Out),
		Relay:    opts,
		Logger:   log.With(logging.String("transport", c.Transport.String())),
	})

	if err := srv.Serve(cmd.Context()); err != nil {
		return err
	}

	log.Info("Server stopped", logging.Int64("active", srv.Active()))
	return nil
}

func runNetcatClient(cmd *cobra.Command, c *config.Config, opts relay.Options, streams relay.Streams) error {
	log := GetLogger()

	dialer, err := transport.NewDialer(c.Transport, c.DialTimeout)
	if err != nil {
		return err
	}

	client := netcat.NewClient(&netcat.ClientOptions{
		Dialer:  dialer,
		Address: net.JoinHostPort(serverFlag, strconv.Itoa(ncPortFlag)),
		Streams: streams,
		Relay:   opts,
		Logger:  log.With(logging.String("transport", c.Transport.String())),
	})

	// A relay has no cancellation of its own; an interrupt stops waiting and
	// is reported as the command's error
	done := make(chan error, 1)
	go func() {
		_, err := client.Run(cmd.Context())
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-cmd.Context().Done():
		log.Info("Interrupted")
		return cmd.Context().Err()
	}
}

// validatePort checks a port flag; listeners may ask for 0 (any free port)
func validatePort(port int, allowZero bool) error {
	lowest := 1
	if allowZero {
		lowest = 0
	}
	if port < lowest || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	return nil
}
