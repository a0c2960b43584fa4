package cmd

import (
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/julienstroheker/ttcp/internal/roundtrip"
	"github.com/julienstroheker/ttcp/internal/transport"
)

var (
	rttServerFlag   bool
	rttHostFlag     string
	rttPortFlag     int
	rttCountFlag    int
	rttIntervalFlag time.Duration
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Probe round trip time and clock offset",
	Long: `Probe round trip time and clock offset.

With -s, echo timestamped frames back to every client. Otherwise connect to
the server and log the round trip time and the estimated clock difference
of each probe.`,
	Example: `  ttcp roundtrip -s -a 0.0.0.0
  ttcp roundtrip -a 10.0.0.2 -c 100 -i 100ms`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validatePort(rttPortFlag, rttServerFlag); err != nil {
			return err
		}
		if rttServerFlag {
			return runRoundtripServer(cmd)
		}
		return runRoundtripClient(cmd)
	},
}

func init() {
	rootCmd.AddCommand(roundtripCmd)

	flags := roundtripCmd.Flags()
	flags.BoolVarP(&rttServerFlag, "server", "s", false, "Run the echo server")
	flags.StringVarP(&rttHostFlag, "host", "a", defaultBenchHost, "Address to bind (server) or connect to (client)")
	flags.IntVarP(&rttPortFlag, "port", "p", defaultBenchPort, "Port to bind or connect to")
	flags.IntVarP(&rttCountFlag, "count", "c", 0, "Probes to send, 0 for no limit")
	flags.DurationVarP(&rttIntervalFlag, "interval", "i", 0, "Pause between probes, 0 for back to back")
}

func runRoundtripServer(cmd *cobra.Command) error {
	c := GetConfig()

	ln, err := transport.Listen(c.Transport, net.JoinHostPort(rttHostFlag, strconv.Itoa(rttPortFlag)))
	if err != nil {
		return err
	}

	srv := roundtrip.NewServer(&roundtrip.ServerOptions{
		Listener: ln,
		Logger:   GetLogger(),
	})
	return srv.Serve(cmd.Context())
}

func runRoundtripClient(cmd *cobra.Command) error {
	c := GetConfig()

	dialer, err := transport.NewDialer(c.Transport, c.DialTimeout)
	if err != nil {
		return err
	}

	client := roundtrip.NewClient(&roundtrip.ClientOptions{
		Dialer:   dialer,
		Address:  net.JoinHostPort(rttHostFlag, strconv.Itoa(rttPortFlag)),
		Count:    rttCountFlag,
		Interval: rttIntervalFlag,
		Logger:   GetLogger(),
	})
	_, err = client.Run(cmd.Context())
	return err
}
