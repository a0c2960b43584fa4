package cmd

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/julienstroheker/ttcp/internal/bench"
	"github.com/julienstroheker/ttcp/internal/transport"
)

const (
	defaultBenchPort   = 12345
	defaultBenchLength = 10240000
	defaultBenchCount  = 10000
	defaultBenchHost   = "127.0.0.1"
)

var (
	receiveFlag     bool
	transmitFlag    string
	benchPortFlag   int
	benchLengthFlag uint32
	benchCountFlag  uint32
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure bulk TCP throughput",
	Long: `Measure bulk TCP throughput with fixed-size packets.

The receiver (-r) accepts a single transmitter and prints the achieved rate.
The transmitter (-t [host]) sends -c packets of -l bytes, each acknowledged
by the receiver before the next is sent. The host defaults to 127.0.0.1.`,
	Example: `  ttcp bench -r
  ttcp bench -t 10.0.0.2 -l 65536 -c 100000`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validatePort(benchPortFlag, false); err != nil {
			return err
		}
		if receiveFlag {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return runBenchReceive(cmd)
		}
		if len(args) > 0 {
			// "-t host" leaves host as an argument since -t may go without a value
			if transmitFlag != defaultBenchHost {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			transmitFlag = args[0]
		}
		return runBenchTransmit(cmd)
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)

	flags := benchCmd.Flags()
	flags.BoolVarP(&receiveFlag, "recv", "r", false, "Receive (server role)")
	flags.StringVarP(&transmitFlag, "transmit", "t", "", "Transmit to this receiver (client role)")
	flags.Lookup("transmit").NoOptDefVal = defaultBenchHost
	flags.IntVarP(&benchPortFlag, "port", "p", defaultBenchPort, "Port to listen on or connect to")
	flags.Uint32VarP(&benchLengthFlag, "length", "l", defaultBenchLength, "Packet size in bytes")
	flags.Uint32VarP(&benchCountFlag, "count", "c", defaultBenchCount, "Number of packets to send")

	benchCmd.MarkFlagsOneRequired("recv", "transmit")
	benchCmd.MarkFlagsMutuallyExclusive("recv", "transmit")
}

func runBenchReceive(cmd *cobra.Command) error {
	c := GetConfig()

	ln, err := transport.Listen(c.Transport, net.JoinHostPort("", strconv.Itoa(benchPortFlag)))
	if err != nil {
		return err
	}
	defer func() {
		_ = ln.Close()
	}()

	report, err := bench.Receive(cmd.Context(), &bench.ReceiveOptions{
		Listener: ln,
		Logger:   GetLogger(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Received %s\n", report)
	return nil
}

func runBenchTransmit(cmd *cobra.Command) error {
	c := GetConfig()

	dialer, err := transport.NewDialer(c.Transport, c.DialTimeout)
	if err != nil {
		return err
	}

	report, err := bench.Transmit(cmd.Context(), &bench.TransmitOptions{
		Dialer:  dialer,
		Address: net.JoinHostPort(transmitFlag, strconv.Itoa(benchPortFlag)),
		Session: bench.Session{Count: benchCountFlag, Length: benchLengthFlag},
		Logger:  GetLogger(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", report)
	return nil
}
