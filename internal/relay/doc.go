// Package relay moves bytes between one network connection and a pair of
// local streams, in both directions at once.
//
// # Pipelines
//
// A Pipeline is a reader goroutine and a writer goroutine joined by a
// bounded Queue of Chunks. The reader copies every read into a fresh Chunk
// and pushes it, waiting while the queue is full; that wait is the only
// flow control. The reader closes the queue when it stops for any reason, so
// the writer always drains and exits. If the writer fails it abandons the
// queue and interrupts the source, and the reader stops quietly.
//
// # Relay
//
// A Relay splits its connection and runs two pipelines:
//
//	inbound:  connection -> Streams.Out   (throughput logged via a Meter)
//	outbound: Streams.In -> connection    (half-closes the connection at EOF)
//
// Run returns once both have settled. End of input on one side only
// half-closes the connection, so the other direction keeps flowing until
// the peer finishes too. The connection is closed once, by Run.
//
// # Usage Example
//
//	conn, err := dialer.Dial(ctx, "127.0.0.1:9000")
//	if err != nil {
//	    return err
//	}
//	res, err := relay.New(conn, relay.Stdio(), &relay.Options{}).Run()
package relay
