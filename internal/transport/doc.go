// Package transport provides the byte-stream endpoints the relay runs over.
//
// # Core Interfaces
//
// Connection is a full-duplex stream. Besides io.ReadWriteCloser it supports
// half-close: CloseWrite tells the peer no more data is coming while reads
// keep working, and CloseRead unblocks a pending Read. Split hands out a
// ReadHalf and a WriteHalf so two goroutines can drive one connection.
//
// Listener accepts incoming connections (server role). Dialer opens one
// (client role). Setup failures are reported as *BindError and *ConnectError.
//
// # Implementations
//
// TCP is the default. WebSocket carries each write as one binary message and
// uses a normal-closure close frame as the half-close signal. The in-memory
// MemoryListener, MemoryDialer and MemoryPipe are built from two io.Pipes and
// exist for fast, deterministic tests.
//
// # Usage Example
//
//	listener, err := transport.Listen(config.TransportTCP, ":9000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer listener.Close()
//
//	conn, err := listener.Accept(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rd, wr := transport.Split(conn)
package transport
