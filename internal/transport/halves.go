package transport

// ReadHalf is the receiving side of a Connection
type ReadHalf struct {
	conn Connection
}

// Read reads from the underlying connection
func (h *ReadHalf) Read(p []byte) (int, error) {
	return h.conn.Read(p)
}

// CloseRead stops the read side of the underlying connection
func (h *ReadHalf) CloseRead() error {
	return h.conn.CloseRead()
}

// WriteHalf is the sending side of a Connection
type WriteHalf struct {
	conn Connection
}

// Write writes to the underlying connection
func (h *WriteHalf) Write(p []byte) (int, error) {
	return h.conn.Write(p)
}

// CloseWrite signals end of data on the underlying connection
func (h *WriteHalf) CloseWrite() error {
	return h.conn.CloseWrite()
}

// Split returns independent halves of conn. Each half may be driven by its
// own goroutine; closing the connection itself stays with the caller.
func Split(conn Connection) (*ReadHalf, *WriteHalf) {
	return &ReadHalf{conn: conn}, &WriteHalf{conn: conn}
}
