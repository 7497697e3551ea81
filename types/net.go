package types

import "io"

// ------------------------
// Network transport
// ------------------------

// Conn is a single accepted client connection. The file server writes the
// whole response and closes; there is no keep-alive.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Listener accepts at most one pending connection per poll. Accept must not
// block: when no client is waiting it returns errcode.NoPending.
type Listener interface {
	Accept() (Conn, error)
	Close() error
}
