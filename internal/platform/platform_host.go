//go:build !tinygo

package platform

import (
	"net"
	"os"
	"sync"
	"time"

	"radiobridge-go/errcode"
	"radiobridge-go/internal/memstore"
	"radiobridge-go/types"
)

// DeviceName selects the embedded config profile for this build.
const DeviceName = "host"

// New on the host stands the firmware up around in-memory fakes and a real
// TCP socket, so the full boot sequence can be exercised without a board.
func New(cfg Config) (*Platform, error) {
	ln, err := listen(cfg.ServerPort)
	if err != nil {
		return nil, err
	}
	return &Platform{
		Device:    DeviceName,
		Store:     memstore.New(),
		Link:      &hostLink{emit: cfg.Emit},
		Serial:    &hostSerial{},
		Listener:  ln,
		Console:   os.Stdout,
		ConsoleIn: os.Stdin,
	}, nil
}

// hostLink is an inert radio. Advertise succeeds immediately and Notify
// drops frames, which is enough for the services to run their full paths.
type hostLink struct {
	emit func(types.LinkEvent)
}

func (l *hostLink) Advertise() error { return nil }

func (l *hostLink) Notify(p []byte) error { return nil }

// hostSerial is the host stand-in for the UART. Reads drain an injectable
// rx buffer and writes land in a separate capture buffer, so the bridge
// echoing what it read cannot feed its own poll loop.
type hostSerial struct {
	mu sync.Mutex
	rx []byte
	tx []byte
}

func (s *hostSerial) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rx)
}

func (s *hostSerial) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rx) == 0 {
		return 0, errcode.NoPending
	}
	b := s.rx[0]
	s.rx = s.rx[1:]
	return b, nil
}

func (s *hostSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tx = append(s.tx, p...)
	return len(p), nil
}

// Inject queues bytes for the firmware to read, as if the peripheral sent
// them.
func (s *hostSerial) Inject(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rx = append(s.rx, p...)
}

// Written returns a copy of everything the firmware wrote out.
func (s *hostSerial) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.tx...)
}

// tcpListener adapts a net.TCPListener to the non-blocking Accept contract
// by probing with a short deadline.
type tcpListener struct {
	ln *net.TCPListener
}

func listen(port uint16) (types.Listener, error) {
	if port == 0 {
		port = 8070
	}
	addr := &net.TCPAddr{Port: int(port)}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &tcpListener{ln: ln}, nil
}

func (l *tcpListener) Accept() (types.Conn, error) {
	l.ln.SetDeadline(time.Now().Add(time.Millisecond))
	c, err := l.ln.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, errcode.NoPending
		}
		return nil, err
	}
	return c, nil
}

func (l *tcpListener) Close() error { return l.ln.Close() }
