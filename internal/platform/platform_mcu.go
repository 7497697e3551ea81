//go:build rp2040

package platform

import (
	"machine"
	"time"
)

// DeviceName selects the embedded config profile for this build.
const DeviceName = "picow"

// New brings up the Pico W resources. Flash mounts first so a radio or
// Wi-Fi failure still leaves the filesystem reachable over USB.
func New(cfg Config) (*Platform, error) {
	store, err := newFlashStore()
	if err != nil {
		return nil, err
	}
	link, err := newBLELink(cfg.Emit)
	if err != nil {
		return nil, err
	}
	ln, err := newWifiListener(cfg.ServerPort)
	if err != nil {
		return nil, err
	}
	return &Platform{
		Device:    DeviceName,
		Store:     store,
		Link:      link,
		Serial:    newUARTSerial(cfg.Serial),
		Listener:  ln,
		Console:   machine.Serial,
		ConsoleIn: &serialIn{port: machine.Serial},
	}, nil
}

// serialIn turns the byte-at-a-time USB CDC reader into an io.Reader for
// the debug console. Read parks until at least one byte arrives.
type serialIn struct {
	port machine.Serialer
}

func (s *serialIn) Read(p []byte) (int, error) {
	for {
		n := s.port.Buffered()
		if n > 0 {
			if n > len(p) {
				n = len(p)
			}
			for i := 0; i < n; i++ {
				b, err := s.port.ReadByte()
				if err != nil {
					return i, nil
				}
				p[i] = b
			}
			return n, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}
