//go:build rp2040

package platform

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"radiobridge-go/types"
)

// uartSerial adapts uartx to the SerialPort the bridge polls. The tuner
// hangs off UART1; UART0's default pins overlap the debug header.
type uartSerial struct{ u *uartx.UART }

func newUARTSerial(cfg types.SerialConfig) *uartSerial {
	hw := uartx.UART1
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TX),
		RX:       machine.Pin(cfg.RX),
	})
	return &uartSerial{u: hw}
}

func (s *uartSerial) Buffered() int { return s.u.Buffered() }

func (s *uartSerial) ReadByte() (byte, error) { return s.u.ReadByte() }

func (s *uartSerial) Write(p []byte) (int, error) { return s.u.Write(p) }
