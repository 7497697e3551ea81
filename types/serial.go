package types

// ------------------------
// Serial
// ------------------------

// SerialPort is the wired peripheral consumed by the bridge. The shape
// mirrors machine.UART so hardware ports satisfy it directly.
type SerialPort interface {
	// Buffered returns the number of bytes ready without blocking.
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// SerialConfig is the boot-time UART setup carried on config/bridge.
type SerialConfig struct {
	Baud uint32 `json:"baud"`
	TX   int    `json:"tx_pin"`
	RX   int    `json:"rx_pin"`
}
