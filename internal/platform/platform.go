// Package platform assembles the hardware-facing resources behind the
// interfaces in types. Hardware builds wire littlefs, BLE, UART and the
// Wi-Fi TCP stack; host builds substitute in-memory fakes so the whole
// firmware runs in a normal process.
package platform

import (
	"io"

	"radiobridge-go/types"
)

// Config carries what the platform needs from the application.
type Config struct {
	// Emit is the single handler all link event variants are dispatched
	// through. It is invoked from the radio callback path; implementations
	// must hand over private copies of payload bytes.
	Emit func(types.LinkEvent)

	Serial     types.SerialConfig
	ServerPort uint16
}

// Platform is the owning context for every hardware resource the services
// share.
type Platform struct {
	Device string // device ID for embedded config lookup

	Store     types.FileStore
	Link      types.Link
	Serial    types.SerialPort
	Listener  types.Listener
	Console   io.Writer // live log sink, never buffered
	ConsoleIn io.Reader // debug command input
}
