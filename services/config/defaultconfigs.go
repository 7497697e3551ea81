package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPicoW = `{
  "bridge": {
      "serial": { "baud": 9600, "tx_pin": 4, "rx_pin": 5 },
      "poll_ms": 10,
      "max_burst": 256
  },
  "retention": {
      "keep": 5
  },
  "server": {
      "port": 80,
      "poll_ms": 50
  },
  "heartbeat": {
      "interval": 60
  }
}`

// Host builds run against the loopback platform, so the serial pins are
// meaningless and the server moves off the privileged port.
const cfgHost = `{
  "bridge": {
      "serial": { "baud": 9600, "tx_pin": 0, "rx_pin": 0 },
      "poll_ms": 10,
      "max_burst": 256
  },
  "retention": {
      "keep": 5
  },
  "server": {
      "port": 8070,
      "poll_ms": 50
  },
  "heartbeat": {
      "interval": 60
  }
}`

var embeddedConfigs = map[string][]byte{
	"picow": []byte(cfgPicoW),
	"host":  []byte(cfgHost),
}
