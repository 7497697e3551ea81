package types

// Service configurations supplied as retained messages on config/<name>.
// Payloads arrive as decoded JSON objects (map[string]any); the Decode
// helpers pull typed values out without reflection. Absent or mistyped
// fields keep their zero value, so callers can tell "unset" from "set".

// BridgeConfig tunes the link/serial forwarder. Serial is boot-time only;
// the UART pins cannot move once configured.
type BridgeConfig struct {
	Serial   SerialConfig
	PollMS   int // serial poll period
	MaxBurst int // coalesce ceiling per entry
}

func DecodeBridgeConfig(m map[string]any) BridgeConfig {
	var c BridgeConfig
	if s, ok := m["serial"].(map[string]any); ok {
		if v, ok := asInt(s["baud"]); ok {
			c.Serial.Baud = uint32(v)
		}
		if v, ok := asInt(s["tx_pin"]); ok {
			c.Serial.TX = v
		}
		if v, ok := asInt(s["rx_pin"]); ok {
			c.Serial.RX = v
		}
	}
	c.PollMS, _ = asInt(m["poll_ms"])
	c.MaxBurst, _ = asInt(m["max_burst"])
	return c
}

// RetentionConfig bounds the number of per-cycle log files kept on flash.
// Applied once at boot; there is no live reload.
type RetentionConfig struct {
	Keep int
}

func DecodeRetentionConfig(m map[string]any) RetentionConfig {
	var c RetentionConfig
	c.Keep, _ = asInt(m["keep"])
	return c
}

// ServerConfig tunes the log file server. Port is boot-time only; the
// listener binds once. PollMS reloads live.
type ServerConfig struct {
	Port   uint16
	PollMS int // accept poll period
}

func DecodeServerConfig(m map[string]any) ServerConfig {
	var c ServerConfig
	if v, ok := asInt(m["port"]); ok && v > 0 && v <= 0xFFFF {
		c.Port = uint16(v)
	}
	c.PollMS, _ = asInt(m["poll_ms"])
	return c
}

// HeartbeatConfig sets the heartbeat interval in seconds.
type HeartbeatConfig struct {
	Interval int
}

func DecodeHeartbeatConfig(m map[string]any) HeartbeatConfig {
	var c HeartbeatConfig
	c.Interval, _ = asInt(m["interval"])
	return c
}

// DeviceConfig is the fully decoded embedded configuration. Boot reads it
// before the bus exists; services that reload live get the same sections
// again as retained config/<name> messages.
type DeviceConfig struct {
	Bridge    BridgeConfig
	Retention RetentionConfig
	Server    ServerConfig
	Heartbeat HeartbeatConfig
}

// asInt coerces the number representations a JSON decoder may hand back.
func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	}
	return 0, false
}
