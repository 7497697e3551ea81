package types

import "testing"

func TestDecodeBridgeConfig(t *testing.T) {
	m := map[string]any{
		"serial":    map[string]any{"baud": float64(9600), "tx_pin": float64(4), "rx_pin": float64(5)},
		"poll_ms":   float64(10),
		"max_burst": float64(256),
	}
	c := DecodeBridgeConfig(m)
	if c.Serial.Baud != 9600 || c.Serial.TX != 4 || c.Serial.RX != 5 {
		t.Fatalf("serial = %+v", c.Serial)
	}
	if c.PollMS != 10 || c.MaxBurst != 256 {
		t.Fatalf("cfg = %+v", c)
	}
}

func TestDecodeAbsentFieldsStayZero(t *testing.T) {
	c := DecodeBridgeConfig(map[string]any{})
	if c.PollMS != 0 || c.MaxBurst != 0 || c.Serial.Baud != 0 {
		t.Fatalf("cfg = %+v", c)
	}
	if s := DecodeServerConfig(map[string]any{}); s.Port != 0 || s.PollMS != 0 {
		t.Fatalf("server = %+v", s)
	}
}

func TestDecodeServerConfigPortRange(t *testing.T) {
	if c := DecodeServerConfig(map[string]any{"port": float64(8070)}); c.Port != 8070 {
		t.Fatalf("port = %d", c.Port)
	}
	// Out of uint16 range or non-positive: left unset.
	if c := DecodeServerConfig(map[string]any{"port": float64(70000)}); c.Port != 0 {
		t.Fatalf("port = %d", c.Port)
	}
	if c := DecodeServerConfig(map[string]any{"port": float64(-1)}); c.Port != 0 {
		t.Fatalf("port = %d", c.Port)
	}
}

func TestDecodeMistypedFieldIgnored(t *testing.T) {
	c := DecodeHeartbeatConfig(map[string]any{"interval": "soon"})
	if c.Interval != 0 {
		t.Fatalf("interval = %d", c.Interval)
	}
}

func TestDecodeIntegerVariants(t *testing.T) {
	for _, v := range []any{int(5), int64(5), uint64(5), float64(5)} {
		if c := DecodeRetentionConfig(map[string]any{"keep": v}); c.Keep != 5 {
			t.Fatalf("keep from %T = %d", v, c.Keep)
		}
	}
}
