// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"radiobridge-go/bus"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	// Override lookup for this test.
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "picow" {
			return nil, false
		}
		return []byte(`{
			"bridge": {"poll_ms": 10},
			"retention": {"keep": 5},
			"heartbeat": {"interval": 60}
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16, "+", "#")
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "picow")
	svc.Start(ctx, conn)

	// Subscribe; retained messages should arrive as they are published.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	got := map[string]map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 3 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if m.Topic.Len() != 2 || m.Topic.At(0) != configPrefix {
				t.Fatalf("unexpected topic: %v", m.Topic)
			}
			if !m.Retained {
				t.Fatalf("config message for %q not retained", m.Topic.At(1))
			}
			val, ok := m.Payload.(map[string]any)
			if !ok {
				t.Fatalf("payload for %q is %T, want map", m.Topic.At(1), m.Payload)
			}
			got[m.Topic.At(1)] = val
		case <-time.After(50 * time.Millisecond):
		}
	}

	for _, key := range []string{"bridge", "retention", "heartbeat"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing config section %q (got %v)", key, got)
		}
	}
}

func TestConfig_LoadBootSections(t *testing.T) {
	// Decodes the real embedded host profile, so the values boot wires
	// into the platform are the ones the config service later publishes.
	dc, err := Load("host")
	if err != nil {
		t.Fatal(err)
	}
	if dc.Server.Port != 8070 {
		t.Fatalf("server port = %d", dc.Server.Port)
	}
	if dc.Server.PollMS != 50 {
		t.Fatalf("server poll_ms = %d", dc.Server.PollMS)
	}
	if dc.Bridge.Serial.Baud != 9600 {
		t.Fatalf("baud = %d", dc.Bridge.Serial.Baud)
	}
	if dc.Bridge.PollMS != 10 || dc.Bridge.MaxBurst != 256 {
		t.Fatalf("bridge = %+v", dc.Bridge)
	}
	if dc.Retention.Keep != 5 {
		t.Fatalf("keep = %d", dc.Retention.Keep)
	}
	if dc.Heartbeat.Interval != 60 {
		t.Fatalf("interval = %d", dc.Heartbeat.Interval)
	}
}

func TestConfig_LoadPicoWPort(t *testing.T) {
	dc, err := Load("picow")
	if err != nil {
		t.Fatal(err)
	}
	if dc.Server.Port != 80 {
		t.Fatalf("server port = %d", dc.Server.Port)
	}
	if dc.Bridge.Serial.TX != 4 || dc.Bridge.Serial.RX != 5 {
		t.Fatalf("pins = %+v", dc.Bridge.Serial)
	}
}

func TestConfig_LoadUnknownDevice(t *testing.T) {
	if _, err := Load("nonexistent"); err == nil {
		t.Fatal("expected error for unknown device")
	}
}

func TestConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4, "+", "#")
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	err := svc.publishConfig(context.Background(), conn)
	if err == nil {
		t.Fatal("expected error without device ID in context")
	}
}

func TestConfig_UnknownDevice(t *testing.T) {
	b := bus.NewBus(4, "+", "#")
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "nonexistent")
	if err := svc.publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for unknown device")
	}
}
