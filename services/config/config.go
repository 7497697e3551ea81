package config

import (
	"context"
	"errors"

	"radiobridge-go/bus"
	"radiobridge-go/types"

	"github.com/andreyvit/tinyjson"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// sections parses the embedded config for device into its top-level
// JSON sections.
func sections(device string) (map[string]any, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, errors.New("no embedded config for device: " + device)
	}

	r := tinyjson.Raw(raw)
	val := r.Value() // should be a map[string]any
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return nil, errors.New("embedded config is not a JSON object")
	}
	return m, nil
}

// Load decodes the embedded config for device into typed sections. Boot
// uses it for parameters that must be fixed before the bus exists, such
// as the UART pins and the listener port.
func Load(device string) (types.DeviceConfig, error) {
	m, err := sections(device)
	if err != nil {
		return types.DeviceConfig{}, err
	}
	var dc types.DeviceConfig
	if s, ok := m["bridge"].(map[string]any); ok {
		dc.Bridge = types.DecodeBridgeConfig(s)
	}
	if s, ok := m["retention"].(map[string]any); ok {
		dc.Retention = types.DecodeRetentionConfig(s)
	}
	if s, ok := m["server"].(map[string]any); ok {
		dc.Server = types.DecodeServerConfig(s)
	}
	if s, ok := m["heartbeat"].(map[string]any); ok {
		dc.Heartbeat = types.DecodeHeartbeatConfig(s)
	}
	return dc, nil
}

// publishConfig reads the device config from embedded data and publishes
// each top-level section as a retained config/<section> message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	m, err := sections(device)
	if err != nil {
		return err
	}

	for k, v := range m {
		conn.Publish(&bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  v,
			Retained: true,
		})
	}

	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		_ = s.publishConfig(ctx, conn)
	}()
}
