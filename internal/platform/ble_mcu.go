//go:build rp2040

package platform

import (
	"tinygo.org/x/bluetooth"

	"radiobridge-go/errcode"
	"radiobridge-go/types"
	"radiobridge-go/x/timex"
)

const bleName = "RadioBridge"

// bleLink exposes the Nordic UART service over the onboard radio. RX writes
// and connection state changes are dispatched through the single emit
// handler; Notify pushes bytes to the subscribed central on TX.
type bleLink struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
	tx      bluetooth.Characteristic
	emit    func(types.LinkEvent)
	up      bool
}

func newBLELink(emit func(types.LinkEvent)) (*bleLink, error) {
	l := &bleLink{adapter: bluetooth.DefaultAdapter, emit: emit}
	if err := l.adapter.Enable(); err != nil {
		return nil, err
	}
	l.adapter.SetConnectHandler(func(dev bluetooth.Device, connected bool) {
		kind := types.LinkDisconnected
		if connected {
			kind = types.LinkConnected
		}
		l.up = connected
		l.emit(types.LinkEvent{Kind: kind, TS: timex.NowMs()})
	})
	err := l.adapter.AddService(&bluetooth.Service{
		UUID: bluetooth.ServiceUUIDNordicUART,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				UUID: bluetooth.CharacteristicUUIDUARTRX,
				Flags: bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					// The stack reuses value's backing array; hand over a copy.
					data := make([]byte, len(value))
					copy(data, value)
					l.emit(types.LinkEvent{Kind: types.LinkData, Data: data, TS: timex.NowMs()})
				},
			},
			{
				Handle: &l.tx,
				UUID:   bluetooth.CharacteristicUUIDUARTTX,
				Value:  []byte("radioTuner"),
				Flags: bluetooth.CharacteristicNotifyPermission |
					bluetooth.CharacteristicReadPermission,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	l.adv = l.adapter.DefaultAdvertisement()
	err = l.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    bleName,
		ServiceUUIDs: []bluetooth.UUID{bluetooth.ServiceUUIDNordicUART},
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (l *bleLink) Advertise() error { return l.adv.Start() }

func (l *bleLink) Notify(p []byte) error {
	if !l.up {
		return errcode.LinkDown
	}
	// Notifications cap out near the default ATT MTU.
	const maxChunk = 20
	for len(p) > 0 {
		n := len(p)
		if n > maxChunk {
			n = maxChunk
		}
		if _, err := l.tx.Write(p[:n]); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
