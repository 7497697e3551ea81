package main

import (
	"context"
	"time"

	"radiobridge-go/bus"
	"radiobridge-go/internal/platform"
	"radiobridge-go/services/bridge"
	"radiobridge-go/services/config"
	"radiobridge-go/services/console"
	"radiobridge-go/services/cycle"
	"radiobridge-go/services/fileserver"
	"radiobridge-go/services/heartbeat"
	"radiobridge-go/services/logger"
	"radiobridge-go/services/retention"
	"radiobridge-go/types"
	"radiobridge-go/x/conv"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	// Boot-time parameters come from the same embedded config the config
	// service later publishes on the bus.
	boot, err := config.Load(platform.DeviceName)
	if err != nil {
		println("config:", err.Error())
		return
	}
	keep := retention.DefaultKeep
	if boot.Retention.Keep > 0 {
		keep = boot.Retention.Keep
	}

	b := bus.NewBus(16, "+", "#")
	linkConn := b.NewConnection("link")
	linkEv := bus.T("link", "ev")

	plat, err := platform.New(platform.Config{
		Emit: func(ev types.LinkEvent) {
			linkConn.Publish(linkConn.NewMessage(linkEv, ev, false))
		},
		Serial:     boot.Bridge.Serial,
		ServerPort: boot.Server.Port,
	})
	if err != nil {
		println("platform:", err.Error())
		return
	}

	id := cycle.Next(plat.Store)
	retention.Prune(plat.Store, id, keep)

	rec := logger.New(plat.Console, plat.Store, id)
	var idBuf [20]byte
	rec.Record(logger.SourceSystem, "Boot cycle="+string(conv.Utoa(idBuf[:], uint64(id))))

	if err := plat.Link.Advertise(); err != nil {
		rec.Record(bridge.SourceLink, "Advertising failed")
	} else {
		rec.Record(bridge.SourceLink, "Advertising started")
	}

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, plat.Device)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	_ = heartbeat.NewService(rec).Start(ctx, b.NewConnection("heartbeat"))
	console.NewService(rec, plat.Store, id, plat.ConsoleIn, plat.Console).Start(ctx)

	srv := fileserver.New(plat.Listener, plat.Store, rec, id, keep)
	go fileserver.Start(ctx, b.NewConnection("server"), srv)

	// The bridge owns the main loop; it only returns on context cancel.
	bridge.Start(ctx, b.NewConnection("bridge"), rec, plat.Link, plat.Serial)
}
