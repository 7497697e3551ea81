// bridge/bridge.go
package bridge

import (
	"context"
	"time"

	"radiobridge-go/bus"
	"radiobridge-go/services/logger"
	"radiobridge-go/types"
	"radiobridge-go/x/mathx"
	"radiobridge-go/x/timex"
)

const (
	defaultPollEvery = 10 * time.Millisecond
	defaultMaxBurst  = 256
)

// Log entry source tags. The encoding of these into entry lines is a
// compatibility surface.
const (
	SourceLink   = "LINK"
	SourceSerial = "SERIAL"
)

// Start runs the bridge service. It blocks until ctx is cancelled.
//
// Two forwarding rules, each triggered by an arrival:
//   - link payload: record, then write the identical bytes to the serial
//     peripheral verbatim;
//   - serial bytes: echo back immediately, coalesce the burst, record one
//     combined entry once no more bytes are immediately available.
//
// Link events arrive on the link/ev bus subscription: the single-consumer
// queue that serializes the async radio callbacks against the serial poll.
// A burst may split across poll ticks; only the echo path guarantees no
// byte loss.
func Start(ctx context.Context, conn *bus.Connection, rec *logger.Recorder, link types.Link, port types.SerialPort) {
	s := &Service{
		conn:       conn,
		rec:        rec,
		link:       link,
		port:       port,
		stateTopic: bus.T("state", "bridge"),
		pollEvery:  defaultPollEvery,
		maxBurst:   defaultMaxBurst,
	}
	s.run(ctx)
}

type Service struct {
	conn       *bus.Connection
	rec        *logger.Recorder
	link       types.Link
	port       types.SerialPort
	stateTopic bus.Topic

	pollEvery time.Duration
	maxBurst  int
	burst     []byte
	scratch   [64]byte
}

func (s *Service) run(ctx context.Context) {
	evSub := s.conn.Subscribe(bus.T("link", "ev"))
	defer s.conn.Unsubscribe(evSub)
	cfgSub := s.conn.Subscribe(bus.T("config", "bridge"))
	defer s.conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.pollEvery)
	defer tick.Stop()

	s.publishState("up", "bridging", nil)

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return
		case msg, ok := <-evSub.Channel():
			if !ok {
				s.publishState("error", "event_subscription_closed", nil)
				return
			}
			if ev, ok := msg.Payload.(types.LinkEvent); ok {
				s.handleLinkEvent(ev)
			}
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				s.applyConfig(types.DecodeBridgeConfig(m), tick)
			}
		case <-tick.C:
			s.pollSerial()
		}
	}
}

func (s *Service) handleLinkEvent(ev types.LinkEvent) {
	switch ev.Kind {
	case types.LinkConnected:
		s.rec.Record(SourceLink, "Client connected")
		s.publishState("up", "client_connected", nil)
	case types.LinkDisconnected:
		s.rec.Record(SourceLink, "Client disconnected")
		// Resume accepting connections, exactly once per disconnect.
		err := s.link.Advertise()
		if err != nil {
			s.rec.Record(SourceLink, "Advertising restart failed")
			s.publishState("degraded", "advertise_failed", err)
			return
		}
		s.rec.Record(SourceLink, "Advertising restarted")
		s.publishState("up", "advertising", nil)
	case types.LinkData:
		if len(ev.Data) == 0 {
			return
		}
		s.rec.Record(SourceLink, string(ev.Data))
		_, _ = s.port.Write(ev.Data)
	}
}

// pollSerial drains immediately-available bytes, echoing each chunk as it
// is read, and records the accumulated burst as one entry.
func (s *Service) pollSerial() {
	for s.port.Buffered() > 0 {
		n := 0
		for n < len(s.scratch) && s.port.Buffered() > 0 {
			b, err := s.port.ReadByte()
			if err != nil {
				break
			}
			s.scratch[n] = b
			n++
		}
		if n == 0 {
			break
		}
		_, _ = s.port.Write(s.scratch[:n]) // local echo, verbatim
		s.burst = append(s.burst, s.scratch[:n]...)
		if len(s.burst) >= s.maxBurst {
			s.flushBurst()
		}
	}
	s.flushBurst()
}

func (s *Service) flushBurst() {
	if len(s.burst) == 0 {
		return
	}
	s.rec.Record(SourceSerial, string(s.burst))
	s.burst = s.burst[:0]
}

// applyConfig takes the live-reloadable fields. The serial section is
// boot-time only and ignored here.
func (s *Service) applyConfig(cfg types.BridgeConfig, tick *time.Ticker) {
	if cfg.PollMS > 0 {
		s.pollEvery = time.Duration(mathx.Clamp(cfg.PollMS, 1, 1000)) * time.Millisecond
		tick.Reset(s.pollEvery)
	}
	if cfg.MaxBurst > 0 {
		s.maxBurst = mathx.Clamp(cfg.MaxBurst, 16, 1024)
	}
}

func (s *Service) publishState(level, status string, err error) {
	st := types.ServiceState{
		Level:  level,
		Status: status,
		TS:     timex.NowMs(),
	}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(s.stateTopic, st, true))
}
