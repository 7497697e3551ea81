// fileserver/server.go
package fileserver

import (
	"context"
	"io"
	"strings"
	"time"

	"radiobridge-go/bus"
	"radiobridge-go/services/cycle"
	"radiobridge-go/services/logger"
	"radiobridge-go/types"
	"radiobridge-go/x/mathx"
	"radiobridge-go/x/strconvx"
	"radiobridge-go/x/timex"
)

const (
	defaultPollEvery = 50 * time.Millisecond

	// downloadPrefix is prepended to the attachment filename so saved
	// files identify the device they came from.
	downloadPrefix = "radioTuner_"

	downloadMarker = "GET /download?file="
	reqLineMax     = 256
	streamChunk    = 512
)

// SourceServer tags file server entries in the log.
const SourceServer = "SERVER"

// Server answers the two request shapes of the retrieval protocol: a
// listing of the retained log files and a byte-exact download of one file.
// One request at a time, processed synchronously to completion, then the
// connection is closed.
type Server struct {
	ln      types.Listener
	store   types.FileStore
	rec     *logger.Recorder
	current cycle.ID
	keep    int

	pollEvery time.Duration
}

func New(ln types.Listener, store types.FileStore, rec *logger.Recorder, current cycle.ID, keep int) *Server {
	return &Server{
		ln: ln, store: store, rec: rec, current: current, keep: keep,
		pollEvery: defaultPollEvery,
	}
}

// Start polls for pending connections until ctx is cancelled. A client
// arriving between polls waits for the next tick; there are no concurrent
// downloads. The accept poll period reloads from retained config/server
// messages; the port is bound before Start and cannot move.
func Start(ctx context.Context, conn *bus.Connection, s *Server) {
	stateTopic := bus.T("state", "server")
	publish := func(level, status string) {
		conn.Publish(conn.NewMessage(stateTopic,
			types.ServiceState{Level: level, Status: status, TS: timex.NowMs()}, true))
	}

	cfgSub := conn.Subscribe(bus.T("config", "server"))
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.pollEvery)
	defer tick.Stop()

	publish("up", "listening")
	for {
		select {
		case <-ctx.Done():
			publish("stopped", "context_cancelled")
			_ = s.ln.Close()
			return
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				s.applyConfig(types.DecodeServerConfig(m), tick)
			}
		case <-tick.C:
			s.Poll()
		}
	}
}

func (s *Server) applyConfig(cfg types.ServerConfig, tick *time.Ticker) {
	if cfg.PollMS > 0 {
		s.pollEvery = time.Duration(mathx.Clamp(cfg.PollMS, 10, 1000)) * time.Millisecond
		tick.Reset(s.pollEvery)
	}
}

// Poll accepts at most one pending connection and serves it to completion.
// It reports whether a request was served.
func (s *Server) Poll() bool {
	c, err := s.ln.Accept()
	if err != nil {
		return false
	}
	s.serve(c)
	_ = c.Close()
	return true
}

func (s *Server) serve(c types.Conn) {
	line, ok := readRequestLine(c)
	if !ok {
		return
	}
	if name, ok := downloadTarget(line); ok {
		s.sendFile(c, name)
		return
	}
	s.sendListing(c)
}

// readRequestLine reads until the first newline or the size cap. Anything
// beyond the request line is ignored; no full protocol parsing.
func readRequestLine(c types.Conn) (string, bool) {
	buf := make([]byte, 0, reqLineMax)
	var b [1]byte
	for len(buf) < reqLineMax {
		n, err := c.Read(b[:])
		if n > 0 {
			if b[0] == '\n' {
				return string(buf), true
			}
			buf = append(buf, b[0])
		}
		if err != nil {
			break
		}
	}
	return string(buf), len(buf) > 0
}

// downloadTarget extracts the requested filename from a download request
// line, terminated by space or end of line.
func downloadTarget(line string) (string, bool) {
	i := strings.Index(line, downloadMarker)
	if i < 0 {
		return "", false
	}
	rest := line[i+len(downloadMarker):]
	if j := strings.IndexAny(rest, " \r\n"); j >= 0 {
		rest = rest[:j]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

const notFoundResponse = "HTTP/1.1 404 Not Found\r\n" +
	"Content-Type: text/plain\r\n" +
	"Content-Length: 14\r\n" +
	"\r\n" +
	"File not found"

func (s *Server) sendFile(c types.Conn, name string) {
	f, err := s.store.Open(name, types.ModeRead)
	if err != nil {
		s.rec.Record(SourceServer, "Download miss "+name)
		writeAll(c, notFoundResponse)
		return
	}
	defer f.Close()

	// Without a size there is no exact Content-Length to promise, so the
	// file is reported missing rather than streamed with a wrong header.
	size, err := f.Size()
	if err != nil {
		s.rec.Record(SourceServer, "Download miss "+name)
		writeAll(c, notFoundResponse)
		return
	}
	s.rec.Record(SourceServer, "Download "+name)

	writeAll(c, "HTTP/1.1 200 OK\r\n"+
		"Content-Disposition: attachment; filename=\""+downloadPrefix+name+"\"\r\n"+
		"Content-Type: application/octet-stream\r\n"+
		"Content-Length: "+strconvx.FormatInt(size, 10)+"\r\n"+
		"\r\n")

	// Stream the body: exact bytes, exactly once, in order.
	var chunk [streamChunk]byte
	for {
		n, err := f.Read(chunk[:])
		if n > 0 {
			if _, werr := c.Write(chunk[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) sendListing(c types.Conn) {
	lo := cycle.ID(1)
	if s.current > cycle.ID(s.keep) {
		lo = s.current - cycle.ID(s.keep) + 1
	}

	var body strings.Builder
	body.WriteString("<html><body><h2>radioTuner logs</h2>\r\n")
	for id := lo; id <= s.current; id++ {
		name := cycle.FileName(id)
		if !s.store.Exists(name) {
			// Pruned or never created: silently skipped.
			continue
		}
		body.WriteString("<a href=\"/download?file=" + name + "\">" + name + "</a><br>\r\n")
	}
	body.WriteString("</body></html>\r\n")

	writeAll(c, "HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/html\r\n"+
		"Content-Length: "+strconvx.Itoa(body.Len())+"\r\n"+
		"\r\n")
	writeAll(c, body.String())
}

func writeAll(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
}
