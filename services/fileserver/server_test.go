package fileserver

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"radiobridge-go/errcode"
	"radiobridge-go/internal/memstore"
	"radiobridge-go/services/cycle"
	"radiobridge-go/services/logger"
	"radiobridge-go/types"
)

type fakeConn struct {
	in     *bytes.Reader
	out    bytes.Buffer
	closed bool
}

func newFakeConn(request string) *fakeConn {
	return &fakeConn{in: bytes.NewReader([]byte(request))}
}

func (c *fakeConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *fakeConn) Close() error                { c.closed = true; return nil }

type fakeListener struct {
	pending []*fakeConn
	closed  bool
}

func (l *fakeListener) Accept() (types.Conn, error) {
	if len(l.pending) == 0 {
		return nil, errcode.NoPending
	}
	c := l.pending[0]
	l.pending = l.pending[1:]
	return c, nil
}
func (l *fakeListener) Close() error { l.closed = true; return nil }

func newServer(current cycle.ID, keep int) (*Server, *fakeListener, *memstore.Store) {
	store := memstore.New()
	ln := &fakeListener{}
	rec := logger.New(io.Discard, store, current)
	return New(ln, store, rec, current, keep), ln, store
}

// splitResponse separates headers from body at the blank line.
func splitResponse(t *testing.T, raw []byte) (string, []byte) {
	t.Helper()
	i := bytes.Index(raw, []byte("\r\n\r\n"))
	if i < 0 {
		t.Fatalf("no header terminator in %q", raw)
	}
	return string(raw[:i]), raw[i+4:]
}

func TestListingShowsRetainedRange(t *testing.T) {
	s, ln, store := newServer(7, 5)
	for id := cycle.ID(3); id <= 7; id++ {
		store.Put(cycle.FileName(id), []byte("x"))
	}

	c := newFakeConn("GET / HTTP/1.1\r\n\r\n")
	ln.pending = append(ln.pending, c)
	if !s.Poll() {
		t.Fatal("Poll served nothing")
	}

	headers, body := splitResponse(t, c.out.Bytes())
	if !strings.HasPrefix(headers, "HTTP/1.1 200 OK") {
		t.Fatalf("headers = %q", headers)
	}
	for id := 3; id <= 7; id++ {
		link := "/download?file=" + cycle.FileName(cycle.ID(id))
		if !bytes.Contains(body, []byte(link)) {
			t.Fatalf("listing missing %s: %q", link, body)
		}
	}
	for _, absent := range []string{"log_1.txt", "log_2.txt", "log_8.txt"} {
		if bytes.Contains(body, []byte(absent)) {
			t.Fatalf("listing leaked %s: %q", absent, body)
		}
	}
	if !c.closed {
		t.Fatal("connection left open")
	}
}

func TestListingSkipsMissingFilesInRange(t *testing.T) {
	s, ln, store := newServer(7, 5)
	// log_5 pruned or never created.
	for _, id := range []cycle.ID{3, 4, 6, 7} {
		store.Put(cycle.FileName(id), []byte("x"))
	}

	c := newFakeConn("GET / HTTP/1.1\r\n\r\n")
	ln.pending = append(ln.pending, c)
	s.Poll()

	_, body := splitResponse(t, c.out.Bytes())
	if bytes.Contains(body, []byte("log_5.txt")) {
		t.Fatalf("listing shows missing file: %q", body)
	}
}

func TestListingEarlyBoots(t *testing.T) {
	s, ln, store := newServer(2, 5)
	store.Put("log_1.txt", []byte("x"))
	store.Put("log_2.txt", []byte("x"))

	c := newFakeConn("GET / HTTP/1.1\r\n\r\n")
	ln.pending = append(ln.pending, c)
	s.Poll()

	_, body := splitResponse(t, c.out.Bytes())
	if !bytes.Contains(body, []byte("log_1.txt")) || !bytes.Contains(body, []byte("log_2.txt")) {
		t.Fatalf("listing = %q", body)
	}
}

func TestDownloadByteExact(t *testing.T) {
	s, ln, store := newServer(3, 5)
	content := []byte{0x00, 0xFF, '\r', '\n', 'A', 0x7F, 0x00}
	store.Put("log_3.txt", content)

	c := newFakeConn("GET /download?file=log_3.txt HTTP/1.1\r\n\r\n")
	ln.pending = append(ln.pending, c)
	s.Poll()

	headers, body := splitResponse(t, c.out.Bytes())
	if !strings.HasPrefix(headers, "HTTP/1.1 200 OK") {
		t.Fatalf("headers = %q", headers)
	}
	if !strings.Contains(headers, "Content-Disposition: attachment; filename=\"radioTuner_log_3.txt\"") {
		t.Fatalf("headers = %q", headers)
	}
	if !strings.Contains(headers, "Content-Type: application/octet-stream") {
		t.Fatalf("headers = %q", headers)
	}
	if !strings.Contains(headers, "Content-Length: 7") {
		t.Fatalf("headers = %q", headers)
	}
	if !bytes.Equal(body, content) {
		t.Fatalf("body = %v, want %v", body, content)
	}
}

func TestDownloadMissingFile(t *testing.T) {
	s, ln, _ := newServer(7, 5)

	c := newFakeConn("GET /download?file=log_1.txt HTTP/1.1\r\n\r\n")
	ln.pending = append(ln.pending, c)
	s.Poll()

	headers, body := splitResponse(t, c.out.Bytes())
	if !strings.HasPrefix(headers, "HTTP/1.1 404 Not Found") {
		t.Fatalf("headers = %q", headers)
	}
	if string(body) != "File not found" {
		t.Fatalf("body = %q", body)
	}
}

func TestDownloadSizeFailure(t *testing.T) {
	s, ln, store := newServer(3, 5)
	store.Put("log_3.txt", []byte("abc"))
	store.SetSizeError("log_3.txt", errcode.FlashOpen)

	c := newFakeConn("GET /download?file=log_3.txt HTTP/1.1\r\n\r\n")
	ln.pending = append(ln.pending, c)
	s.Poll()

	// No size means no exact Content-Length, so no body may be streamed.
	headers, body := splitResponse(t, c.out.Bytes())
	if !strings.HasPrefix(headers, "HTTP/1.1 404 Not Found") {
		t.Fatalf("headers = %q", headers)
	}
	if string(body) != "File not found" {
		t.Fatalf("body = %q", body)
	}
}

func TestApplyConfigPollPeriod(t *testing.T) {
	s, _, _ := newServer(1, 5)
	tick := time.NewTicker(s.pollEvery)
	defer tick.Stop()

	s.applyConfig(types.ServerConfig{PollMS: 100}, tick)
	if s.pollEvery != 100*time.Millisecond {
		t.Fatalf("pollEvery = %v", s.pollEvery)
	}

	// Unset leaves the period alone; too fast clamps to the floor.
	s.applyConfig(types.ServerConfig{}, tick)
	if s.pollEvery != 100*time.Millisecond {
		t.Fatalf("pollEvery = %v", s.pollEvery)
	}
	s.applyConfig(types.ServerConfig{PollMS: 1}, tick)
	if s.pollEvery != 10*time.Millisecond {
		t.Fatalf("pollEvery = %v", s.pollEvery)
	}
}

func TestDownloadTargetParsing(t *testing.T) {
	cases := []struct {
		line string
		name string
		ok   bool
	}{
		{"GET /download?file=log_3.txt HTTP/1.1", "log_3.txt", true},
		{"GET /download?file=log_3.txt", "log_3.txt", true},
		{"GET /download?file=", "", false},
		{"GET / HTTP/1.1", "", false},
		{"GET /list HTTP/1.1", "", false},
	}
	for _, c := range cases {
		name, ok := downloadTarget(c.line)
		if name != c.name || ok != c.ok {
			t.Fatalf("downloadTarget(%q) = (%q,%v), want (%q,%v)", c.line, name, ok, c.name, c.ok)
		}
	}
}

func TestOneRequestPerPoll(t *testing.T) {
	s, ln, store := newServer(1, 5)
	store.Put("log_1.txt", []byte("x"))

	first := newFakeConn("GET / HTTP/1.1\r\n\r\n")
	second := newFakeConn("GET / HTTP/1.1\r\n\r\n")
	ln.pending = append(ln.pending, first, second)

	s.Poll()
	if !first.closed || second.closed {
		t.Fatal("expected exactly the first connection to be served")
	}
	s.Poll()
	if !second.closed {
		t.Fatal("second connection not served on next poll")
	}
}

func TestPollIdle(t *testing.T) {
	s, _, _ := newServer(1, 5)
	if s.Poll() {
		t.Fatal("Poll reported service with no pending client")
	}
}
