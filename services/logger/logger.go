// logger/logger.go
package logger

import (
	"io"
	"sync"

	"radiobridge-go/services/cycle"
	"radiobridge-go/types"
	"radiobridge-go/x/conv"
	"radiobridge-go/x/tailring"
	"radiobridge-go/x/timex"
)

// DefaultTailBytes is the tail buffer ceiling (power of two).
const DefaultTailBytes = 4096

// SourceSystem tags firmware lifecycle entries (boot, heartbeat).
const SourceSystem = "SYSTEM"

// Recorder appends timestamped entries to the console, the tail buffer and
// the current cycle's flash file, in that order. Each sink is independently
// best-effort except the console, which is the primary real-time path and
// is always written first. An entry can never be lost to both the console
// and the tail.
//
// The mutex serializes callers: the async link path and the polled serial
// path both record through here, and entry order is the order calls acquire
// the lock. That is the documented weak ordering across the two paths;
// timestamps order entries for display only.
type Recorder struct {
	mu      sync.Mutex
	console io.Writer
	store   types.FileStore
	file    string
	tail    *tailring.Ring
}

// New opens the recorder for one cycle. Entries go to console first, then
// the tail ring, then append-and-close on the cycle's log file.
func New(console io.Writer, store types.FileStore, id cycle.ID) *Recorder {
	return &Recorder{
		console: console,
		store:   store,
		file:    cycle.FileName(id),
		tail:    tailring.New(DefaultTailBytes),
	}
}

// FileName returns the current cycle's log file name.
func (r *Recorder) FileName() string { return r.file }

// Record formats and emits one entry. Flash failure is silent here: the
// entry stays visible via console and tail.
func (r *Recorder) Record(source, message string) {
	line := formatLine(timex.SinceBootMs(), source, message)

	r.mu.Lock()
	defer r.mu.Unlock()

	// Console first: never buffered, never dropped, never waiting on flash.
	_, _ = r.console.Write(line)

	r.tail.Append(line)

	f, err := r.store.Open(r.file, types.ModeAppend)
	if err != nil {
		return
	}
	_, _ = f.Write(line)
	_ = f.Close()
}

// Tail returns a copy of the retained tail bytes, oldest first.
func (r *Recorder) Tail() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail.Bytes()
}

// TailLen returns the number of retained tail bytes.
func (r *Recorder) TailLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail.Len()
}

// ResetTail clears the tail buffer. The flash file is unaffected.
func (r *Recorder) ResetTail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tail.Reset()
}

// formatLine renders `<sec>.<mmm> <SOURCE> "<message>"\r\n` without fmt.
func formatLine(ms uint64, source, message string) []byte {
	sec, millis := timex.SplitMs(ms)

	var secBuf, msBuf [20]byte
	s := conv.Utoa(secBuf[:], sec)
	m := conv.UtoaPad(msBuf[:], millis, 3)

	line := make([]byte, 0, len(s)+len(m)+len(source)+len(message)+8)
	line = append(line, s...)
	line = append(line, '.')
	line = append(line, m...)
	line = append(line, ' ')
	line = append(line, source...)
	line = append(line, ' ', '"')
	line = append(line, message...)
	line = append(line, '"', '\r', '\n')
	return line
}
