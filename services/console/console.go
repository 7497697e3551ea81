// console/console.go
package console

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/google/shlex"

	"radiobridge-go/services/cycle"
	"radiobridge-go/services/logger"
	"radiobridge-go/types"
	"radiobridge-go/x/conv"
)

const lineMax = 128

// Service is the USB debug console: line-oriented commands over the CDC
// serial, for poking at the tail buffer and the flash store during
// development. It never writes log entries itself.
type Service struct {
	rec   *logger.Recorder
	store types.FileStore
	id    cycle.ID
	in    io.Reader
	out   io.Writer

	line []byte
}

func NewService(rec *logger.Recorder, store types.FileStore, id cycle.ID, in io.Reader, out io.Writer) *Service {
	return &Service{rec: rec, store: store, id: id, in: in, out: out}
}

// Start launches the reader loop in a goroutine.
func (s *Service) Start(ctx context.Context) {
	go s.serviceLoop(ctx)
}

func (s *Service) serviceLoop(ctx context.Context) {
	var buf [32]byte
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := s.in.Read(buf[:])
		if n > 0 {
			s.feed(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// feed accumulates bytes into lines; CR is ignored, LF terminates.
func (s *Service) feed(p []byte) {
	for _, b := range p {
		switch b {
		case '\n':
			s.handleLine(string(s.line))
			s.line = s.line[:0]
		case '\r':
			// ignore
		default:
			if len(s.line) < lineMax {
				s.line = append(s.line, b)
			}
		}
	}
}

func (s *Service) handleLine(line string) {
	args, err := shlex.Split(line)
	if err != nil || len(args) == 0 {
		return
	}
	switch args[0] {
	case "help":
		s.print("commands: tail | tail reset | ls | cycle | free | rm <file>\r\n")
	case "tail":
		if len(args) > 1 && args[1] == "reset" {
			s.rec.ResetTail()
			s.print("tail reset\r\n")
			return
		}
		_, _ = s.out.Write(s.rec.Tail())
	case "ls":
		s.listFiles()
	case "cycle":
		var buf [20]byte
		_, _ = s.out.Write(conv.Utoa(buf[:], uint64(s.id)))
		s.print("\r\n")
	case "free":
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		var buf [20]byte
		s.print("heap used: ")
		_, _ = s.out.Write(conv.Utoa(buf[:], ms.HeapInuse))
		s.print(" sys: ")
		_, _ = s.out.Write(conv.Utoa(buf[:], ms.Sys))
		s.print("\r\n")
	case "rm":
		if len(args) < 2 {
			s.print("usage: rm <file>\r\n")
			return
		}
		if s.store.Remove(args[1]) {
			s.print("removed\r\n")
		} else {
			s.print("remove failed\r\n")
		}
	default:
		s.print("unknown command: " + args[0] + "\r\n")
	}
}

func (s *Service) listFiles() {
	names, err := s.store.List()
	if err != nil {
		s.print("ls failed\r\n")
		return
	}
	for _, name := range names {
		s.print(name + "\r\n")
	}
}

func (s *Service) print(msg string) {
	_, _ = io.WriteString(s.out, msg)
}
