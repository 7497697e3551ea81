// Package cycle owns the boot counter and the per-cycle file naming.
//
// One cycle is one power-on session. The counter lives as plain decimal
// text in a fixed flash file; it is read once at boot, incremented, written
// back, and never touched again for the session.
package cycle

import (
	"io"
	"strings"

	"radiobridge-go/types"
	"radiobridge-go/x/conv"
	"radiobridge-go/x/strconvx"
)

const (
	// CounterFile persists the cycle counter as decimal text.
	CounterFile = "cycle.txt"

	filePrefix = "log_"
	fileSuffix = ".txt"
)

// ID identifies one power-on session. Zero means "no prior cycle".
type ID uint32

// Next reads the persisted counter, writes back counter+1 and returns it.
// A missing or unreadable counter defaults to zero rather than failing
// boot; a failed write-back is tolerated degraded mode (the returned id is
// still used for this session).
func Next(store types.FileStore) ID {
	next := load(store) + 1
	persist(store, next)
	return next
}

func load(store types.FileStore) ID {
	f, err := store.Open(CounterFile, types.ModeRead)
	if err != nil {
		return 0
	}
	defer f.Close()

	var buf [16]byte
	n, err := f.Read(buf[:])
	if n == 0 && err != nil && err != io.EOF {
		return 0
	}
	v, err := strconvx.ParseUint(strings.TrimSpace(string(buf[:n])), 10, 32)
	if err != nil {
		return 0
	}
	return ID(v)
}

func persist(store types.FileStore, id ID) {
	f, err := store.Open(CounterFile, types.ModeWrite)
	if err != nil {
		return
	}
	var buf [20]byte
	_, _ = f.Write(conv.Utoa(buf[:], uint64(id)))
	_ = f.Close()
}

// FileName returns the log file name for a cycle, log_<id>.txt.
// The encoding is a compatibility surface; keep it bit-exact.
func FileName(id ID) string {
	var buf [20]byte
	return filePrefix + string(conv.Utoa(buf[:], uint64(id))) + fileSuffix
}

// ParseFileName extracts the cycle id from a log file name. It reports
// false for names outside the log_<decimal>.txt pattern.
func ParseFileName(name string) (ID, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return 0, false
	}
	digits := name[len(filePrefix) : len(name)-len(fileSuffix)]
	if digits == "" {
		return 0, false
	}
	v, err := strconvx.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return ID(v), true
}
