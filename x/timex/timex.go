package timex

import "time"

// boot is captured at init; on MCU builds the monotonic clock starts near
// power-on anyway, so entries are effectively boot-relative either way.
var boot = time.Now()

// SinceBootMs returns elapsed milliseconds since boot.
func SinceBootMs() uint64 {
	d := time.Since(boot)
	if d < 0 {
		return 0
	}
	return uint64(d.Milliseconds())
}

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// SplitMs splits elapsed milliseconds into whole seconds and the
// millisecond remainder, the shape used by log entry lines.
func SplitMs(ms uint64) (sec, millis uint64) {
	return ms / 1000, ms % 1000
}
