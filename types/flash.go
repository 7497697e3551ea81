package types

// ------------------------
// Flash file store
// ------------------------

// FileMode selects how a flash file is opened. The store has no directory
// hierarchy; names are flat strings.
type FileMode uint8

const (
	ModeRead   FileMode = iota // existing file, read from start
	ModeWrite                  // create or truncate
	ModeAppend                 // create if missing, write at end
)

// File is an open flash file handle. Size reports the full on-flash length
// regardless of the current read position.
type File interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Size() (int64, error)
}

// FileStore is the byte-oriented flash filesystem consumed by the logging
// subsystem. Implementations are littlefs on hardware and an in-memory map
// on the host.
type FileStore interface {
	Open(name string, mode FileMode) (File, error)
	Exists(name string) bool
	// Remove reports whether the file was deleted.
	Remove(name string) bool
	List() ([]string, error)
}
