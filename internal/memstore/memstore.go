// Package memstore is a flat in-memory types.FileStore. It backs host
// builds and tests; hardware builds use littlefs instead.
package memstore

import (
	"io"
	"sync"

	"radiobridge-go/errcode"
	"radiobridge-go/types"
)

type Store struct {
	mu    sync.Mutex
	files map[string][]byte

	openErr   map[string]error
	writeErr  map[string]error
	sizeErr   map[string]error
	stuckFile map[string]bool // Remove reports false
}

func New() *Store {
	return &Store{
		files:     map[string][]byte{},
		openErr:   map[string]error{},
		writeErr:  map[string]error{},
		sizeErr:   map[string]error{},
		stuckFile: map[string]bool{},
	}
}

func (s *Store) Open(name string, mode types.FileMode) (types.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openErr[name]; err != nil {
		return nil, err
	}
	_, ok := s.files[name]
	switch mode {
	case types.ModeRead:
		if !ok {
			return nil, errcode.NotFound
		}
	case types.ModeWrite:
		s.files[name] = nil
	case types.ModeAppend:
		if !ok {
			s.files[name] = nil
		}
	}
	return &file{s: s, name: name, mode: mode}, nil
}

func (s *Store) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok
}

func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stuckFile[name] {
		return false
	}
	if _, ok := s.files[name]; !ok {
		return false
	}
	delete(s.files, name)
	return true
}

func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.files))
	for n := range s.files {
		names = append(names, n)
	}
	return names, nil
}

// ---- test hooks ----

// SetOpenError makes Open(name, *) fail with err (nil clears).
func (s *Store) SetOpenError(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.openErr, name)
		return
	}
	s.openErr[name] = err
}

// SetWriteError makes writes on name fail with err (nil clears).
func (s *Store) SetWriteError(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.writeErr, name)
		return
	}
	s.writeErr[name] = err
}

// SetSizeError makes Size on name fail with err (nil clears).
func (s *Store) SetSizeError(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.sizeErr, name)
		return
	}
	s.sizeErr[name] = err
}

// StickFile makes Remove(name) report failure while the file stays put.
func (s *Store) StickFile(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stuckFile[name] = true
}

// Contents returns a copy of the stored bytes.
func (s *Store) Contents(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Put seeds a file directly.
func (s *Store) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
}

// ---- file handle ----

type file struct {
	s    *Store
	name string
	mode types.FileMode
	pos  int
}

func (f *file) Read(p []byte) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	data, ok := f.s.files[f.name]
	if !ok {
		return 0, errcode.NotFound
	}
	if f.pos >= len(data) {
		return 0, io.EOF
	}
	n := copy(p, data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *file) Write(p []byte) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.mode == types.ModeRead {
		return 0, errcode.Unsupported
	}
	if err := f.s.writeErr[f.name]; err != nil {
		return 0, err
	}
	f.s.files[f.name] = append(f.s.files[f.name], p...)
	return len(p), nil
}

func (f *file) Close() error { return nil }

func (f *file) Size() (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.sizeErr[f.name]; err != nil {
		return 0, err
	}
	data, ok := f.s.files[f.name]
	if !ok {
		return 0, errcode.NotFound
	}
	return int64(len(data)), nil
}
