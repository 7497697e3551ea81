//go:build rp2040

package platform

import (
	"machine"
	"os"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"

	"radiobridge-go/types"
)

// flashStore keeps log files in a littlefs volume on the spare tail of the
// onboard flash, behind the firmware image.
type flashStore struct {
	fs *littlefs.LFS
}

func newFlashStore() (*flashStore, error) {
	fs := littlefs.New(machine.Flash)
	fs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 512,
		BlockCycles:   100,
	})
	if err := fs.Mount(); err != nil {
		// Blank flash on first boot. Format and retry once.
		if err := fs.Format(); err != nil {
			return nil, err
		}
		if err := fs.Mount(); err != nil {
			return nil, err
		}
	}
	return &flashStore{fs: fs}, nil
}

func (s *flashStore) Open(name string, mode types.FileMode) (types.File, error) {
	flags := os.O_RDONLY
	switch mode {
	case types.ModeWrite:
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case types.ModeAppend:
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := s.fs.OpenFile(name, flags)
	if err != nil {
		return nil, err
	}
	return &flashFile{store: s, f: f, name: name}, nil
}

func (s *flashStore) Exists(name string) bool {
	_, err := s.fs.Stat(name)
	return err == nil
}

func (s *flashStore) Remove(name string) bool {
	return s.fs.Remove(name) == nil
}

func (s *flashStore) List() ([]string, error) {
	dir, err := s.fs.Open("/")
	if err != nil {
		return nil, err
	}
	defer dir.Close()
	infos, err := dir.Readdir(0)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		names = append(names, fi.Name())
	}
	return names, nil
}

type flashFile struct {
	store *flashStore
	f     tinyfs.File
	name  string
}

func (f *flashFile) Read(p []byte) (int, error) { return f.f.Read(p) }

func (f *flashFile) Write(p []byte) (int, error) { return f.f.Write(p) }

func (f *flashFile) Close() error { return f.f.Close() }

func (f *flashFile) Size() (int64, error) {
	fi, err := f.store.fs.Stat(f.name)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
