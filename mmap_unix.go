//go:build unix

package vast

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapRegion is a read-only memory mapping of a file's full contents.
// Paging is delegated to the kernel: the resident set tracks actual access
// patterns rather than file size.
type mmapRegion struct {
	data []byte
}

// mapFile establishes a read-only mapping over f, whose length must equal
// size. Zero-length files are represented by a nil region rather than a
// failed mmap call (mmap(2) rejects zero-length mappings).
func mapFile(f *os.File, size int64) (*mmapRegion, error) {
	if size == 0 {
		return &mmapRegion{data: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, newErr(KindIoError, "mmap failed", err)
	}
	return &mmapRegion{data: data}, nil
}

func (m *mmapRegion) bytes() []byte {
	return m.data
}

func (m *mmapRegion) close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := unix.Munmap(data); err != nil {
		return newErr(KindIoError, "munmap failed", err)
	}
	return nil
}
