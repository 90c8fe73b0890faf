//go:build !unix

package vast

import (
	"io"
	"os"
)

// mmapRegion emulates the unix mapFile contract by reading the file fully
// into process memory. Behavior is identical to callers (a []byte view
// over the whole file); only the paging-to-disk benefit of a real mapping
// is lost on this platform.
type mmapRegion struct {
	data []byte
}

func mapFile(f *os.File, size int64) (*mmapRegion, error) {
	if size == 0 {
		return &mmapRegion{data: nil}, nil
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, newErr(KindIoError, "read failed", err)
	}
	return &mmapRegion{data: data}, nil
}

func (m *mmapRegion) bytes() []byte {
	return m.data
}

func (m *mmapRegion) close() error {
	m.data = nil
	return nil
}
