package vast

import (
	"os"
	"sync"
)

// Reader is the sole owner of a file's memory mapping. It serves
// arbitrary byte spans with zero-copy slices and decodes spans to text on
// demand; it never buffers decoded content, so a 100 GiB file occupies
// only kernel page cache plus fixed per-handle overhead.
type Reader struct {
	mu       sync.RWMutex
	path     string
	file     *os.File
	region   *mmapRegion
	encoding Encoding
	size     int64
	closed   bool
}

// Open establishes a read-only memory mapping over path. If encodingHint
// is nil, the active encoding is detected from a byte-order mark in the
// first bytes of the file, defaulting to UTF-8 when none is present.
func Open(path string, encodingHint *Encoding) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(KindIoError, "open failed", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, newErr(KindIoError, "stat failed", err)
	}
	size := info.Size()

	region, err := mapFile(f, size)
	if err != nil {
		f.Close()
		return nil, err
	}

	enc := resolveEncoding(encodingHint, region.bytes())

	return &Reader{
		path:     path,
		file:     f,
		region:   region,
		encoding: enc,
		size:     size,
	}, nil
}

// OpenEmpty returns a Reader over a path that does not yet exist (or is
// empty), so "open a brand-new file" is a first-class path rather than a
// mapping failure — mmap(2) itself cannot map a zero-length file.
func OpenEmpty(path string, encodingHint *Encoding) *Reader {
	enc := encUTF8
	if encodingHint != nil {
		enc = *encodingHint
	}
	return &Reader{
		path:     path,
		region:   &mmapRegion{},
		encoding: enc,
	}
}

func resolveEncoding(hint *Encoding, head []byte) Encoding {
	if hint != nil {
		return *hint
	}
	probe := head
	if len(probe) > 4 {
		probe = probe[:4]
	}
	return DetectEncoding(probe)
}

// Len returns the number of bytes in the underlying file as of open.
func (r *Reader) Len() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// EncodingOf returns the active encoding.
func (r *Reader) EncodingOf() Encoding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.encoding
}

// Path returns the path the Reader was opened against.
func (r *Reader) Path() string {
	return r.path
}

// Bytes returns a zero-copy slice of the mapping over [a, b). The caller
// must ensure 0 ≤ a ≤ b ≤ Len(); violating that is a programmer error and
// panics, matching the contract's "out-of-range is a programmer error".
func (r *Reader) Bytes(a, b int64) []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a < 0 || a > b || b > r.size {
		panic("vast: byte range out of bounds")
	}
	if a == b {
		return nil
	}
	return r.region.bytes()[a:b]
}

// Decode converts the byte slice [a, b) to a displayable text string under
// the active encoding. Invalid sequences become the Unicode replacement
// character; this call never fails.
func (r *Reader) Decode(a, b int64) string {
	return r.EncodingOf().Decode(r.Bytes(a, b))
}

// SetEncoding switches the active encoding used by Decode, for the
// consumer-facing set_encoding(e) operation (§6). The existing mapping and
// file handle are kept; only the encoding changes.
func (r *Reader) SetEncoding(enc Encoding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoding = enc
	return nil
}

// Reopen drops the mapping and re-maps the current path. Used after a
// copy-on-write commit, once the destination has been renamed over the
// source, to pick up the new file's contents under the same handle.
func (r *Reader) Reopen() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return newErr(KindIoError, "reader closed", ErrClosed)
	}

	if r.region != nil {
		r.region.close()
	}
	if r.file != nil {
		r.file.Close()
	}

	f, err := os.Open(r.path)
	if err != nil {
		return newErr(KindIoError, "reopen failed", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return newErr(KindIoError, "stat failed", err)
	}
	size := info.Size()

	region, err := mapFile(f, size)
	if err != nil {
		f.Close()
		return err
	}

	r.file = f
	r.region = region
	r.size = size
	return nil
}

// Close releases the mapping and the underlying file handle. It is safe to
// call Close more than once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.region != nil {
		err = r.region.close()
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
