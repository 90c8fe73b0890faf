package vast

import (
	"os"
	"sync"
)

// SaveSummary describes a completed commit_save.
type SaveSummary struct {
	BytesWritten int64
	EditsApplied int
}

// SaveMessage is one event on a CommitSave channel: a Progress update, a
// terminal Done with a summary, or a terminal Err.
type SaveMessage struct {
	Progress *Progress
	Done     *SaveSummary
	Err      *EngineError
}

// Viewer is the host-facing boundary between this engine and whatever
// presents the file: a GUI shell, a TUI, or a demo CLI. It owns one
// Reader and its LineIndex, and hands out SearchEngine/Replacer
// operations scoped to that Reader.
type Viewer struct {
	mu     sync.RWMutex
	reader *Reader
	index  *LineIndex
}

// OpenViewer opens path (or treats a missing or zero-length path as a
// brand-new empty file) and builds its line index.
func OpenViewer(path string, encodingHint *Encoding) (*Viewer, error) {
	info, statErr := os.Stat(path)

	var reader *Reader
	switch {
	case statErr != nil && os.IsNotExist(statErr):
		reader = OpenEmpty(path, encodingHint)
	case statErr != nil:
		return nil, newErr(KindIoError, "stat failed", statErr)
	case info.Size() == 0:
		reader = OpenEmpty(path, encodingHint)
	default:
		var err error
		reader, err = Open(path, encodingHint)
		if err != nil {
			return nil, err
		}
	}

	idx, err := BuildLineIndex(reader)
	if err != nil {
		reader.Close()
		return nil, err
	}

	return &Viewer{reader: reader, index: idx}, nil
}

// Close releases the underlying mapping.
func (v *Viewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reader.Close()
}

// Encoding returns the active encoding.
func (v *Viewer) Encoding() Encoding {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.reader.EncodingOf()
}

// SetEncoding re-decodes the file under enc and rebuilds the line index,
// per the "re-opens with e" contract.
func (v *Viewer) SetEncoding(enc Encoding) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.reader.SetEncoding(enc); err != nil {
		return err
	}
	idx, err := BuildLineIndex(v.reader)
	if err != nil {
		return err
	}
	v.index = idx
	return nil
}

// ReadLine returns the decoded text of line n (0-based), or ok=false if n
// is beyond the end of the file.
func (v *Viewer) ReadLine(n int64) (text string, ok bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	start, length, err := v.index.LineSpan(n)
	if err != nil {
		return "", false
	}
	return v.reader.Decode(start, start+length), true
}

// ReadLines returns up to count consecutive lines starting at line start,
// stopping early at the end of the file.
func (v *Viewer) ReadLines(start, count int64) []string {
	lines := make([]string, 0, count)
	for i := int64(0); i < count; i++ {
		line, ok := v.ReadLine(start + i)
		if !ok {
			break
		}
		lines = append(lines, line)
	}
	return lines
}

// StartCount begins a count_matches operation over the viewer's file.
func (v *Viewer) StartCount(query SearchQuery, cancel *CancelToken) (<-chan CountMessage, error) {
	v.mu.RLock()
	reader := v.reader
	v.mu.RUnlock()

	var se SearchEngine
	if err := se.SetQuery(query); err != nil {
		return nil, err
	}
	return se.CountMatches(reader, cancel), nil
}

// StartFetch begins a fetch_matches operation starting at fromLine,
// returning up to max matches (max < 0 means unbounded).
func (v *Viewer) StartFetch(query SearchQuery, fromLine int64, max int, cancel *CancelToken) (<-chan ChunkMessage, error) {
	v.mu.RLock()
	reader := v.reader
	fromOffset, err := v.index.OffsetOf(fromLine)
	v.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var se SearchEngine
	if err := se.SetQuery(query); err != nil {
		return nil, err
	}
	return se.FetchMatches(reader, fromOffset, max, cancel), nil
}

// CommitSave applies pendingEdits (sorted, non-overlapping, as enforced by
// the caller per the Pending Replacement invariant) and writes the result
// to destPath, rebuilding the viewer's mapping over the new content on
// success. If destPath equals the currently open path, the rewrite goes
// through a scratch file that is atomically renamed over it; otherwise
// destPath is written directly and the viewer keeps reading the original.
func (v *Viewer) CommitSave(destPath string, pendingEdits []Edit) <-chan SaveMessage {
	out := make(chan SaveMessage, 4)

	go func() {
		defer close(out)

		v.mu.Lock()
		srcPath := v.reader.Path()
		v.mu.Unlock()

		writePath := destPath
		renameOverSource := false
		if destPath == srcPath {
			writePath = destPath + ".vast-tmp"
			renameOverSource = true
		}

		cancel := NewCancelToken()
		var r Replacer
		var bytesWritten int64
		for pm := range r.ReplaceCopyOnWrite(srcPath, writePath, pendingEdits, renameOverSource, cancel) {
			switch {
			case pm.Err != nil:
				out <- SaveMessage{Err: pm.Err}
				return
			case pm.Progress != nil:
				bytesWritten = pm.Progress.BytesDone
				out <- SaveMessage{Progress: pm.Progress}
			}
		}
		// Progress counts source bytes; adjust by each edit's size change
		// to get the length of the written output.
		for _, e := range pendingEdits {
			bytesWritten += int64(len(e.NewBytes)) - e.OldLen
		}

		if renameOverSource {
			v.mu.Lock()
			err := v.reader.Reopen()
			if err == nil {
				idx, idxErr := BuildLineIndex(v.reader)
				if idxErr == nil {
					v.index = idx
				} else {
					err = idxErr
				}
			}
			v.mu.Unlock()
			if err != nil {
				out <- SaveMessage{Err: err.(*EngineError)}
				return
			}
		}

		out <- SaveMessage{Done: &SaveSummary{BytesWritten: bytesWritten, EditsApplied: len(pendingEdits)}}
	}()

	return out
}
