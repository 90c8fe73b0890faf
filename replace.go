package vast

import (
	"bufio"
	"io"
	"os"
	"sort"
)

// replaceBufferSize is the buffer size used by the streaming copy-on-write
// rewrite, per the streaming algorithm's fixed 1 MiB buffer.
const replaceBufferSize = 1 << 20

// Edit is a pending replacement: the bytes in [Offset, Offset+OldLen) are
// replaced by NewBytes. A batch of edits passed to ReplaceCopyOnWrite must
// be sorted by Offset and non-overlapping.
type Edit struct {
	Offset   int64
	OldLen   int64
	NewBytes []byte
}

// Progress reports bytes processed during a streaming replace.
type Progress struct {
	BytesDone  int64
	BytesTotal int64
}

// ProgressMessage is one event on a streaming replace's channel: a
// Progress update, a terminal Err, or a final Done.
type ProgressMessage struct {
	Progress *Progress
	Done     bool
	Err      *EngineError
}

// Replacer applies edits either in place (length-preserving) or via an
// atomic copy-on-write rewrite. It holds no state between calls.
type Replacer struct{}

// ReplaceInPlace overwrites [offset, offset+oldLen) in path with newBytes.
// It requires oldLen == len(newBytes); the file's length and everything
// outside that range is untouched, so a crash mid-write can leave a
// partially written range but never changes file length. The caller is
// responsible for reopening any mapping held over path afterward.
func (Replacer) ReplaceInPlace(path string, offset, oldLen int64, newBytes []byte) error {
	if oldLen != int64(len(newBytes)) {
		return newErr(KindLengthMismatch, "old_len must equal len(new_bytes)", ErrLengthMismatch)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return newErr(KindIoError, "open for write failed", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return newErr(KindIoError, "seek failed", err)
	}
	if _, err := f.Write(newBytes); err != nil {
		return newErr(KindIoError, "write failed", err)
	}
	if err := f.Sync(); err != nil {
		return newErr(KindIoError, "sync failed", err)
	}
	return nil
}

// validateEdits checks edits are sorted by Offset and pairwise
// non-overlapping.
func validateEdits(edits []Edit) error {
	for i, e := range edits {
		if e.OldLen < 0 || e.Offset < 0 {
			return newErr(KindOutOfRange, "negative offset or length", nil)
		}
		if i > 0 {
			prev := edits[i-1]
			if e.Offset < prev.Offset+prev.OldLen {
				return newErr(KindOverlapError, "edits overlap or are unsorted", ErrOverlap)
			}
		}
	}
	return nil
}

// ReplaceCopyOnWrite streams srcPath to dstPath, substituting each edit in
// order. If renameOverSource is true, dstPath is atomically renamed over
// srcPath once the stream succeeds (the in-place-editing case, where
// dstPath is a scratch file beside srcPath); if false, dstPath is left in
// place as the final output (the save-as case). It reports cumulative
// bytes processed on the returned channel, terminated by Done or a
// terminal Err; on any failure the source is left untouched — the rename,
// when requested, happens only after the whole stream succeeds.
func (Replacer) ReplaceCopyOnWrite(srcPath, dstPath string, edits []Edit, renameOverSource bool, cancel *CancelToken) <-chan ProgressMessage {
	out := make(chan ProgressMessage, 4)

	go func() {
		defer close(out)

		sorted := append([]Edit(nil), edits...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
		if err := validateEdits(sorted); err != nil {
			out <- ProgressMessage{Err: err.(*EngineError)}
			return
		}

		src, err := os.Open(srcPath)
		if err != nil {
			out <- ProgressMessage{Err: newErr(KindIoError, "open source failed", err)}
			return
		}
		defer src.Close()

		info, err := src.Stat()
		if err != nil {
			out <- ProgressMessage{Err: newErr(KindIoError, "stat source failed", err)}
			return
		}
		srcLen := info.Size()

		dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
		if err != nil {
			out <- ProgressMessage{Err: newErr(KindIoError, "open destination failed", err)}
			return
		}

		w := bufio.NewWriterSize(dst, replaceBufferSize)
		var cursor, done int64
		var streamErr error

		for _, e := range sorted {
			if cancel.Cancelled() {
				streamErr = ErrCancelled
				break
			}
			if e.Offset < cursor {
				streamErr = ErrOverlap
				break
			}
			if n, err := io.CopyN(w, src, e.Offset-cursor); err != nil {
				done += n
				streamErr = err
				break
			}
			done += e.Offset - cursor
			out <- ProgressMessage{Progress: &Progress{BytesDone: done, BytesTotal: srcLen}}

			if _, err := w.Write(e.NewBytes); err != nil {
				streamErr = err
				break
			}
			if _, err := src.Seek(e.Offset+e.OldLen, io.SeekStart); err != nil {
				streamErr = err
				break
			}
			cursor = e.Offset + e.OldLen
		}

		if streamErr == nil && !cancel.Cancelled() {
			if _, err := io.CopyN(w, src, srcLen-cursor); err != nil && err != io.EOF {
				streamErr = err
			} else {
				done = srcLen
				out <- ProgressMessage{Progress: &Progress{BytesDone: done, BytesTotal: srcLen}}
			}
		}

		if streamErr == nil && !cancel.Cancelled() {
			streamErr = w.Flush()
		}

		closeErr := dst.Close()
		if streamErr == nil {
			streamErr = closeErr
		}

		if streamErr != nil || cancel.Cancelled() {
			os.Remove(dstPath)
			if cancel.Cancelled() {
				out <- ProgressMessage{Err: newErr(KindCancelled, "", ErrCancelled)}
			} else {
				out <- ProgressMessage{Err: newErr(KindIoError, "copy failed", streamErr)}
			}
			return
		}

		if renameOverSource {
			if err := os.Rename(dstPath, srcPath); err != nil {
				out <- ProgressMessage{Err: newErr(KindIoError, "rename failed", err)}
				return
			}
		}

		out <- ProgressMessage{Done: true}
	}()

	return out
}

// ReplaceAll is a convenience that scans srcPath for query and streams a
// rewrite to dstPath with every match replaced by replacement. It first
// collects every match into an edit list with a FetchMatches pass, holding
// the whole list in memory, and then delegates to ReplaceCopyOnWrite.
func (r Replacer) ReplaceAll(srcPath, dstPath string, query SearchQuery, replacement string, cancel *CancelToken) <-chan ProgressMessage {
	out := make(chan ProgressMessage, 4)

	go func() {
		defer close(out)

		reader, err := Open(srcPath, nil)
		if err != nil {
			out <- ProgressMessage{Err: err.(*EngineError)}
			return
		}
		defer reader.Close()

		var se SearchEngine
		if err := se.SetQuery(query); err != nil {
			out <- ProgressMessage{Err: err.(*EngineError)}
			return
		}

		enc := reader.EncodingOf()
		replBytes, encErr := enc.xte.NewEncoder().Bytes([]byte(replacement))
		if encErr != nil {
			replBytes = []byte(replacement)
		}

		var edits []Edit
		for msg := range se.FetchMatches(reader, 0, -1, cancel) {
			if msg.Err != nil {
				out <- ProgressMessage{Err: msg.Err}
				return
			}
			for _, m := range msg.Chunk.Matches {
				edits = append(edits, Edit{Offset: m.ByteOffset, OldLen: m.ByteLength, NewBytes: replBytes})
			}
		}

		reader.Close()

		writePath := dstPath
		renameOverSource := false
		if dstPath == srcPath {
			writePath = dstPath + ".vast-tmp"
			renameOverSource = true
		}
		for pm := range (Replacer{}).ReplaceCopyOnWrite(srcPath, writePath, edits, renameOverSource, cancel) {
			out <- pm
		}
	}()

	return out
}
