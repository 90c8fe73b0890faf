package vast

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	// fullSparseThreshold is the file size below which a Full index is
	// built instead of a Sparse one.
	fullSparseThreshold = 10 * 1024 * 1024

	// sparseCheckpointStride is the byte distance between checkpoints in
	// a Sparse index.
	sparseCheckpointStride = 10 * 1024 * 1024

	// lineDensitySample is how many leading bytes are sampled to estimate
	// total line count in Sparse mode.
	lineDensitySample = 1 * 1024 * 1024
)

// checkpoint is an (approximate_line_number, byte_offset) pair recorded at
// regular byte strides in a Sparse index.
type checkpoint struct {
	line   int64
	offset int64
}

// LineIndex maps line numbers to byte offsets and back, using a Full index
// (exact, one entry per line) below fullSparseThreshold and a Sparse index
// (checkpoints plus forward scan) above it.
type LineIndex struct {
	sparse bool
	enc    Encoding
	fileLen int64

	// Full mode
	offsets []int64

	// Sparse mode
	checkpoints    []checkpoint
	estimatedTotal int64

	reader *Reader
}

// BuildLineIndex scans reader once to produce a Full or Sparse index per
// the size rule in §3.
func BuildLineIndex(reader *Reader) (*LineIndex, error) {
	n := reader.Len()
	enc := reader.EncodingOf()

	idx := &LineIndex{enc: enc, fileLen: n, reader: reader}

	if n < fullSparseThreshold {
		offsets, err := buildFullIndex(reader, enc)
		if err != nil {
			return nil, err
		}
		idx.offsets = offsets
		return idx, nil
	}

	idx.sparse = true
	checkpoints, estimated, err := buildSparseIndex(reader, enc)
	if err != nil {
		return nil, err
	}
	idx.checkpoints = checkpoints
	idx.estimatedTotal = estimated
	return idx, nil
}

// buildFullIndex scans the whole mapping in parallel, unit-aligned chunks
// and concatenates each chunk's discovered line-start offsets in order.
func buildFullIndex(reader *Reader, enc Encoding) ([]int64, error) {
	n := reader.Len()

	offsets := []int64{0}
	if n == 0 {
		return offsets, nil
	}

	t := runtime.GOMAXPROCS(0)
	if t < 1 {
		t = 1
	}
	chunkSize := ceilDiv(n, int64(t))
	chunkSize = alignUp(chunkSize, int64(enc.UnitSize))
	if chunkSize == 0 {
		chunkSize = int64(enc.UnitSize)
	}

	numChunks := int(ceilDiv(n, chunkSize))
	results := make([][]int64, numChunks)

	g := new(errgroup.Group)
	for i := 0; i < numChunks; i++ {
		i := i
		start := int64(i) * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		g.Go(func() error {
			data := reader.Bytes(start, end)
			var local []int64
			width := enc.linefeedWidth()
			for j := 0; j+width <= len(data); j += enc.UnitSize {
				if enc.isLinefeedAt(data, j) {
					local = append(local, start+int64(j)+int64(width))
				}
			}
			results[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, newErr(KindIoError, "index scan failed", err)
	}

	for _, local := range results {
		offsets = append(offsets, local...)
	}
	return offsets, nil
}

// buildSparseIndex samples the first lineDensitySample bytes to estimate
// total line count, then walks the file once recording a checkpoint every
// sparseCheckpointStride bytes at the position immediately following the
// most recent linefeed at or before that boundary.
func buildSparseIndex(reader *Reader, enc Encoding) ([]checkpoint, int64, error) {
	n := reader.Len()

	sampleLen := lineDensitySample
	if int64(sampleLen) > n {
		sampleLen = int(n)
	}
	sample := reader.Bytes(0, int64(sampleLen))
	linefeeds := int64(0)
	width := enc.linefeedWidth()
	for j := 0; j+width <= len(sample); j += enc.UnitSize {
		if enc.isLinefeedAt(sample, j) {
			linefeeds++
		}
	}

	var density float64
	if sampleLen > 0 {
		density = float64(linefeeds) / float64(sampleLen)
	}
	estimatedTotal := int64(density*float64(n)) + 1

	checkpoints := []checkpoint{{line: 0, offset: 0}}
	if n == 0 {
		return checkpoints, 1, nil
	}

	var (
		lineCount      int64
		pos            int64
		lastLineStart  int64
		nextBoundary   = int64(sparseCheckpointStride)
	)

	const walkBuf = 1 << 20
	for pos < n {
		end := pos + walkBuf
		if end > n {
			end = n
		}
		data := reader.Bytes(pos, end)
		for j := 0; j+width <= len(data); j += enc.UnitSize {
			if enc.isLinefeedAt(data, j) {
				lineCount++
				lastLineStart = pos + int64(j) + int64(width)
			}
			abs := pos + int64(j) + int64(enc.UnitSize)
			for abs >= nextBoundary && nextBoundary <= n {
				checkpoints = append(checkpoints, checkpoint{line: lineCount, offset: lastLineStart})
				nextBoundary += sparseCheckpointStride
			}
		}
		pos = end
	}

	return checkpoints, estimatedTotal, nil
}

// TotalLines returns the number of lines: exact for a Full index, estimated
// for a Sparse one. Callers should consult IsEstimated to know which.
func (idx *LineIndex) TotalLines() int64 {
	if idx.sparse {
		return idx.estimatedTotal
	}
	return int64(len(idx.offsets))
}

// IsEstimated reports whether TotalLines() is an estimate rather than exact.
func (idx *LineIndex) IsEstimated() bool {
	return idx.sparse
}

// OffsetOf returns the byte offset of the start of line (0-based).
func (idx *LineIndex) OffsetOf(line int64) (int64, error) {
	if line < 0 {
		return 0, newErr(KindOutOfRange, "negative line number", nil)
	}
	if !idx.sparse {
		if line >= int64(len(idx.offsets)) {
			return 0, newErr(KindOutOfRange, "line beyond end of file", nil)
		}
		return idx.offsets[line], nil
	}
	return idx.sparseOffsetOf(line)
}

func (idx *LineIndex) sparseOffsetOf(line int64) (int64, error) {
	if line > idx.estimatedTotal {
		return 0, newErr(KindOutOfRange, "line beyond estimated end of file", nil)
	}

	cp := idx.nearestCheckpoint(line)
	pos := cp.offset
	lineCount := cp.line

	width := idx.enc.linefeedWidth()
	const scanBuf = 1 << 20
	for pos < idx.fileLen && lineCount < line {
		end := pos + scanBuf
		if end > idx.fileLen {
			end = idx.fileLen
		}
		data := idx.reader.Bytes(pos, end)
		for j := 0; j+width <= len(data); j += idx.enc.UnitSize {
			if idx.enc.isLinefeedAt(data, j) {
				lineCount++
				if lineCount == line {
					return pos + int64(j) + int64(width), nil
				}
			}
		}
		pos = end
	}

	if lineCount == line {
		return pos, nil
	}
	return 0, newErr(KindOutOfRange, "line beyond end of file", nil)
}

// nearestCheckpoint returns the checkpoint with the greatest line number
// that does not exceed the target line.
func (idx *LineIndex) nearestCheckpoint(line int64) checkpoint {
	i := sort.Search(len(idx.checkpoints), func(i int) bool {
		return idx.checkpoints[i].line > line
	})
	if i == 0 {
		return idx.checkpoints[0]
	}
	return idx.checkpoints[i-1]
}

// nearestCheckpointByOffset returns the checkpoint with the greatest offset
// that does not exceed the target byte offset.
func (idx *LineIndex) nearestCheckpointByOffset(offset int64) checkpoint {
	i := sort.Search(len(idx.checkpoints), func(i int) bool {
		return idx.checkpoints[i].offset > offset
	})
	if i == 0 {
		return idx.checkpoints[0]
	}
	return idx.checkpoints[i-1]
}

// LineOf returns the line number containing the given byte offset.
func (idx *LineIndex) LineOf(offset int64) (int64, error) {
	if offset < 0 || offset > idx.fileLen {
		return 0, newErr(KindOutOfRange, "offset out of bounds", nil)
	}
	if !idx.sparse {
		return int64(sort.Search(len(idx.offsets), func(i int) bool {
			return idx.offsets[i] > offset
		}) - 1), nil
	}
	return idx.sparseLineOf(offset)
}

func (idx *LineIndex) sparseLineOf(offset int64) (int64, error) {
	cp := idx.nearestCheckpointByOffset(offset)
	pos := cp.offset
	lineCount := cp.line

	width := idx.enc.linefeedWidth()
	const scanBuf = 1 << 20
	for pos < offset {
		end := pos + scanBuf
		if end > offset {
			end = offset
		}
		data := idx.reader.Bytes(pos, end)
		for j := 0; j+width <= len(data); j += idx.enc.UnitSize {
			if idx.enc.isLinefeedAt(data, j) {
				lineCount++
			}
		}
		pos = end
	}
	return lineCount, nil
}

// LineSpan returns the (offset, length) of line, excluding the trailing
// linefeed from the length.
func (idx *LineIndex) LineSpan(line int64) (int64, int64, error) {
	start, err := idx.OffsetOf(line)
	if err != nil {
		return 0, 0, err
	}
	end, terminated := idx.findLineEnd(start)
	length := end - start
	width := idx.enc.linefeedWidth()
	if terminated {
		length -= int64(width)
	}
	if length < 0 {
		length = 0
	}
	return start, length, nil
}

// findLineEnd returns the byte offset one past the next linefeed at or
// after start, and whether a linefeed was actually found. If none is
// found before fileLen, it returns (fileLen, false) — the final,
// unterminated line.
func (idx *LineIndex) findLineEnd(start int64) (int64, bool) {
	width := idx.enc.linefeedWidth()
	pos := start
	const scanBuf = 1 << 20
	for pos < idx.fileLen {
		end := pos + scanBuf
		if end > idx.fileLen {
			end = idx.fileLen
		}
		data := idx.reader.Bytes(pos, end)
		for j := 0; j+width <= len(data); j += idx.enc.UnitSize {
			if idx.enc.isLinefeedAt(data, j) {
				return pos + int64(j) + int64(width), true
			}
		}
		pos = end
	}
	return idx.fileLen, false
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return a
	}
	return (a + b - 1) / b
}

func alignUp(v, unit int64) int64 {
	if unit <= 1 {
		return v
	}
	return ((v + unit - 1) / unit) * unit
}
