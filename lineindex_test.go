package vast

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFullIndexLineSpans(t *testing.T) {
	path := writeTempFile(t, "a.txt", []byte("one\ntwo\nthree\n"))
	r, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	idx, err := BuildLineIndex(r)
	if err != nil {
		t.Fatalf("BuildLineIndex failed: %v", err)
	}
	if idx.IsEstimated() {
		t.Error("small file should use a Full index, not an estimate")
	}
	if idx.TotalLines() != 4 {
		t.Errorf("expected 4 lines (trailing empty line), got %d", idx.TotalLines())
	}

	cases := []struct {
		line       int64
		wantOffset int64
		wantLen    int64
	}{
		{0, 0, 3},
		{1, 4, 3},
		{2, 8, 5},
		{3, 14, 0},
	}
	for _, c := range cases {
		offset, length, err := idx.LineSpan(c.line)
		if err != nil {
			t.Fatalf("LineSpan(%d) failed: %v", c.line, err)
		}
		if offset != c.wantOffset || length != c.wantLen {
			t.Errorf("LineSpan(%d) = (%d, %d), want (%d, %d)", c.line, offset, length, c.wantOffset, c.wantLen)
		}
	}
}

func TestLineOfFindsContainingLine(t *testing.T) {
	path := writeTempFile(t, "a.txt", []byte("one\ntwo\nthree\n"))
	r, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	idx, err := BuildLineIndex(r)
	if err != nil {
		t.Fatalf("BuildLineIndex failed: %v", err)
	}

	line, err := idx.LineOf(9)
	if err != nil {
		t.Fatalf("LineOf failed: %v", err)
	}
	if line != 2 {
		t.Errorf("expected line 2, got %d", line)
	}
}

func TestOffsetOfOutOfRange(t *testing.T) {
	path := writeTempFile(t, "a.txt", []byte("abc\n"))
	r, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	idx, err := BuildLineIndex(r)
	if err != nil {
		t.Fatalf("BuildLineIndex failed: %v", err)
	}

	if _, err := idx.OffsetOf(-1); err == nil {
		t.Error("expected error for negative line")
	}
	if _, err := idx.OffsetOf(1000); err == nil {
		t.Error("expected error for line beyond end of file")
	}
}

func TestSparseIndexAgreesWithFullIndexNearCheckpoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")

	// Build a file just over the Full/Sparse threshold with known, regular
	// line lengths so checkpoint math is easy to verify by hand.
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	lineText := bytes.Repeat([]byte("x"), 99)
	line := append(lineText, '\n')
	lineLen := int64(len(line))
	totalLines := (fullSparseThreshold / len(line)) + 10
	for i := 0; i < totalLines; i++ {
		if _, err := f.Write(line); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	f.Close()

	r, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	idx, err := BuildLineIndex(r)
	if err != nil {
		t.Fatalf("BuildLineIndex failed: %v", err)
	}
	if !idx.IsEstimated() {
		t.Fatal("file above threshold should use a Sparse index")
	}

	// Line 5 starts at byte 5*lineLen exactly, regardless of estimation.
	offset, err := idx.OffsetOf(5)
	if err != nil {
		t.Fatalf("OffsetOf failed: %v", err)
	}
	if want := 5 * lineLen; offset != want {
		t.Errorf("OffsetOf(5) = %d, want %d", offset, want)
	}

	line2, err := idx.LineOf(5 * lineLen)
	if err != nil {
		t.Fatalf("LineOf failed: %v", err)
	}
	if line2 != 5 {
		t.Errorf("LineOf(5*lineLen) = %d, want 5", line2)
	}
}
