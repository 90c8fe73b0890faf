package vast

import (
	"os"
	"testing"
)

func TestReplaceInPlaceRequiresEqualLength(t *testing.T) {
	path := writeTempFile(t, "a.txt", []byte("hello"))
	var r Replacer
	err := r.ReplaceInPlace(path, 0, 5, []byte("hi"))
	if err == nil {
		t.Fatal("expected LengthMismatch error")
	}
}

func TestReplaceInPlaceOverwritesRange(t *testing.T) {
	path := writeTempFile(t, "a.txt", []byte("hello world"))
	var r Replacer
	if err := r.ReplaceInPlace(path, 6, 5, []byte("earth")); err != nil {
		t.Fatalf("ReplaceInPlace failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "hello earth" {
		t.Errorf("got %q", got)
	}
}

func TestReplaceCopyOnWriteAppliesEditsAndPreservesUnedited(t *testing.T) {
	original := make([]byte, 1000)
	for i := range original {
		original[i] = byte('a' + i%26)
	}
	src := writeTempFile(t, "src.txt", original)
	dst := src + ".out"

	edits := []Edit{
		{Offset: 100, OldLen: 3, NewBytes: []byte("XXXX")},
		{Offset: 200, OldLen: 2, NewBytes: []byte("Y")},
	}

	var r Replacer
	var done bool
	for msg := range r.ReplaceCopyOnWrite(src, dst, edits, false, NewCancelToken()) {
		if msg.Err != nil {
			t.Fatalf("replace failed: %v", msg.Err)
		}
		if msg.Done {
			done = true
		}
	}
	if !done {
		t.Fatal("expected a terminal Done message")
	}

	out, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	wantLen := len(original) + (4 - 3) + (1 - 2)
	if len(out) != wantLen {
		t.Fatalf("expected length %d, got %d", wantLen, len(out))
	}

	if string(out[:100]) != string(original[:100]) {
		t.Error("bytes before first edit changed")
	}
	if string(out[100:104]) != "XXXX" {
		t.Errorf("first edit not applied, got %q", out[100:104])
	}
	if string(out[104:201]) != string(original[103:200]) {
		t.Error("bytes between edits changed")
	}
	if string(out[201:202]) != "Y" {
		t.Errorf("second edit not applied, got %q", out[201:202])
	}
	if string(out[202:]) != string(original[202:]) {
		t.Error("bytes after last edit changed")
	}
}

func TestReplaceCopyOnWriteRenamesOverSource(t *testing.T) {
	src := writeTempFile(t, "src.txt", []byte("hello world"))
	tmp := src + ".tmp"

	var r Replacer
	for msg := range r.ReplaceCopyOnWrite(src, tmp, []Edit{{Offset: 6, OldLen: 5, NewBytes: []byte("earth")}}, true, NewCancelToken()) {
		if msg.Err != nil {
			t.Fatalf("replace failed: %v", msg.Err)
		}
	}

	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("expected scratch file to be renamed away")
	}
	got, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "hello earth" {
		t.Errorf("got %q", got)
	}
}

func TestReplaceCopyOnWriteRejectsOverlap(t *testing.T) {
	src := writeTempFile(t, "src.txt", []byte("0123456789"))
	dst := src + ".out"

	edits := []Edit{
		{Offset: 2, OldLen: 5, NewBytes: []byte("AAAAA")},
		{Offset: 4, OldLen: 2, NewBytes: []byte("BB")},
	}

	var r Replacer
	var sawErr bool
	for msg := range r.ReplaceCopyOnWrite(src, dst, edits, false, NewCancelToken()) {
		if msg.Err != nil {
			sawErr = true
		}
	}
	if !sawErr {
		t.Fatal("expected an overlap error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination should not exist after a failed replace")
	}
}

func TestReplaceAllRewritesEveryMatch(t *testing.T) {
	src := writeTempFile(t, "src.txt", []byte("cat sat cat mat cat"))
	dst := src + ".out"

	var r Replacer
	var done bool
	for msg := range r.ReplaceAll(src, dst, SearchQuery{Pattern: "cat", CaseSensitive: true}, "dog", NewCancelToken()) {
		if msg.Err != nil {
			t.Fatalf("ReplaceAll failed: %v", msg.Err)
		}
		if msg.Done {
			done = true
		}
	}
	if !done {
		t.Fatal("expected terminal Done")
	}

	out, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(out) != "dog sat dog mat dog" {
		t.Errorf("got %q", out)
	}
}
