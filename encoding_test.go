package vast

import "testing"

func TestDetectEncodingUTF8BOM(t *testing.T) {
	enc := DetectEncoding([]byte{0xEF, 0xBB, 0xBF, 'h'})
	if enc.Tag != UTF8 {
		t.Errorf("expected UTF8, got %v", enc.Tag)
	}
}

func TestDetectEncodingUTF16LE(t *testing.T) {
	enc := DetectEncoding([]byte{0xFF, 0xFE, 'h', 0})
	if enc.Tag != UTF16LE {
		t.Errorf("expected UTF16LE, got %v", enc.Tag)
	}
}

func TestDetectEncodingUTF16BE(t *testing.T) {
	enc := DetectEncoding([]byte{0xFE, 0xFF, 0, 'h'})
	if enc.Tag != UTF16BE {
		t.Errorf("expected UTF16BE, got %v", enc.Tag)
	}
}

func TestDetectEncodingDefaultsToUTF8(t *testing.T) {
	enc := DetectEncoding([]byte{'h', 'i'})
	if enc.Tag != UTF8 {
		t.Errorf("expected UTF8 default, got %v", enc.Tag)
	}
}

func TestDecodeUTF8RoundTrip(t *testing.T) {
	enc, err := EncodingByTag(UTF8)
	if err != nil {
		t.Fatalf("EncodingByTag failed: %v", err)
	}
	got := enc.Decode([]byte("hello, world"))
	if got != "hello, world" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeUTF16LE(t *testing.T) {
	enc, err := EncodingByTag(UTF16LE)
	if err != nil {
		t.Fatalf("EncodingByTag failed: %v", err)
	}
	// "hi" in UTF-16LE.
	got := enc.Decode([]byte{'h', 0, 'i', 0})
	if got != "hi" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeTrimsOddTrailingByte(t *testing.T) {
	enc, err := EncodingByTag(UTF16LE)
	if err != nil {
		t.Fatalf("EncodingByTag failed: %v", err)
	}
	got := enc.Decode([]byte{'h', 0, 'i', 0, 0x41})
	if got != "hi" {
		t.Errorf("got %q, want trailing odd byte dropped", got)
	}
}

func TestEncodingByTagUnknown(t *testing.T) {
	_, err := EncodingByTag(EncodingTag(99))
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestIsLinefeedAtUTF16(t *testing.T) {
	enc, _ := EncodingByTag(UTF16LE)
	data := []byte{'a', 0, 0x0A, 0, 'b', 0}
	if !enc.isLinefeedAt(data, 2) {
		t.Error("expected linefeed at offset 2")
	}
	if enc.isLinefeedAt(data, 0) {
		t.Error("did not expect linefeed at offset 0")
	}
}
