package encoding

import (
	"bytes"
	"testing"
)

func TestEncodeUtf8Passthrough(t *testing.T) {
	e := NewInputEncoder()
	data := []byte("ls -la\r")
	if got := e.Encode(Utf8, data); !bytes.Equal(got, data) {
		t.Fatalf("UTF-8 encode changed data: got %q want %q", got, data)
	}
}

func TestEncodeGbkText(t *testing.T) {
	e := NewInputEncoder()
	got := e.Encode(Gbk, []byte("你"))
	if want := []byte{0xc4, 0xe3}; !bytes.Equal(got, want) {
		t.Fatalf("GBK encode: got %v want %v", got, want)
	}
}

func TestEncodeSplitRune(t *testing.T) {
	// "你" is 0xe4 0xbd 0xa0 in UTF-8.
	e := NewInputEncoder()
	if got := e.Encode(Gbk, []byte{0xe4}); len(got) != 0 {
		t.Fatalf("partial rune should be buffered, got %v", got)
	}
	if got, want := e.Encode(Gbk, []byte{0xbd, 0xa0}), []byte{0xc4, 0xe3}; !bytes.Equal(got, want) {
		t.Fatalf("completing bytes: got %v want %v", got, want)
	}
}

func TestEncodeSplitRuneAllEncodings(t *testing.T) {
	tests := []struct {
		enc   Encoding
		text  string
		first int // bytes in the first chunk
		want  []byte
	}{
		{Gbk, "你", 1, []byte{0xc4, 0xe3}},
		{Gb18030, "你", 1, []byte{0xc4, 0xe3}},
		{Big5, "你", 1, []byte{0xa7, 0x41}},
		{EucKr, "안", 1, []byte{0xbe, 0xc8}},
		{ShiftJis, "こ", 1, []byte{0x82, 0xb1}},
	}
	for _, tt := range tests {
		e := NewInputEncoder()
		raw := []byte(tt.text)
		if got := e.Encode(tt.enc, raw[:tt.first]); len(got) != 0 {
			t.Errorf("%s: partial rune emitted %v", tt.enc, got)
			continue
		}
		if got := e.Encode(tt.enc, raw[tt.first:]); !bytes.Equal(got, tt.want) {
			t.Errorf("%s: got %v want %v", tt.enc, got, tt.want)
		}
	}
}

func TestEncodePreservesEscapeSequences(t *testing.T) {
	// Bracketed-paste framing and a function key, as the terminal would
	// generate them locally around pasted text.
	e := NewInputEncoder()
	data := []byte("\x1b[200~你\x1b[201~\x1bOP")
	want := []byte("\x1b[200~")
	want = append(want, 0xc4, 0xe3)
	want = append(want, []byte("\x1b[201~\x1bOP")...)
	if got := e.Encode(Gbk, data); !bytes.Equal(got, want) {
		t.Fatalf("escape-wrapped paste: got %q want %q", got, want)
	}
}

func TestEncodeInvalidUtf8EmitsReplacement(t *testing.T) {
	e := NewInputEncoder()
	// 0xe4 followed by a non-continuation byte can never become a rune.
	got := e.Encode(Gbk, []byte{0xe4, 'A', 'B'})
	if want := []byte("?AB"); !bytes.Equal(got, want) {
		t.Fatalf("invalid sequence: got %q want %q", got, want)
	}
}

func TestEncodeLoneInvalidByte(t *testing.T) {
	e := NewInputEncoder()
	// 0xff cannot start any UTF-8 sequence; it must not be buffered.
	if got, want := e.Encode(Gbk, []byte{0xff}), []byte("?"); !bytes.Equal(got, want) {
		t.Fatalf("lone invalid byte: got %q want %q", got, want)
	}
}

func TestEncodeChunkBoundaryIndependence(t *testing.T) {
	input := []byte("cd 文档\x1b[A你好\r")

	whole := NewInputEncoder().Encode(Gbk, input)

	for split := 1; split < len(input); split++ {
		e := NewInputEncoder()
		var got []byte
		got = append(got, e.Encode(Gbk, input[:split])...)
		got = append(got, e.Encode(Gbk, input[split:])...)
		if !bytes.Equal(got, whole) {
			t.Fatalf("split at %d: got %v want %v", split, got, whole)
		}
	}
}

func TestEncodeEncodingSwitchResetsState(t *testing.T) {
	e := NewInputEncoder()
	if got := e.Encode(Gbk, []byte{0xe4}); len(got) != 0 {
		t.Fatalf("partial rune should be buffered, got %v", got)
	}
	// The buffered UTF-8 byte must not merge into the Shift-JIS stream.
	if got, want := e.Encode(ShiftJis, []byte("こ")), []byte{0x82, 0xb1}; !bytes.Equal(got, want) {
		t.Fatalf("after switch: got %v want %v", got, want)
	}
}

func TestRoundTripAllEncodings(t *testing.T) {
	tests := []struct {
		enc  Encoding
		text string
	}{
		{Gbk, "你好"},
		{Gb18030, "你好世界"},
		{Gb18030, "\U00020000"},
		{Big5, "繁體中文"},
		{EucKr, "안녕하세요"},
		{ShiftJis, "こんにちは"},
	}
	for _, tt := range tests {
		e := NewInputEncoder()
		d := NewOutputDecoder()
		encoded := e.Encode(tt.enc, []byte(tt.text))
		decoded := d.Decode(tt.enc, encoded)
		if string(decoded) != tt.text {
			t.Errorf("%s: round trip of %q produced %q", tt.enc, tt.text, decoded)
		}
	}
}

func TestEncodeAsciiPassthroughAllEncodings(t *testing.T) {
	ascii := []byte("Hello, World! 123")
	for _, enc := range []Encoding{Utf8, Gbk, Gb18030, Big5, EucKr, ShiftJis} {
		e := NewInputEncoder()
		if got := e.Encode(enc, ascii); !bytes.Equal(got, ascii) {
			t.Errorf("%s: ASCII changed: got %q", enc, got)
		}
	}
}
