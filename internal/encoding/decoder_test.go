package encoding

import (
	"bytes"
	"testing"
)

func TestDecodeUtf8Passthrough(t *testing.T) {
	d := NewOutputDecoder()
	data := []byte("hello \x1b[31mworld\x1b[0m 世界")
	if got := d.Decode(Utf8, data); !bytes.Equal(got, data) {
		t.Fatalf("UTF-8 decode changed data: got %q want %q", got, data)
	}
}

func TestDecodeGbkText(t *testing.T) {
	d := NewOutputDecoder()
	got := d.Decode(Gbk, []byte{0xc4, 0xe3, 0xba, 0xc3})
	if want := []byte("你好"); !bytes.Equal(got, want) {
		t.Fatalf("GBK decode: got %q want %q", got, want)
	}
}

func TestDecodeSplitMultibyte(t *testing.T) {
	d := NewOutputDecoder()
	if got := d.Decode(Gbk, []byte{0xc4}); len(got) != 0 {
		t.Fatalf("partial lead byte should be buffered, got %q", got)
	}
	if got, want := d.Decode(Gbk, []byte{0xe3}), []byte("你"); !bytes.Equal(got, want) {
		t.Fatalf("completing byte: got %q want %q", got, want)
	}
}

func TestDecodePreservesEscapeSequences(t *testing.T) {
	sequences := [][]byte{
		[]byte("\x1b[31m"),
		[]byte("\x1b]0;title\x07"),
		[]byte("\x1b]0;title\x1b\\"),
		[]byte("\x1bPpayload\x1b\\"),
		{0x9b, '3', '1', 'm'},
		[]byte("\x1bM"),
	}
	encodings := []Encoding{Gbk, Gb18030, Big5, EucKr, ShiftJis}
	for _, enc := range encodings {
		for _, seq := range sequences {
			d := NewOutputDecoder()
			if got := d.Decode(enc, seq); !bytes.Equal(got, seq) {
				t.Errorf("%s: sequence %q modified: got %q", enc, seq, got)
			}
		}
	}
}

func TestDecodeMixedTextAndEscape(t *testing.T) {
	d := NewOutputDecoder()

	data := []byte{0xc4, 0xe3}
	data = append(data, []byte("\x1b[0m")...)
	data = append(data, 0xba, 0xc3)

	want := []byte("你")
	want = append(want, []byte("\x1b[0m")...)
	want = append(want, []byte("好")...)

	if got := d.Decode(Gbk, data); !bytes.Equal(got, want) {
		t.Fatalf("mixed stream: got %q want %q", got, want)
	}
}

func TestDecodeMixedAllEncodings(t *testing.T) {
	tests := []struct {
		enc   Encoding
		first []byte
		next  []byte
		want  string
	}{
		{Gbk, []byte{0xc4, 0xe3}, []byte{0xba, 0xc3}, "你\x1b[0m好"},
		{Gb18030, []byte{0xc4, 0xe3}, []byte{0xba, 0xc3}, "你\x1b[0m好"},
		{Big5, []byte{0xa7, 0x41}, []byte{0xa6, 0x6e}, "你\x1b[0m好"},
		{EucKr, []byte{0xbe, 0xc8}, []byte{0xb3, 0xe7}, "안\x1b[0m녕"},
		{ShiftJis, []byte{0x82, 0xb1}, []byte{0x82, 0xf1}, "こ\x1b[0mん"},
	}
	for _, tt := range tests {
		d := NewOutputDecoder()
		data := append([]byte{}, tt.first...)
		data = append(data, []byte("\x1b[0m")...)
		data = append(data, tt.next...)
		if got := d.Decode(tt.enc, data); string(got) != tt.want {
			t.Errorf("%s: got %q want %q", tt.enc, got, tt.want)
		}
	}
}

func TestDecodeGb18030FourByteUnit(t *testing.T) {
	want := []byte("\U00020000")
	unit := []byte{0x95, 0x32, 0x82, 0x36}

	d := NewOutputDecoder()
	if got := d.Decode(Gb18030, unit); !bytes.Equal(got, want) {
		t.Fatalf("whole unit: got %q want %q", got, want)
	}

	d = NewOutputDecoder()
	for _, b := range unit[:3] {
		if got := d.Decode(Gb18030, []byte{b}); len(got) != 0 {
			t.Fatalf("byte %#x should be buffered, got %q", b, got)
		}
	}
	if got := d.Decode(Gb18030, unit[3:]); !bytes.Equal(got, want) {
		t.Fatalf("final byte: got %q want %q", got, want)
	}
}

// Feeding chunks through a stateful decoder must produce the same bytes as
// one call with the whole input, no matter where the split falls.
func TestDecodeChunkBoundaryIndependence(t *testing.T) {
	input := []byte{0xc4, 0xe3}
	input = append(input, []byte("\x1b]0;标题\x07plain")...)
	input = append(input, 0xba, 0xc3)
	input = append(input, []byte("\x1b[1;32m")...)
	input = append(input, 0xc4, 0xe3)

	whole := NewOutputDecoder().Decode(Gbk, input)

	for split := 1; split < len(input); split++ {
		d := NewOutputDecoder()
		var got []byte
		got = append(got, d.Decode(Gbk, input[:split])...)
		got = append(got, d.Decode(Gbk, input[split:])...)
		if !bytes.Equal(got, whole) {
			t.Fatalf("split at %d: got %q want %q", split, got, whole)
		}
	}

	// Byte-at-a-time delivery.
	d := NewOutputDecoder()
	var got []byte
	for _, b := range input {
		got = append(got, d.Decode(Gbk, []byte{b})...)
	}
	if !bytes.Equal(got, whole) {
		t.Fatalf("byte-at-a-time: got %q want %q", got, whole)
	}
}

func TestDecodeEncodingSwitchResetsState(t *testing.T) {
	d := NewOutputDecoder()
	if got := d.Decode(Gbk, []byte{0xc4}); len(got) != 0 {
		t.Fatalf("GBK lead byte should be buffered, got %q", got)
	}
	// The buffered GBK byte must not leak into the Shift-JIS stream.
	if got, want := d.Decode(ShiftJis, []byte{0x82, 0xb1}), []byte("こ"); !bytes.Equal(got, want) {
		t.Fatalf("after switch: got %q want %q", got, want)
	}
}

func TestDecodeMalformedInputStaysLive(t *testing.T) {
	d := NewOutputDecoder()
	// 0xff is not a valid GBK lead byte; five of them exceed the trailing
	// window and must be force-decoded rather than buffered forever.
	got := d.Decode(Gbk, []byte{0xff, 0xff, 0xff, 0xff, 0xff})
	if len(got) == 0 {
		t.Fatal("malformed run past the trailing window produced no output")
	}
	if !bytes.Contains(got, replacementBytes) {
		t.Fatalf("expected replacement characters, got %q", got)
	}
	// The decoder must be clean again afterwards.
	if got, want := d.Decode(Gbk, []byte{0xc4, 0xe3}), []byte("你"); !bytes.Equal(got, want) {
		t.Fatalf("after lossy flush: got %q want %q", got, want)
	}
}

func TestDecodeUnterminatedSequenceStaysBuffered(t *testing.T) {
	d := NewOutputDecoder()
	if got := d.Decode(Gbk, []byte("\x1b[31")); len(got) != 0 {
		t.Fatalf("unterminated CSI should stay buffered, got %q", got)
	}
	if got, want := d.Decode(Gbk, []byte("m")), []byte("\x1b[31m"); !bytes.Equal(got, want) {
		t.Fatalf("terminator arrival: got %q want %q", got, want)
	}
}

func TestDecodeAsciiPassthroughAllEncodings(t *testing.T) {
	ascii := []byte("Hello, World! 123")
	for _, enc := range []Encoding{Utf8, Gbk, Gb18030, Big5, EucKr, ShiftJis} {
		d := NewOutputDecoder()
		if got := d.Decode(enc, ascii); !bytes.Equal(got, ascii) {
			t.Errorf("%s: ASCII changed: got %q", enc, got)
		}
	}
}
