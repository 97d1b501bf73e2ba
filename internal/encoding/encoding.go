// Package encoding converts terminal byte streams between legacy multi-byte
// encodings (GBK, GB18030, Big5, EUC-KR, Shift-JIS) and the UTF-8 used by the
// rest of panemux. Control and escape sequences are ASCII-framed no matter
// which encoding is active, so OutputDecoder and InputEncoder pass them through
// byte-for-byte and only convert the text runs between them, tolerating
// multi-byte units split across arbitrary chunk boundaries.
package encoding

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// Encoding identifies a supported pane encoding. Utf8 is the identity
// encoding and the zero value: decode and encode are pass-throughs.
type Encoding int

const (
	Utf8 Encoding = iota
	Gbk
	Gb18030
	Big5
	ShiftJis
	EucKr
)

// MaxTrailingEncodedBytes bounds how many undecodable trailing bytes a decoder
// will carry across calls before force-decoding them lossily. GB18030 has the
// longest code unit of the supported encodings at 4 bytes; widen this if an
// encoding with longer units is ever added.
const MaxTrailingEncodedBytes = 4

// CanonicalOrder is the menu order used when no explicit selection has been
// recorded: UTF-8, GBK, GB18030, Big5, EUC-KR, Shift-JIS.
var CanonicalOrder = [6]Encoding{Utf8, Gbk, Gb18030, Big5, EucKr, ShiftJis}

// codec returns the x/text conversion tables for a legacy encoding, or nil
// for the identity (UTF-8) encoding.
func codec(enc Encoding) xencoding.Encoding {
	switch enc {
	case Gbk:
		return simplifiedchinese.GBK
	case Gb18030:
		return simplifiedchinese.GB18030
	case Big5:
		return traditionalchinese.Big5
	case ShiftJis:
		return japanese.ShiftJIS
	case EucKr:
		return korean.EUCKR
	default:
		return nil
	}
}

// String returns the display label for the encoding.
func (e Encoding) String() string {
	switch e {
	case Utf8:
		return "UTF-8"
	case Gbk:
		return "GBK"
	case Gb18030:
		return "GB18030"
	case Big5:
		return "Big5"
	case ShiftJis:
		return "Shift-JIS"
	case EucKr:
		return "EUC-KR"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Parse resolves a configuration name ("utf-8", "gbk", "shift-jis", ...) to
// an Encoding. Matching is case-insensitive and ignores hyphens.
func Parse(name string) (Encoding, error) {
	key := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	switch key {
	case "", "utf8":
		return Utf8, nil
	case "gbk":
		return Gbk, nil
	case "gb18030":
		return Gb18030, nil
	case "big5":
		return Big5, nil
	case "shiftjis", "sjis":
		return ShiftJis, nil
	case "euckr":
		return EucKr, nil
	}
	return Utf8, fmt.Errorf("unknown encoding %q", name)
}

// fromInt mirrors the wire/storage representation used by the selection
// registry. Unknown values map to Utf8.
func fromInt(v int32) Encoding {
	e := Encoding(v)
	switch e {
	case Gbk, Gb18030, Big5, ShiftJis, EucKr:
		return e
	}
	return Utf8
}

// DecodeToString converts a raw byte buffer to a string for display in logs
// and pane titles. Valid UTF-8 is returned as-is; anything else is decoded
// through the encoding's tables in one lossy pass.
func DecodeToString(enc Encoding, raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	c := codec(enc)
	if c == nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	decoded, _, err := transform.Bytes(c.NewDecoder(), raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	return string(decoded)
}

// transformAll runs src through t, growing the destination as needed.
// It reports the converted bytes, how much of src was consumed, and the
// terminating error (nil, ErrShortSrc for an incomplete trailing unit when
// atEOF is false, or a conversion error).
func transformAll(t transform.Transformer, src []byte, atEOF bool) ([]byte, int, error) {
	dst := make([]byte, len(src)*2+16)
	var nDst, nSrc int
	for {
		nd, ns, err := t.Transform(dst[nDst:], src[nSrc:], atEOF)
		nDst += nd
		nSrc += ns
		if err == transform.ErrShortDst {
			dst = append(dst, make([]byte, len(dst)+16)...)
			continue
		}
		return dst[:nDst], nSrc, err
	}
}
