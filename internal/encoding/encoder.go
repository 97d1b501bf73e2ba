package encoding

import (
	"unicode/utf8"

	xencoding "golang.org/x/text/encoding"
)

// InputEncoder converts UTF-8 user input (keystrokes, paste buffers) into a
// pane's legacy encoding. One instance serves one pane and must not be called
// concurrently. Locally generated escape sequences (function keys, bracketed
// paste framing) pass through untouched. A rune split across calls is carried
// over; genuinely invalid UTF-8 becomes a single '?' per offending unit.
type InputEncoder struct {
	encoding    Encoding
	state       scanState
	escapeBytes []byte
	pending     []byte
	enc         *xencoding.Encoder
}

// NewInputEncoder returns an encoder ready for its first chunk.
func NewInputEncoder() *InputEncoder {
	return &InputEncoder{}
}

func (e *InputEncoder) reset(enc Encoding) {
	e.encoding = enc
	e.state = stateGround
	e.escapeBytes = e.escapeBytes[:0]
	e.pending = nil
	e.enc = nil
	if c := codec(enc); c != nil {
		// Runes outside the target repertoire are substituted rather than
		// surfaced as errors; Encode never fails.
		e.enc = xencoding.ReplaceUnsupported(c.NewEncoder())
	}
}

// Encode converts one chunk of UTF-8 input to the pane encoding. Switching
// enc from the previous call resets all scan and carry-over state first.
func (e *InputEncoder) Encode(enc Encoding, data []byte) []byte {
	if e.encoding != enc {
		e.reset(enc)
	}
	if enc == Utf8 {
		return data
	}

	output := make([]byte, 0, len(data))
	textStart := 0

	for i, b := range data {
		if e.state == stateGround && (b == esc || b == csi) {
			if i > textStart {
				output = e.encodeText(data[textStart:i], output)
			}
			beginEscape(&e.state, &e.escapeBytes, b)
			textStart = i + 1
			continue
		}

		if e.state != stateGround {
			e.escapeBytes = append(e.escapeBytes, b)
			e.state = advanceEscape(e.state, b)
			if e.state == stateGround {
				output = append(output, e.escapeBytes...)
				e.escapeBytes = e.escapeBytes[:0]
				textStart = i + 1
			}
		}
	}

	if e.state == stateGround && textStart < len(data) {
		output = e.encodeText(data[textStart:], output)
	}
	return output
}

// encodeText converts a text run, prepending any carried partial rune.
// An incomplete trailing rune waits for the next chunk; an invalid unit is
// replaced with '?' and scanning resumes after it.
func (e *InputEncoder) encodeText(text []byte, output []byte) []byte {
	pending := append(e.pending, text...)
	e.pending = nil

	start := 0
	for i := 0; i < len(pending); {
		r, size := utf8.DecodeRune(pending[i:])
		if r != utf8.RuneError || size > 1 {
			i += size
			continue
		}

		output = e.convert(pending[start:i], output)
		if !utf8.FullRune(pending[i:]) {
			// The suffix is the start of a longer rune that has not
			// arrived yet.
			e.pending = append(e.pending, pending[i:]...)
			return output
		}
		output = append(output, '?')
		i++
		start = i
	}
	return e.convert(pending[start:], output)
}

func (e *InputEncoder) convert(text []byte, output []byte) []byte {
	if len(text) == 0 {
		return output
	}
	e.enc.Reset()
	encoded, _, _ := transformAll(e.enc, text, true)
	return append(output, encoded...)
}
