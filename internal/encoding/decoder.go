package encoding

import (
	"bytes"

	xencoding "golang.org/x/text/encoding"
)

var replacementBytes = []byte("�")

// OutputDecoder converts bytes read from a pane's process into UTF-8 for
// display. One instance serves one pane and must not be called concurrently.
// Escape sequences pass through untouched; text runs are decoded, with
// trailing partial multi-byte units carried over to the next call. Decode
// never fails: input that stays undecodable past the trailing window is
// converted lossily so the display cannot stall.
type OutputDecoder struct {
	encoding       Encoding
	state          scanState
	escapeBytes    []byte
	pending        []byte
	dec            *xencoding.Decoder
	trailingWindow int
}

// NewOutputDecoder returns a decoder with the default trailing-byte window.
func NewOutputDecoder() *OutputDecoder {
	return &OutputDecoder{trailingWindow: MaxTrailingEncodedBytes}
}

func (d *OutputDecoder) reset(enc Encoding) {
	d.encoding = enc
	d.state = stateGround
	d.escapeBytes = d.escapeBytes[:0]
	d.pending = nil
	d.dec = nil
	if c := codec(enc); c != nil {
		d.dec = c.NewDecoder()
	}
}

// Decode converts one chunk of raw pane output to UTF-8. Switching enc from
// the previous call resets all scan and carry-over state first; carrying
// state across an encoding change would silently corrupt data.
func (d *OutputDecoder) Decode(enc Encoding, data []byte) []byte {
	if d.encoding != enc {
		d.reset(enc)
	}
	if enc == Utf8 {
		return data
	}

	output := make([]byte, 0, len(data))
	textStart := 0

	for i, b := range data {
		if d.state == stateGround && (b == esc || b == csi) {
			if i > textStart {
				output = d.decodeText(data[textStart:i], output)
			}
			beginEscape(&d.state, &d.escapeBytes, b)
			textStart = i + 1
			continue
		}

		if d.state != stateGround {
			d.escapeBytes = append(d.escapeBytes, b)
			d.state = advanceEscape(d.state, b)
			if d.state == stateGround {
				// Sequence terminated: flush it verbatim as one unit.
				output = append(output, d.escapeBytes...)
				d.escapeBytes = d.escapeBytes[:0]
				textStart = i + 1
			}
		}
	}

	if d.state == stateGround && textStart < len(data) {
		output = d.decodeText(data[textStart:], output)
	}
	return output
}

// decodeText converts a text run, prepending any carry-over from the last
// call. It decodes the longest prefix that forms complete units, searching
// truncation lengths within the trailing window, and carries the rest.
func (d *OutputDecoder) decodeText(input []byte, output []byte) []byte {
	pending := append(d.pending, input...)
	d.pending = nil

	window := d.trailingWindow
	if window <= 0 {
		window = MaxTrailingEncodedBytes
	}
	minPrefix := len(pending) - window
	if minPrefix < 1 {
		minPrefix = 1
	}

	for split := len(pending); split >= minPrefix; split-- {
		decoded, ok := d.decodeStrict(pending[:split])
		if !ok {
			continue
		}
		output = append(output, decoded...)
		if split < len(pending) {
			d.pending = append(d.pending, pending[split:]...)
		}
		return output
	}

	if len(pending) <= window {
		// Could still be a truncated unit; wait for more bytes.
		d.pending = append(d.pending, pending...)
		return output
	}

	// Malformed beyond any possible truncation: decode lossily now.
	d.dec.Reset()
	decoded, _, _ := transformAll(d.dec, pending, true)
	return append(output, decoded...)
}

// decodeStrict converts buf and reports whether the whole buffer forms
// complete, valid units of the active encoding. x/text decoders substitute
// U+FFFD instead of returning an error, so its presence marks a dirty decode.
func (d *OutputDecoder) decodeStrict(buf []byte) ([]byte, bool) {
	d.dec.Reset()
	decoded, nSrc, err := transformAll(d.dec, buf, true)
	if err != nil || nSrc != len(buf) {
		return nil, false
	}
	if bytes.Contains(decoded, replacementBytes) {
		return nil, false
	}
	return decoded, true
}
