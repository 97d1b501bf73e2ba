// Package terminalio puts the pane transcoder inline on pty I/O paths.
// Each pane hangs a DecodingWriter off its pty-to-client pump and an
// EncodingWriter off its client-to-pty pump; both consult a provider for the
// pane's active encoding on every chunk so a mid-stream switch takes effect
// on the next write.
package terminalio

import (
	"io"

	"github.com/panemux/panemux/internal/encoding"
)

// EncodingProvider reports the encoding active for the pane right now.
type EncodingProvider func() encoding.Encoding

// DecodingWriter converts legacy-encoded process output to UTF-8 on its way
// to the client connection.
type DecodingWriter struct {
	w      io.Writer
	dec    *encoding.OutputDecoder
	active EncodingProvider
}

// NewDecodingWriter wraps w, typically the client side of a session.
func NewDecodingWriter(w io.Writer, active EncodingProvider) *DecodingWriter {
	return &DecodingWriter{
		w:      w,
		dec:    encoding.NewOutputDecoder(),
		active: active,
	}
}

// Write implements io.Writer. It always reports the full chunk as consumed;
// bytes held back as a partial unit are emitted on a later write.
func (dw *DecodingWriter) Write(p []byte) (int, error) {
	out := dw.dec.Decode(dw.active(), p)
	if len(out) > 0 {
		if _, err := dw.w.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// EncodingWriter converts UTF-8 user input to the pane's legacy encoding on
// its way to the pty.
type EncodingWriter struct {
	w      io.Writer
	enc    *encoding.InputEncoder
	active EncodingProvider
}

// NewEncodingWriter wraps w, typically the pty master.
func NewEncodingWriter(w io.Writer, active EncodingProvider) *EncodingWriter {
	return &EncodingWriter{
		w:      w,
		enc:    encoding.NewInputEncoder(),
		active: active,
	}
}

// Write implements io.Writer with the same consumed-bytes contract as
// DecodingWriter.
func (ew *EncodingWriter) Write(p []byte) (int, error) {
	out := ew.enc.Encode(ew.active(), p)
	if len(out) > 0 {
		if _, err := ew.w.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
