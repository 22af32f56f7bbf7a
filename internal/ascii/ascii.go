// Package ascii translates line endings for ASCII-mode (TYPE A) transfers.
//
// On the wire every line ends in CRLF. Uploads pass through an Encoder that
// turns bare LF into CRLF; downloads pass through a Decoder that turns CRLF
// back into LF. Lone CR bytes are preserved in both directions.
package ascii

import (
	"io"
)

// Encoder converts LF to CRLF while reading from the local file.
type Encoder struct {
	r      io.Reader
	in     []byte
	out    []byte
	head   int
	prevCR bool
	err    error
}

// NewEncoder returns a reader that yields r's contents with network line
// endings.
func NewEncoder(r io.Reader) *Encoder {
	return &Encoder{
		r:  r,
		in: make([]byte, 16*1024),
	}
}

// Read implements io.Reader.
func (e *Encoder) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for e.head == len(e.out) {
		if e.err != nil {
			return 0, e.err
		}
		e.out, e.head = e.out[:0], 0

		n, err := e.r.Read(e.in)
		e.err = err
		for _, b := range e.in[:n] {
			if b == '\n' && !e.prevCR {
				e.out = append(e.out, '\r')
			}
			e.out = append(e.out, b)
			e.prevCR = b == '\r'
		}
	}

	n := copy(p, e.out[e.head:])
	e.head += n
	return n, nil
}

// Decoder converts CRLF to LF while writing to the local file. A CR at the
// end of one Write is held until the next Write or Flush decides its fate.
type Decoder struct {
	w         io.Writer
	buf       []byte
	pendingCR bool
}

// NewDecoder returns a writer that stores network text into w with local
// line endings. Callers must Flush once the transfer ends.
func NewDecoder(w io.Writer) *Decoder {
	return &Decoder{w: w}
}

// Write implements io.Writer. It reports len(p) on success even though fewer
// bytes may reach the underlying writer.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf = d.buf[:0]
	for _, b := range p {
		if d.pendingCR {
			d.pendingCR = false
			if b != '\n' {
				d.buf = append(d.buf, '\r')
			}
		}
		if b == '\r' {
			d.pendingCR = true
			continue
		}
		d.buf = append(d.buf, b)
	}
	if len(d.buf) > 0 {
		if _, err := d.w.Write(d.buf); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush writes a trailing CR held back by the last Write.
func (d *Decoder) Flush() error {
	if !d.pendingCR {
		return nil
	}
	d.pendingCR = false
	_, err := d.w.Write([]byte{'\r'})
	return err
}
