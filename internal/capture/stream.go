package capture

import (
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// Writer appends records to an xz-compressed capture.
type Writer struct {
	hdr Header
	xz  *xz.Writer
	buf []byte
	n   uint64
}

// NewWriter writes the header and returns a record writer. Close must be
// called to flush the stream; it does not close w.
func NewWriter(w io.Writer, hdr Header) (*Writer, error) {
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	zw, err := xz.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("capture: xz writer: %w", err)
	}
	hb := EncodeHeader(hdr)
	if extra := int(hdr.HeaderLen) - len(hb); extra > 0 {
		hb = append(hb, make([]byte, extra)...)
	}
	if _, err := zw.Write(hb); err != nil {
		return nil, err
	}
	return &Writer{hdr: hdr, xz: zw, buf: make([]byte, 0, hdr.RecordLen())}, nil
}

func (w *Writer) Header() Header { return w.hdr }

// Records is the number of records written so far.
func (w *Writer) Records() uint64 { return w.n }

func (w *Writer) Write(rec Record) error {
	b, err := encodeRecord(w.hdr, rec, w.buf)
	if err != nil {
		return err
	}
	w.buf = b
	if _, err := w.xz.Write(b); err != nil {
		return err
	}
	w.n++
	return nil
}

func (w *Writer) Close() error {
	return w.xz.Close()
}

// Reader iterates records of a capture.
type Reader struct {
	hdr Header
	r   io.Reader
	buf []byte
}

func NewReader(r io.Reader) (*Reader, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("capture: xz reader: %w", err)
	}
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(zr, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrShortHeader
		}
		return nil, err
	}
	hdr, err := DecodeHeader(fixed[:])
	if err != nil {
		return nil, err
	}
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	if extra := int64(hdr.HeaderLen - FixedHeaderLen); extra > 0 {
		if _, err := io.CopyN(io.Discard, zr, extra); err != nil {
			return nil, ErrShortHeader
		}
	}
	return &Reader{hdr: hdr, r: zr, buf: make([]byte, hdr.RecordLen())}, nil
}

func (r *Reader) Header() Header { return r.hdr }

// Next returns the next record, io.EOF at a clean end, or ErrTruncated.
func (r *Reader) Next() (Record, error) {
	n, err := io.ReadFull(r.r, r.buf)
	switch {
	case err == nil:
		return decodeRecord(r.hdr, r.buf), nil
	case errors.Is(err, io.EOF) && n == 0:
		return Record{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Record{}, ErrTruncated
	default:
		return Record{}, err
	}
}
