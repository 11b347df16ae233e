// Package capture reads and writes recordings of oversampled lane input.
//
// A capture is an xz stream holding a fixed header followed by one record
// per pixel-clock tick.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	Magic          uint32 = 0x544D4453 // "TMDS"
	Version        uint16 = 1
	FixedHeaderLen uint16 = 48
	Lanes          uint8  = 3
	// MaxOversample is the largest factor the one-byte header field holds.
	MaxOversample = 255

	// FlagReference marks records that carry the transmitted pixel.
	FlagReference uint16 = 0x01
)

var (
	ErrShortHeader       = errors.New("capture: short fixed header")
	ErrInvalidMagic      = errors.New("capture: invalid magic")
	ErrUnsupportedVer    = errors.New("capture: unsupported version")
	ErrHeaderLenTooSmall = errors.New("capture: header_len smaller than fixed header")
	ErrLaneCount         = errors.New("capture: unsupported lane count")
	ErrOversample        = errors.New("capture: oversample must be in [1,255]")
	ErrTruncated         = errors.New("capture: truncated record")
	ErrWindowLength      = errors.New("capture: lane window length mismatch")
)

// Header is the fixed capture header.
type Header struct {
	Magic      uint32
	Version    uint16
	HeaderLen  uint16
	Lanes      uint8
	Oversample uint8
	Flags      uint16
	ID         uuid.UUID
	Created    time.Time
	// TickHint is the number of records the writer intended; 0 if unknown.
	TickHint uint64
}

// NewHeader returns a header with a fresh capture id. An oversample factor
// outside [1, MaxOversample] is stored as 0 so Validate rejects it.
func NewHeader(oversample int, reference bool) Header {
	h := Header{
		Magic:      Magic,
		Version:    Version,
		HeaderLen:  FixedHeaderLen,
		Lanes:      Lanes,
		ID:         uuid.New(),
		Created:    time.Now().UTC(),
	}
	if oversample > 0 && oversample <= MaxOversample {
		h.Oversample = uint8(oversample)
	}
	if reference {
		h.Flags |= FlagReference
	}
	return h
}

// WindowLen is the number of samples per lane per record.
func (h Header) WindowLen() int { return 10 * int(h.Oversample) }

func (h Header) HasReference() bool { return h.Flags&FlagReference != 0 }

// RecordLen is the encoded size of one record.
func (h Header) RecordLen() int {
	n := 1 + int(h.Lanes)*packedLen(h.WindowLen())
	if h.HasReference() {
		n += referenceLen
	}
	return n
}

func (h Header) Validate() error {
	if h.Magic != Magic {
		return ErrInvalidMagic
	}
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVer, h.Version)
	}
	if h.HeaderLen < FixedHeaderLen {
		return ErrHeaderLenTooSmall
	}
	if h.Lanes != Lanes {
		return fmt.Errorf("%w: %d", ErrLaneCount, h.Lanes)
	}
	if h.Oversample == 0 {
		return ErrOversample
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, FixedHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.HeaderLen)
	buf[8] = h.Lanes
	buf[9] = h.Oversample
	binary.BigEndian.PutUint16(buf[10:12], h.Flags)
	// 12:16 reserved
	copy(buf[16:32], h.ID[:])
	var created int64
	if !h.Created.IsZero() {
		created = h.Created.UnixNano()
	}
	binary.BigEndian.PutUint64(buf[32:40], uint64(created))
	binary.BigEndian.PutUint64(buf[40:48], h.TickHint)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != int(FixedHeaderLen) {
		return Header{}, fmt.Errorf("capture: invalid fixed header length: %d", len(b))
	}
	h := Header{
		Magic:      binary.BigEndian.Uint32(b[0:4]),
		Version:    binary.BigEndian.Uint16(b[4:6]),
		HeaderLen:  binary.BigEndian.Uint16(b[6:8]),
		Lanes:      b[8],
		Oversample: b[9],
		Flags:      binary.BigEndian.Uint16(b[10:12]),
		TickHint:   binary.BigEndian.Uint64(b[40:48]),
	}
	copy(h.ID[:], b[16:32])
	if ns := int64(binary.BigEndian.Uint64(b[32:40])); ns != 0 {
		h.Created = time.Unix(0, ns).UTC()
	}
	return h, nil
}
