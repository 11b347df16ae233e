package capture

import (
	"fmt"

	"github.com/danmuck/hdmirx/internal/framesync"
)

const referenceLen = 4

const (
	recLinkReady byte = 0x01

	refBlank byte = 0x01
	refHSync byte = 0x02
	refVSync byte = 0x04
)

// Record is one tick of captured input.
type Record struct {
	LinkReady bool
	Lanes     [Lanes][]byte
	// Sent is only meaningful when the header carries FlagReference.
	Sent framesync.PixelSample
}

func packedLen(samples int) int { return (samples + 7) / 8 }

// encodeRecord appends the encoded record to buf[:0].
func encodeRecord(h Header, rec Record, buf []byte) ([]byte, error) {
	w := h.WindowLen()
	buf = buf[:0]
	var flags byte
	if rec.LinkReady {
		flags |= recLinkReady
	}
	buf = append(buf, flags)
	for i, win := range rec.Lanes {
		if len(win) != w {
			return buf, fmt.Errorf("%w: lane %d got=%d want=%d", ErrWindowLength, i, len(win), w)
		}
		buf = appendPacked(buf, win)
	}
	if h.HasReference() {
		var ref byte
		if rec.Sent.Blank {
			ref |= refBlank
		}
		if rec.Sent.HSync {
			ref |= refHSync
		}
		if rec.Sent.VSync {
			ref |= refVSync
		}
		buf = append(buf, ref, rec.Sent.Red, rec.Sent.Green, rec.Sent.Blue)
	}
	return buf, nil
}

func decodeRecord(h Header, b []byte) Record {
	w := h.WindowLen()
	n := packedLen(w)
	rec := Record{LinkReady: b[0]&recLinkReady != 0}
	off := 1
	for i := range rec.Lanes {
		rec.Lanes[i] = unpack(b[off:off+n], w)
		off += n
	}
	if h.HasReference() {
		ref := b[off]
		rec.Sent = framesync.PixelSample{
			Blank: ref&refBlank != 0,
			HSync: ref&refHSync != 0,
			VSync: ref&refVSync != 0,
			Red:   b[off+1],
			Green: b[off+2],
			Blue:  b[off+3],
		}
	}
	return rec
}

// appendPacked packs samples LSB first, eight per byte.
func appendPacked(dst, samples []byte) []byte {
	var cur byte
	for i, s := range samples {
		if s != 0 {
			cur |= 1 << (i % 8)
		}
		if i%8 == 7 {
			dst = append(dst, cur)
			cur = 0
		}
	}
	if len(samples)%8 != 0 {
		dst = append(dst, cur)
	}
	return dst
}

func unpack(packed []byte, samples int) []byte {
	out := make([]byte, samples)
	for i := range out {
		out[i] = (packed[i/8] >> (i % 8)) & 1
	}
	return out
}
