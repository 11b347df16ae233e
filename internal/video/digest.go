package video

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"os"

	"github.com/zeebo/blake3"
	"golang.org/x/image/bmp"
)

// Digest hashes frame geometry and RGB content. Alpha is ignored.
func Digest(img *image.RGBA) [32]byte {
	b := img.Bounds()
	h := blake3.New()
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(b.Dy()))
	_, _ = h.Write(hdr[:])

	row := make([]byte, 0, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = row[:0]
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			row = append(row, c.R, c.G, c.B)
		}
		_, _ = h.Write(row)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DigestHex is Digest as lowercase hex.
func DigestHex(img *image.RGBA) string {
	d := Digest(img)
	return hex.EncodeToString(d[:])
}

// WriteBMP writes a frame snapshot.
func WriteBMP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot create (%s): %w", path, err)
	}
	if err := bmp.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("snapshot encode (%s): %w", path, err)
	}
	return f.Close()
}
