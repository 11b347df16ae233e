package stimulus

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/danmuck/hdmirx/internal/tmds"
)

var ErrInvalidSerializer = errors.New("stimulus: invalid serializer settings")

// Serializer turns code words into oversampled line samples. The stream is
// delayed by Offset samples of idle line, and the first sample of every bit
// repeats the previous bit with probability Jitter.
type Serializer struct {
	oversample int
	jitter     float64
	rng        *rand.Rand
	carry      []byte
	buf        []byte
	prev       byte
}

func NewSerializer(oversample, offset int, jitter float64, rng *rand.Rand) (*Serializer, error) {
	w := tmds.WordBits * oversample
	if oversample <= 0 {
		return nil, fmt.Errorf("%w: oversample=%d", ErrInvalidSerializer, oversample)
	}
	if offset < 0 || offset >= w {
		return nil, fmt.Errorf("%w: offset=%d outside [0,%d)", ErrInvalidSerializer, offset, w)
	}
	if jitter < 0 || jitter > 1 {
		return nil, fmt.Errorf("%w: jitter=%v", ErrInvalidSerializer, jitter)
	}
	if jitter > 0 && rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Serializer{
		oversample: oversample,
		jitter:     jitter,
		rng:        rng,
		carry:      make([]byte, offset),
		buf:        make([]byte, 0, offset+w),
	}, nil
}

func (s *Serializer) WindowLen() int { return tmds.WordBits * s.oversample }

// Tick serializes one word and returns the next window of samples. The
// returned slice is owned by the caller.
func (s *Serializer) Tick(word tmds.CodeWord) []byte {
	s.buf = append(s.buf[:0], s.carry...)
	for i := 0; i < tmds.WordBits; i++ {
		bit := byte(word>>i) & 1
		for k := 0; k < s.oversample; k++ {
			v := bit
			if k == 0 && s.jitter > 0 && s.rng.Float64() < s.jitter {
				v = s.prev
			}
			s.buf = append(s.buf, v)
		}
		s.prev = bit
	}

	w := s.WindowLen()
	out := make([]byte, w)
	copy(out, s.buf[:w])
	s.carry = append(s.carry[:0], s.buf[w:]...)
	return out
}
