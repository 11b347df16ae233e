package lane

import (
	"errors"
	"testing"

	"github.com/danmuck/hdmirx/internal/tmds"
)

func TestNewDeserializerRejectsBadGeometry(t *testing.T) {
	if _, err := NewDeserializer(0, 0); !errors.Is(err, ErrOversample) {
		t.Fatalf("expected ErrOversample, got %v", err)
	}
	if _, err := NewDeserializer(5, 3); !errors.Is(err, ErrDelayRange) {
		t.Fatalf("expected ErrDelayRange for short tap range, got %v", err)
	}
	if _, err := NewDeserializer(5, 50); !errors.Is(err, ErrDelayRange) {
		t.Fatalf("expected ErrDelayRange for tap range past one symbol, got %v", err)
	}
	if _, err := NewDeserializer(5, 12); err != nil {
		t.Fatalf("unexpected error for wide tap range: %v", err)
	}
}

func TestDeserializerTickRejectsWrongWindow(t *testing.T) {
	d, err := NewDeserializer(5, 4)
	if err != nil {
		t.Fatalf("new deserializer: %v", err)
	}
	if _, err := d.Tick(make([]Sample, 49)); !errors.Is(err, ErrWindowLength) {
		t.Fatalf("expected ErrWindowLength, got %v", err)
	}
}

func TestDeserializerLatchesAtOffset(t *testing.T) {
	const oversample = 5
	word := tmds.ControlToken(0b10)
	for _, offset := range []int{0, 1, 4, 7, 23, 49} {
		d, err := NewDeserializer(oversample, oversample-1)
		if err != nil {
			t.Fatalf("new deserializer: %v", err)
		}
		// Sample in the middle of each bit.
		target := (offset + oversample/2) % d.WindowLen()
		for i := 0; i < target/oversample; i++ {
			d.Bitslip()
		}
		d.ApplyDelay(target % oversample)
		if d.Offset() != target {
			t.Fatalf("offset: got=%d want=%d", d.Offset(), target)
		}

		var got tmds.CodeWord
		for _, win := range repeatedWindows(word, oversample, offset, 4) {
			got, err = d.Tick(win)
			if err != nil {
				t.Fatalf("tick: %v", err)
			}
		}
		if got != word {
			t.Fatalf("offset=%d: got=0x%03x want=0x%03x", offset, got, word)
		}
	}
}

func TestDeserializerBitslipWrapsAndDelayClamps(t *testing.T) {
	d, err := NewDeserializer(5, 4)
	if err != nil {
		t.Fatalf("new deserializer: %v", err)
	}
	for i := 0; i < tmds.WordBits+3; i++ {
		d.Bitslip()
	}
	if d.Slip() != 3 {
		t.Fatalf("slip: got=%d want=3", d.Slip())
	}
	d.ApplyDelay(9)
	if d.Tap() != 4 {
		t.Fatalf("tap clamp high: got=%d", d.Tap())
	}
	d.ApplyDelay(-2)
	if d.Tap() != 0 {
		t.Fatalf("tap clamp low: got=%d", d.Tap())
	}
	d.Reset()
	if d.Slip() != 0 || d.Tap() != 0 {
		t.Fatalf("reset: slip=%d tap=%d", d.Slip(), d.Tap())
	}
}
