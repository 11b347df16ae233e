package tmds

import "fmt"

// WordBits is the width of one line-code symbol.
const WordBits = 10

// WordMask keeps the low WordBits of a value.
const WordMask CodeWord = 1<<WordBits - 1

// CodeWord is one 10-bit symbol, bit 0 transmitted first.
type CodeWord uint16

// Kind tags a decoded unit.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindControl
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindData:
		return "data"
	default:
		return "invalid"
	}
}

// Unit is the classification of one code word. Ctl is meaningful only for
// KindControl and Data only for KindData.
type Unit struct {
	Kind Kind
	Ctl  uint8
	Data uint8
}

func (u Unit) Valid() bool { return u.Kind != KindInvalid }

func (u Unit) String() string {
	switch u.Kind {
	case KindControl:
		return fmt.Sprintf("control(%02b)", u.Ctl)
	case KindData:
		return fmt.Sprintf("data(0x%02x)", u.Data)
	default:
		return "invalid"
	}
}

// Control returns a control unit carrying the low two bits of ctl.
func Control(ctl uint8) Unit { return Unit{Kind: KindControl, Ctl: ctl & 0x3} }

// Data returns a data unit.
func Data(v uint8) Unit { return Unit{Kind: KindData, Data: v} }

// Invalid is the unit for words outside both alphabets.
var Invalid = Unit{Kind: KindInvalid}

// controlTokens is indexed by (c1<<1)|c0.
var controlTokens = [4]CodeWord{0x354, 0x0AB, 0x154, 0x2AB}

var (
	encodeTable [256]CodeWord
	decodeTable [1 << WordBits]Unit
)

func init() {
	for d := 0; d < 256; d++ {
		w := encodeData(uint8(d))
		encodeTable[d] = w
		decodeTable[w] = Data(uint8(d))
	}
	for ctl, w := range controlTokens {
		if decodeTable[w].Valid() {
			panic(fmt.Sprintf("tmds: control token 0x%03x collides with data table", w))
		}
		decodeTable[w] = Control(uint8(ctl))
	}
}

// Decode classifies a code word. Bits above WordBits are ignored.
func Decode(w CodeWord) Unit {
	return decodeTable[w&WordMask]
}

// Encode returns the canonical code word for a data byte.
func Encode(d uint8) CodeWord {
	return encodeTable[d]
}

// ControlToken returns the code word for a 2-bit control value.
func ControlToken(ctl uint8) CodeWord {
	return controlTokens[ctl&0x3]
}

// encodeData runs the transition-minimising stage and emits the output
// stage as if running disparity were zero, so each byte has one word.
func encodeData(d uint8) CodeWord {
	ones := 0
	for i := 0; i < 8; i++ {
		ones += int(d>>i) & 1
	}
	xnor := ones > 4 || (ones == 4 && d&1 == 0)

	qm := uint16(d & 1)
	for i := 1; i < 8; i++ {
		prev := (qm >> (i - 1)) & 1
		bit := uint16(d>>i) & 1
		next := prev ^ bit
		if xnor {
			next ^= 1
		}
		qm |= next << i
	}
	if xnor {
		// q_m[8] = 0: the low byte goes out inverted with bit 9 set.
		return CodeWord(^qm&0xFF) | 1<<9
	}
	return CodeWord(qm) | 1<<8
}
