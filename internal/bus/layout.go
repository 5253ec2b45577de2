// Package bus implements the parallel word carried between the sensing host
// and the display receiver.
//
// Word layout (bit 0 = least significant):
//
//	bit:  8 7 6 | 5 4 3 2 1 0
//	      moist | humidity
//
// Humidity occupies the low six bits, the quantized moisture level the next
// three. Encoder and decoder both read the layout from Layout; there is no
// second copy of the field widths.
package bus

// Word is a value on the parallel bus. Only the low Width bits are used.
type Word uint16

// Field describes one packed field.
type Field struct {
	Shift uint
	Width uint
}

// Max returns the largest value the field can represent.
func (f Field) Max() uint {
	return 1<<f.Width - 1
}

func (f Field) mask() Word {
	return Word(f.Max()) << f.Shift
}

// pack clamps v to the field maximum and places it.
func (f Field) pack(v uint) Word {
	if v > f.Max() {
		v = f.Max()
	}
	return Word(v) << f.Shift
}

func (f Field) extract(w Word) uint {
	return uint(w&f.mask()) >> f.Shift
}

// Layout is the field schema shared by Encode and Decode.
var Layout = struct {
	Humidity Field
	Moisture Field
}{
	Humidity: Field{Shift: 0, Width: 6},
	Moisture: Field{Shift: 6, Width: 3},
}

// Width is the number of lines on the bus.
const Width = 9

// Mask covers every line of the bus.
const Mask Word = 1<<Width - 1

// Bit reports the level of line i.
func (w Word) Bit(i int) bool {
	return w&(1<<uint(i)) != 0
}

// Levels returns the line levels, index 0 first, as GPIO values (0 or 1).
func (w Word) Levels() []int {
	out := make([]int, Width)
	for i := range out {
		if w.Bit(i) {
			out[i] = 1
		}
	}
	return out
}

// FromLevels assembles a word from line levels, index 0 first.
// Any non-zero level counts as high.
func FromLevels(levels []int) Word {
	var w Word
	for i, v := range levels {
		if i >= Width {
			break
		}
		if v != 0 {
			w |= 1 << uint(i)
		}
	}
	return w
}
