// Package morton interleaves tile columns and rows into Z-order codes.
package morton

import (
	"fmt"
	"math"
)

// Z is a Morton code: the bits of a column (even positions) and a row (odd positions).
type Z = uint

var (
	masks = [...]uint{
		0b0101010101010101010101010101010101010101010101010101010101010101,
		0b0011001100110011001100110011001100110011001100110011001100110011,
		0b0000111100001111000011110000111100001111000011110000111100001111,
		0b0000000011111111000000001111111100000000111111110000000011111111,
		0b0000000000000000111111111111111100000000000000001111111111111111,
		0b0000000000000000000000000000000011111111111111111111111111111111,
	}
	shifts = [...]uint{0, 1, 2, 4, 8, 16}
)

// Encode interleaves col and row. ok is false when either does not fit in 32 bits.
func Encode(col, row uint) (z Z, ok bool) {
	if col > math.MaxUint32 || row > math.MaxUint32 {
		return 0, false
	}
	for i := 4; i >= 0; i-- {
		col = (col | (col << shifts[i+1])) & masks[i]
		row = (row | (row << shifts[i+1])) & masks[i]
	}
	return col | (row << 1), true
}

func MustEncode(col, row uint) Z {
	z, ok := Encode(col, row)
	if !ok {
		panic(fmt.Errorf("cannot interleave %v and %v", col, row))
	}
	return z
}

// Decode splits z back into the column and row Encode got.
func Decode(z Z) (col, row uint) {
	col = z
	row = z >> 1
	for i := 0; i <= 5; i++ {
		col = (col | (col >> shifts[i])) & masks[i]
		row = (row | (row >> shifts[i])) & masks[i]
	}
	return col, row
}

// Digit is the base-4 digit of z at level (0 being the least significant pair of bits).
func Digit(z Z, level uint) uint {
	return (z >> (2 * level)) & 0b11
}
