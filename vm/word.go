// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vm

import (
	"github.com/holiman/uint256"
)

// Word is the EVM's native 256-bit unsigned integer, with wraparound
// arithmetic and two's-complement signed interpretations of the same bits.
// Instruction semantics operate directly on *uint256.Int, reaching for the
// named wrappers below where an operation should return a fresh *Word
// (SDiv, SMod, AddMod, MulMod, Exp, SignExtend) or is not exposed verbatim
// (GetByte, ByteSize).
type Word = uint256.Int

// NewWord returns a zero-valued Word.
func NewWord() *Word { return new(uint256.Int) }

// WordFromUint64 returns a Word holding the given value.
func WordFromUint64(v uint64) *Word { return uint256.NewInt(v) }

// WordFromBytes32 left-pads-or-truncates are not needed: the input is
// exactly 32 big-endian bytes.
func WordFromBytes32(b [32]byte) *Word {
	w := new(uint256.Int)
	w.SetBytes32(b[:])
	return w
}

// ToBytes32 renders w as 32 big-endian bytes, left-zero-padded.
func ToBytes32(w *Word) [32]byte {
	return w.Bytes32()
}

// ByteSize returns the minimum number of bytes needed to represent w, i.e.
// 0 for the zero word and ceil(bitlen/8) otherwise.
func ByteSize(w *Word) int {
	bits := w.BitLen()
	if bits == 0 {
		return 0
	}
	return (bits + 7) / 8
}

// GetByte returns the i-th byte of w counting from the most significant
// byte (big-endian index). An index of 32 or more yields zero, matching the
// EVM's BYTE opcode. uint256.Int.Byte takes its index as an Int and
// rewrites its receiver in place to hold the extracted byte, so this copies
// w first rather than disturbing the caller's word.
func GetByte(w *Word, i uint64) byte {
	if i >= 32 {
		return 0
	}
	result := new(uint256.Int).Set(w)
	result.Byte(uint256.NewInt(i))
	return byte(result.Uint64())
}

// SDiv computes the two's-complement signed division of a by b, truncating
// toward zero. Division by zero yields zero. SDIV(minInt256, -1) yields
// minInt256 again since 256-bit two's complement cannot represent
// +2**255, matching the EVM's defined overflow behaviour.
func SDiv(a, b *Word) *Word {
	return new(uint256.Int).SDiv(a, b)
}

// SMod computes the two's-complement signed remainder of a by b, with the
// sign of the result following the dividend a. Modulus by zero yields zero.
func SMod(a, b *Word) *Word {
	return new(uint256.Int).SMod(a, b)
}

// SignExtend sign-extends the low-order (b+1) bytes of a, treating byte
// index b (0 = least significant byte) as the sign byte. Indices of 31 or
// more leave a unchanged, since the word is already fully sign-extended at
// that width.
func SignExtend(b, a *Word) *Word {
	return new(uint256.Int).ExtendSign(a, b)
}

// Exp, SDiv, SMod, AddMod and MulMod in this file mirror the spelling used throughout
// go-ethereum-derived interpreters (z.SDiv(&x, y) style), wrapped here to
// return a fresh *Word so instruction bodies can stay expression-oriented.

// AddMod computes (a+b) mod m at full precision (no 256-bit wraparound
// between the addition and the modulus). A modulus of zero yields zero.
func AddMod(a, b, m *Word) *Word {
	return new(uint256.Int).AddMod(a, b, m)
}

// MulMod computes (a*b) mod m at full precision. A modulus of zero yields
// zero.
func MulMod(a, b, m *Word) *Word {
	return new(uint256.Int).MulMod(a, b, m)
}

// Exp computes a**b mod 2**256.
func Exp(a, b *Word) *Word {
	return new(uint256.Int).Exp(a, b)
}

// Bool returns the canonical EVM boolean encoding of v: Word(1) for true,
// Word(0) for false.
func Bool(v bool) *Word {
	if v {
		return uint256.NewInt(1)
	}
	return new(uint256.Int)
}
