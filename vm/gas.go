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

import "math/big"

// Gas is the type used for gas accounting. Real gas values fit comfortably
// in 64 bits, but an adversarial EXP exponent or memory expansion term can
// produce an intermediate product that overflows int64 before it is clamped
// against the gas actually remaining. Using big.Int throughout avoids ever
// needing to reason about where that overflow could bite.
//
// Gas is never mutated in place by instruction code; every helper below
// returns a fresh value, matching the rest of this package's
// expression-oriented style around Word.
type Gas = big.Int

// NewGas returns a Gas holding the given non-negative amount.
func NewGas(n int64) *Gas { return big.NewInt(n) }

// ZeroGas returns a fresh Gas holding zero.
func ZeroGas() *Gas { return new(big.Int) }

// GasAdd returns a+b.
func GasAdd(a, b *Gas) *Gas { return new(big.Int).Add(a, b) }

// GasSub returns a-b. The result may be negative; callers that require a
// non-negative remainder should check GasSign first.
func GasSub(a, b *Gas) *Gas { return new(big.Int).Sub(a, b) }

// GasMul returns a*b.
func GasMul(a, b *Gas) *Gas { return new(big.Int).Mul(a, b) }

// GasCmp returns -1, 0 or 1 as a is less than, equal to, or greater than b.
func GasCmp(a, b *Gas) int { return a.Cmp(b) }

// GasSign returns -1, 0 or 1 according to the sign of g.
func GasSign(g *Gas) int { return g.Sign() }

// GasLess reports whether a < b.
func GasLess(a, b *Gas) bool { return a.Cmp(b) < 0 }

// GasUint64Clamped converts g to a uint64, clamping to math.MaxUint64 if g
// does not fit and to 0 if g is negative. Used only at the boundary where
// an arbitrary-precision gas cost must be compared against, or subtracted
// from, the concrete remaining gas counter.
func GasUint64Clamped(g *Gas) uint64 {
	if g.Sign() < 0 {
		return 0
	}
	if !g.IsUint64() {
		return ^uint64(0)
	}
	return g.Uint64()
}

// GasFromWord converts a 256-bit stack operand (e.g. the gas allowance
// operand of CALL/CALLCODE/DELEGATECALL) to a Gas at full precision,
// without clamping: the same arbitrary-precision reasoning that motivates
// Gas as big.Int applies to a caller-supplied gas figure, which is
// otherwise just as capable of overflowing a uint64 as any other operand
// before GasCap and the available-gas comparison bound it back down.
func GasFromWord(w *Word) *Gas { return w.ToBig() }

// FeeSchedule names the gas constants consulted by instruction semantics.
// DefaultFeeSchedule holds the Frontier/Homestead baseline; EIP-150's
// repricing lives in a second table, TangerineWhistleFeeSchedule, which
// starts from the baseline and overrides the changed constants. Each
// EvmConfig carries the table for its revision.
type FeeSchedule struct {
	GZero     *Gas
	GBase     *Gas
	GVeryLow  *Gas
	GLow      *Gas
	GMid      *Gas
	GHigh     *Gas
	GExtCode  *Gas
	GBalance  *Gas
	GSLoad    *Gas
	GJumpDest *Gas
	GSSet     *Gas
	GSReset   *Gas
	RSClear   *Gas

	RSelfDestruct *Gas
	GSelfDestruct *Gas

	GCreate      *Gas
	GCodeDeposit *Gas

	GCall         *Gas
	GCallValue    *Gas
	GCallStipend  *Gas
	GNewAccount   *Gas
	GExp          *Gas
	GExpByte      *Gas
	GMemory       *Gas
	GCopy         *Gas
	GBlockHash    *Gas
	GLog          *Gas
	GLogData      *Gas
	GLogTopic     *Gas
	GSha3         *Gas
	GSha3Word     *Gas
}

// DefaultFeeSchedule returns the Frontier/Homestead fee schedule.
func DefaultFeeSchedule() *FeeSchedule {
	return &FeeSchedule{
		GZero:     NewGas(0),
		GBase:     NewGas(2),
		GVeryLow:  NewGas(3),
		GLow:      NewGas(5),
		GMid:      NewGas(8),
		GHigh:     NewGas(10),
		GExtCode:  NewGas(20),
		GBalance:  NewGas(20),
		GSLoad:    NewGas(50),
		GJumpDest: NewGas(1),
		GSSet:     NewGas(20000),
		GSReset:   NewGas(5000),
		RSClear:   NewGas(15000),

		RSelfDestruct: NewGas(24000),
		GSelfDestruct: NewGas(0),

		GCreate:      NewGas(32000),
		GCodeDeposit: NewGas(200),

		GCall:        NewGas(40),
		GCallValue:   NewGas(9000),
		GCallStipend: NewGas(2300),
		GNewAccount:  NewGas(25000),
		GExp:         NewGas(10),
		GExpByte:     NewGas(10),
		GMemory:      NewGas(3),
		GCopy:        NewGas(3),
		GBlockHash:   NewGas(20),
		GLog:         NewGas(375),
		GLogData:     NewGas(8),
		GLogTopic:    NewGas(375),
		GSha3:        NewGas(30),
		GSha3Word:    NewGas(6),
	}
}

// TangerineWhistleFeeSchedule returns the schedule after EIP-150's
// repricing of EXT* operations and SELFDESTRUCT, and sets GCall/GBalance to
// their post-EIP-150 values.
func TangerineWhistleFeeSchedule() *FeeSchedule {
	fs := DefaultFeeSchedule()
	fs.GExtCode = NewGas(700)
	fs.GBalance = NewGas(400)
	fs.GSLoad = NewGas(200)
	fs.GCall = NewGas(700)
	fs.GSelfDestruct = NewGas(5000)
	return fs
}
