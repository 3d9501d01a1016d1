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

func init() {
	register(STOP, &Instruction{Delta: 0, Alpha: 0,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return ZeroGas() }),
		Execute: func(s *ProgramState) error {
			s.ReturnData = nil
			s.halt()
			return nil
		},
	})

	register(ADD, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return new(Word).Add(a, b)
	}))
	register(MUL, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GLow }, func(a, b *Word) *Word {
		return new(Word).Mul(a, b)
	}))
	register(SUB, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return new(Word).Sub(a, b)
	}))
	register(DIV, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GLow }, func(a, b *Word) *Word {
		return new(Word).Div(a, b)
	}))
	register(SDIV, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GLow }, func(a, b *Word) *Word {
		return SDiv(a, b)
	}))
	register(MOD, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GLow }, func(a, b *Word) *Word {
		return new(Word).Mod(a, b)
	}))
	register(SMOD, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GLow }, func(a, b *Word) *Word {
		return SMod(a, b)
	}))

	register(ADDMOD, ternaryOp(func(fs *FeeSchedule) *Gas { return fs.GMid }, AddMod))
	register(MULMOD, ternaryOp(func(fs *FeeSchedule) *Gas { return fs.GMid }, MulMod))

	register(EXP, &Instruction{Delta: 2, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GExp }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			exp := s.Stack.PeekN(1)
			return GasMul(s.Config.FeeSchedule.GExpByte, NewGas(int64(ByteSize(exp)))), nil
		},
		Execute: func(s *ProgramState) error {
			base, exp := s.Stack.Pop(), s.Stack.Pop()
			*s.Stack.PushUndefined() = *Exp(base, exp)
			return nil
		},
	})

	register(SIGNEXTEND, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GLow }, func(b, a *Word) *Word {
		return SignExtend(b, a)
	}))

	register(LT, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return Bool(a.Lt(b))
	}))
	register(GT, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return Bool(a.Gt(b))
	}))
	register(SLT, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return Bool(a.Slt(b))
	}))
	register(SGT, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return Bool(a.Sgt(b))
	}))
	register(EQ, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return Bool(a.Eq(b))
	}))
	register(ISZERO, unaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a *Word) *Word {
		return Bool(a.IsZero())
	}))
	register(AND, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return new(Word).And(a, b)
	}))
	register(OR, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return new(Word).Or(a, b)
	}))
	register(XOR, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a, b *Word) *Word {
		return new(Word).Xor(a, b)
	}))
	register(NOT, unaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(a *Word) *Word {
		return new(Word).Not(a)
	}))
	register(BYTE, binaryOp(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }, func(i, x *Word) *Word {
		if !i.IsUint64() || i.Uint64() >= 32 {
			return NewWord()
		}
		return WordFromUint64(uint64(GetByte(x, i.Uint64())))
	}))
}

// unaryOp builds an Instruction for a one-operand, one-result opcode with a
// fixed gas cost: pop a, push f(a).
func unaryOp(gas func(fs *FeeSchedule) *Gas, f func(a *Word) *Word) *Instruction {
	return &Instruction{Delta: 1, Alpha: 1,
		ConstGas: constGas(gas),
		Execute: func(s *ProgramState) error {
			a := s.Stack.Pop()
			*s.Stack.PushUndefined() = *f(a)
			return nil
		},
	}
}

// binaryOp builds an Instruction for a two-operand, one-result opcode with
// a fixed gas cost: pop a (top), pop b, push f(a, b).
func binaryOp(gas func(fs *FeeSchedule) *Gas, f func(a, b *Word) *Word) *Instruction {
	return &Instruction{Delta: 2, Alpha: 1,
		ConstGas: constGas(gas),
		Execute: func(s *ProgramState) error {
			a, b := s.Stack.Pop(), s.Stack.Pop()
			*s.Stack.PushUndefined() = *f(a, b)
			return nil
		},
	}
}

// ternaryOp builds an Instruction for a three-operand, one-result opcode
// with a fixed gas cost: pop a (top), pop b, pop n, push f(a, b, n).
func ternaryOp(gas func(fs *FeeSchedule) *Gas, f func(a, b, n *Word) *Word) *Instruction {
	return &Instruction{Delta: 3, Alpha: 1,
		ConstGas: constGas(gas),
		Execute: func(s *ProgramState) error {
			a, b, n := s.Stack.Pop(), s.Stack.Pop(), s.Stack.Pop()
			*s.Stack.PushUndefined() = *f(a, b, n)
			return nil
		},
	}
}
