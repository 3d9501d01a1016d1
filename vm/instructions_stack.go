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
	register(POP, &Instruction{Delta: 1, Alpha: 0,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GBase }),
		Execute: func(s *ProgramState) error {
			s.Stack.Pop()
			return nil
		},
	})

	for n := 1; n <= 32; n++ {
		register(PUSH1+OpCode(n-1), pushInstruction(n))
	}
	for i := 1; i <= 16; i++ {
		register(DUP1+OpCode(i-1), dupInstruction(i))
	}
	for i := 1; i <= 16; i++ {
		register(SWAP1+OpCode(i-1), swapInstruction(i))
	}

	register(PC, &Instruction{Delta: 0, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GBase }),
		Execute: func(s *ProgramState) error {
			*s.Stack.PushUndefined() = *WordFromUint64(uint64(s.PC))
			return nil
		},
	})

	register(MSIZE, &Instruction{Delta: 0, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GBase }),
		Execute: func(s *ProgramState) error {
			*s.Stack.PushUndefined() = *WordFromUint64(s.Memory.Size())
			return nil
		},
	})

	register(GAS, &Instruction{Delta: 0, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GBase }),
		Execute: func(s *ProgramState) error {
			*s.Stack.PushUndefined() = *WordFromUint64(GasUint64Clamped(s.Gas))
			return nil
		},
	})

	register(JUMPDEST, &Instruction{Delta: 0, Alpha: 0,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GJumpDest }),
		Execute:  func(s *ProgramState) error { return nil },
	})
}

// pushInstruction builds the Instruction for PUSHn: read the n immediate
// bytes following the opcode, zero-extended to a full word, push it, and
// advance pc past the immediate.
func pushInstruction(n int) *Instruction {
	return &Instruction{Delta: 0, Alpha: 1, SetsPC: true,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }),
		Execute: func(s *ProgramState) error {
			raw := s.Env.Program.ImmediateBytes(s.PC, n)
			*s.Stack.PushUndefined() = *WordFromBytes32(raw)
			s.PC += n + 1
			return nil
		},
	}
}

// dupInstruction builds the Instruction for DUPi: duplicate the i-th item
// from the top (1-indexed) onto the top of the stack.
func dupInstruction(i int) *Instruction {
	return &Instruction{Delta: i, Alpha: i + 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }),
		Execute: func(s *ProgramState) error {
			s.Stack.Dup(i - 1)
			return nil
		},
	}
}

// swapInstruction builds the Instruction for SWAPi: exchange the top item
// with the item i positions below it.
func swapInstruction(i int) *Instruction {
	return &Instruction{Delta: i + 1, Alpha: i + 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }),
		Execute: func(s *ProgramState) error {
			s.Stack.Swap(i)
			return nil
		},
	}
}
