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
	register(ADDRESS, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return AddressToWord(s.Env.OwnerAddr)
	}))
	register(ORIGIN, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return AddressToWord(s.Env.OriginAddr)
	}))
	register(CALLER, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return AddressToWord(s.Env.CallerAddr)
	}))
	register(CALLVALUE, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return s.Env.Value
	}))
	register(GASPRICE, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return s.Env.GasPrice
	}))
	register(CALLDATASIZE, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return WordFromUint64(uint64(len(s.Env.InputData)))
	}))
	register(CODESIZE, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return WordFromUint64(uint64(s.Env.Program.Len()))
	}))
	register(COINBASE, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return AddressToWord(s.Env.BlockHeader.Coinbase)
	}))
	register(TIMESTAMP, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return WordFromUint64(uint64(s.Env.BlockHeader.Timestamp))
	}))
	register(NUMBER, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return WordFromUint64(uint64(s.Env.BlockHeader.Number))
	}))
	register(DIFFICULTY, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return s.Env.BlockHeader.Difficulty
	}))
	register(GASLIMIT, pushEnvWord(func(fs *FeeSchedule) *Gas { return fs.GBase }, func(s *ProgramState) *Word {
		return WordFromUint64(GasUint64Clamped(s.Env.BlockHeader.GasLimit))
	}))

	register(BALANCE, &Instruction{Delta: 1, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GBalance }),
		Execute: func(s *ProgramState) error {
			addr := WordToAddress(s.Stack.Pop())
			*s.Stack.PushUndefined() = *s.World.GetBalance(addr)
			return nil
		},
	})

	register(EXTCODESIZE, &Instruction{Delta: 1, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GExtCode }),
		Execute: func(s *ProgramState) error {
			addr := WordToAddress(s.Stack.Pop())
			*s.Stack.PushUndefined() = *WordFromUint64(uint64(len(s.World.GetCode(addr))))
			return nil
		},
	})

	register(BLOCKHASH, &Instruction{Delta: 1, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GBlockHash }),
		Execute: func(s *ProgramState) error {
			n := s.Stack.Pop()
			result := NewWord()
			if n.IsUint64() {
				number := int64(n.Uint64())
				current := s.Env.BlockHeader.Number
				if number < current && number >= current-256 {
					if hash, ok := s.World.GetBlockHash(number); ok {
						result = WordFromBytes32([32]byte(hash))
					}
				}
			}
			*s.Stack.PushUndefined() = *result
			return nil
		},
	})

	register(CALLDATALOAD, &Instruction{Delta: 1, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }),
		Execute: func(s *ProgramState) error {
			offset := s.Stack.Pop()
			var raw [32]byte
			if offset.IsUint64() {
				copy(raw[:], readPadded(s.Env.InputData, offset.Uint64(), 32))
			}
			*s.Stack.PushUndefined() = *WordFromBytes32(raw)
			return nil
		},
	})

	register(CALLDATACOPY, copyInstruction(func(s *ProgramState) []byte { return s.Env.InputData }))
	register(CODECOPY, copyInstruction(func(s *ProgramState) []byte { return s.Env.Program.Code }))

	register(EXTCODECOPY, &Instruction{Delta: 4, Alpha: 0,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GExtCode }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			// stack, top to bottom: addr, destOffset, offset, size
			dest, sz, err := memOffsetSize(s.Stack.PeekN(1), s.Stack.PeekN(3))
			if err != nil {
				return nil, err
			}
			memCost := CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), dest, sz)
			copyCost := GasMul(s.Config.FeeSchedule.GCopy, NewGas(int64(WordsFor(sz))))
			return GasAdd(memCost, copyCost), nil
		},
		Execute: func(s *ProgramState) error {
			addr := WordToAddress(s.Stack.Pop())
			destOffset, offset, size := s.Stack.Pop(), s.Stack.Pop(), s.Stack.Pop()
			dest, sz, err := memOffsetSize(destOffset, size)
			if err != nil {
				return err
			}
			code := s.World.GetCode(addr)
			s.Memory.Store(dest, readPadded(code, sourceOffset(offset), sz))
			return nil
		},
	})
}

// pushEnvWord builds the Instruction for a zero-operand opcode that pushes
// one word computed from the frame's environment at a fixed gas cost.
func pushEnvWord(gas func(fs *FeeSchedule) *Gas, f func(s *ProgramState) *Word) *Instruction {
	return &Instruction{Delta: 0, Alpha: 1,
		ConstGas: constGas(gas),
		Execute: func(s *ProgramState) error {
			*s.Stack.PushUndefined() = *f(s)
			return nil
		},
	}
}

// copyInstruction builds the Instruction shared by CALLDATACOPY and
// CODECOPY: pop destOffset, offset, size and copy size bytes of source(s)
// (zero-padded past its end) into memory at destOffset. The memory cost
// covers the destination window; the source offset needs no bound at all,
// since a read past the source's end just pads with zeros.
func copyInstruction(source func(s *ProgramState) []byte) *Instruction {
	return &Instruction{Delta: 3, Alpha: 0,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			dest, sz, err := memOffsetSize(s.Stack.Peek(), s.Stack.PeekN(2))
			if err != nil {
				return nil, err
			}
			memCost := CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), dest, sz)
			copyCost := GasMul(s.Config.FeeSchedule.GCopy, NewGas(int64(WordsFor(sz))))
			return GasAdd(memCost, copyCost), nil
		},
		Execute: func(s *ProgramState) error {
			destOffset, offset, size := s.Stack.Pop(), s.Stack.Pop(), s.Stack.Pop()
			dest, sz, err := memOffsetSize(destOffset, size)
			if err != nil {
				return err
			}
			s.Memory.Store(dest, readPadded(source(s), sourceOffset(offset), sz))
			return nil
		},
	}
}

// sourceOffset converts a copy instruction's source offset operand to a
// uint64, saturating when it does not fit: any offset past the end of the
// source reads as zero padding anyway.
func sourceOffset(offset *Word) uint64 {
	if !offset.IsUint64() {
		return ^uint64(0)
	}
	return offset.Uint64()
}
