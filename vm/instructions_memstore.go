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
	register(MLOAD, &Instruction{Delta: 1, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			offset := s.Stack.Peek()
			off, _, err := memOffsetSize(offset, WordFromUint64(32))
			if err != nil {
				return nil, err
			}
			return CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), off, 32), nil
		},
		Execute: func(s *ProgramState) error {
			offset := s.Stack.Pop()
			data := s.Memory.Load(offset.Uint64(), 32)
			var raw [32]byte
			copy(raw[:], data)
			*s.Stack.PushUndefined() = *WordFromBytes32(raw)
			return nil
		},
	})

	register(MSTORE, &Instruction{Delta: 2, Alpha: 0,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			offset := s.Stack.Peek()
			off, _, err := memOffsetSize(offset, WordFromUint64(32))
			if err != nil {
				return nil, err
			}
			return CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), off, 32), nil
		},
		Execute: func(s *ProgramState) error {
			offset, value := s.Stack.Pop(), s.Stack.Pop()
			raw := ToBytes32(value)
			s.Memory.Store(offset.Uint64(), raw[:])
			return nil
		},
	})

	register(MSTORE8, &Instruction{Delta: 2, Alpha: 0,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GVeryLow }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			offset := s.Stack.Peek()
			off, _, err := memOffsetSize(offset, WordFromUint64(1))
			if err != nil {
				return nil, err
			}
			return CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), off, 1), nil
		},
		Execute: func(s *ProgramState) error {
			offset, value := s.Stack.Pop(), s.Stack.Pop()
			s.Memory.StoreByte(offset.Uint64(), GetByte(value, 31))
			return nil
		},
	})

	register(SLOAD, &Instruction{Delta: 1, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GSLoad }),
		Execute: func(s *ProgramState) error {
			key := s.Stack.Pop()
			*s.Stack.PushUndefined() = *s.Storage.Load(key)
			return nil
		},
	})

	register(SSTORE, &Instruction{Delta: 2, Alpha: 0,
		ConstGas: func(cfg *EvmConfig) *Gas { return ZeroGas() },
		VarGas: func(s *ProgramState) (*Gas, error) {
			key := s.Stack.Peek()
			value := s.Stack.PeekN(1)
			current := s.Storage.Load(key)
			if current.IsZero() && !value.IsZero() {
				return new(Gas).Set(s.Config.FeeSchedule.GSSet), nil
			}
			return new(Gas).Set(s.Config.FeeSchedule.GSReset), nil
		},
		Execute: func(s *ProgramState) error {
			key, value := s.Stack.Pop(), s.Stack.Pop()
			current := s.Storage.Load(key)
			if !current.IsZero() && value.IsZero() {
				s.refund(s.Config.FeeSchedule.RSClear)
			}
			s.Storage = s.Storage.Store(key, value)
			return nil
		},
	})

	register(SHA3, &Instruction{Delta: 2, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GSha3 }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			offset, size := s.Stack.Peek(), s.Stack.PeekN(1)
			off, sz, err := memOffsetSize(offset, size)
			if err != nil {
				return nil, err
			}
			memCost := CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), off, sz)
			wordCost := GasMul(s.Config.FeeSchedule.GSha3Word, NewGas(int64(WordsFor(sz))))
			return GasAdd(memCost, wordCost), nil
		},
		Execute: func(s *ProgramState) error {
			offset, size := s.Stack.Pop(), s.Stack.Pop()
			off, sz, err := memOffsetSize(offset, size)
			if err != nil {
				return err
			}
			data := s.Memory.Load(off, sz)
			hash := s.Env.Keccak256(data)
			*s.Stack.PushUndefined() = *WordFromBytes32([32]byte(hash))
			return nil
		},
	})

	for n := 0; n <= 4; n++ {
		register(LOG0+OpCode(n), logInstruction(n))
	}
}

// logInstruction builds the Instruction for LOGn: pop offset, size, then n
// topics (topmost first), and append a LogEntry for the executing account.
func logInstruction(n int) *Instruction {
	return &Instruction{Delta: 2 + n, Alpha: 0,
		ConstGas: func(cfg *EvmConfig) *Gas {
			return GasAdd(cfg.FeeSchedule.GLog, GasMul(cfg.FeeSchedule.GLogTopic, NewGas(int64(n))))
		},
		VarGas: func(s *ProgramState) (*Gas, error) {
			offset, size := s.Stack.Peek(), s.Stack.PeekN(1)
			off, sz, err := memOffsetSize(offset, size)
			if err != nil {
				return nil, err
			}
			memCost := CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), off, sz)
			dataCost := GasMul(s.Config.FeeSchedule.GLogData, NewGas(int64(sz)))
			return GasAdd(memCost, dataCost), nil
		},
		Execute: func(s *ProgramState) error {
			offset, size := s.Stack.Pop(), s.Stack.Pop()
			off, sz, err := memOffsetSize(offset, size)
			if err != nil {
				return err
			}
			data := s.Memory.Load(off, sz)
			topics := make([]Hash, n)
			for i := 0; i < n; i++ {
				topics[i] = Hash(ToBytes32(s.Stack.Pop()))
			}
			s.Logs = append(s.Logs, LogEntry{
				Address: s.Env.OwnerAddr,
				Topics:  topics,
				Data:    data,
			})
			return nil
		},
	}
}
