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

import "math"

func init() {
	register(JUMP, &Instruction{Delta: 1, Alpha: 0, SetsPC: true,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GMid }),
		Execute: func(s *ProgramState) error {
			dest := s.Stack.Pop()
			return jumpTo(s, dest)
		},
	})

	register(JUMPI, &Instruction{Delta: 2, Alpha: 0, SetsPC: true,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GHigh }),
		Execute: func(s *ProgramState) error {
			dest, cond := s.Stack.Pop(), s.Stack.Pop()
			if cond.IsZero() {
				s.PC++
				return nil
			}
			return jumpTo(s, dest)
		},
	})
}

// jumpTo validates dest as a JUMPDEST in the running program and, if valid,
// sets pc to it. A destination that does not fit in a 32-bit int or is not
// a recorded JUMPDEST halts the frame with an invalid-jump error.
func jumpTo(s *ProgramState, dest *Word) error {
	if !dest.IsUint64() || dest.Uint64() > math.MaxInt32 {
		return ErrInvalidJump{Position: -1}
	}
	pos := int(dest.Uint64())
	if !s.Env.Program.IsValidJumpDest(pos) {
		return ErrInvalidJump{Position: pos}
	}
	s.PC = pos
	return nil
}
