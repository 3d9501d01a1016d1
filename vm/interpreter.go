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

// Run drives one call frame to completion: it builds a fresh ProgramState
// from ctx and steps it until it halts, either because an instruction
// signaled STOP/RETURN/SELFDESTRUCT, execution ran off the end of the
// code, or a terminal error (stack under/overflow, out of gas, invalid
// jump, invalid opcode) stopped it short. CREATE/CALL/CALLCODE/
// DELEGATECALL recurse back into Run for their child frame from within
// their own Execute bodies, so the call tree is plain Go call recursion
// bounded by maxCallDepth.
func Run(ctx *ProgramContext) *ProgramResult {
	s := NewProgramState(ctx)
	for !s.Halted {
		step(s)
	}
	result := s.Result()
	ReturnStack(s.Stack)
	return result
}

// step decodes and executes exactly one instruction: looks it up by
// opcode, runs the shared stack-depth and gas preflight checks, deducts
// the combined cost, executes its semantic body, and advances pc — unless
// the instruction halted the frame or claims responsibility for pc itself.
func step(s *ProgramState) {
	op := s.Env.Program.OpCodeAt(s.PC)
	instr := opTable[op]
	if instr == nil || (op == DELEGATECALL && s.Config.Revision < Homestead) {
		s.fail(ErrInvalidOpCode{OpCode: byte(op)})
		return
	}

	if s.Stack.Len() < instr.Delta {
		s.fail(ErrStackUnderflow)
		return
	}
	if s.Stack.Len()-instr.Delta+instr.Alpha > maxStackSize {
		s.fail(ErrStackOverflow)
		return
	}

	cost := instr.ConstGas(s.Config)
	if instr.VarGas != nil {
		varCost, err := instr.VarGas(s)
		if err != nil {
			s.fail(err)
			return
		}
		cost = GasAdd(cost, varCost)
	}
	if GasLess(s.Gas, cost) {
		s.fail(ErrOutOfGas)
		return
	}
	s.spendGas(cost)

	if err := instr.Execute(s); err != nil {
		s.fail(err)
		return
	}
	if s.Halted {
		return
	}
	if !instr.SetsPC {
		s.PC++
	}
}
