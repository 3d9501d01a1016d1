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

// Instruction is the static description of one opcode's behavior: its
// stack signature (Delta consumed, Alpha produced), its gas cost function,
// and the semantic body that performs it. The interpreter's step loop
// looks an Instruction up by opcode byte, runs the shared preflight checks
// (stack depth, gas), and only then calls Execute — no instruction body is
// responsible for re-checking what the driver already guarantees.
type Instruction struct {
	// Delta is the number of stack items this instruction pops.
	Delta int
	// Alpha is the number of stack items this instruction pushes.
	Alpha int

	// ConstGas returns the opcode's fixed base cost under the given fork
	// configuration. Never nil.
	ConstGas func(cfg *EvmConfig) *Gas

	// VarGas returns the opcode's data-dependent additional cost (memory
	// expansion, byte-copy cost, storage-slot state, and so on) by inspecting
	// s before any stack items are popped or gas is spent. May be nil for
	// instructions with no variable component.
	VarGas func(s *ProgramState) (*Gas, error)

	// Execute performs the instruction's semantics: popping Delta items,
	// pushing Alpha items, and touching memory/storage/world/pc as needed.
	// It runs only after the preflight stack and gas checks have passed and
	// the combined cost has already been deducted from s.Gas.
	Execute func(s *ProgramState) error

	// SetsPC is true for instructions (PUSHn, JUMP, JUMPI) that advance the
	// program counter themselves; for everything else the driver advances
	// pc by exactly one after Execute returns.
	SetsPC bool
}

// opTable is the opcode dispatch table, populated by each
// instructions_*.go file's init() function. A nil entry means the byte is
// not a recognized opcode and decodes to ErrInvalidOpCode.
var opTable [256]*Instruction

func register(op OpCode, instr *Instruction) {
	if opTable[op] != nil {
		panic("vm: duplicate registration for opcode " + op.String())
	}
	opTable[op] = instr
}

// constGas returns a ConstGas function that reads the opcode's base price
// from the configuration's fee schedule. The amount therefore follows the
// fork's table (e.g. BALANCE, EXTCODE* and SLOAD cost more under
// TangerineWhistleFeeSchedule).
func constGas(amount func(fs *FeeSchedule) *Gas) func(cfg *EvmConfig) *Gas {
	return func(cfg *EvmConfig) *Gas { return amount(cfg.FeeSchedule) }
}
