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

// ProgramState is the full mutable state of one call frame as it is
// stepped by the interpreter: the operand stack, memory, program counter,
// remaining gas and refund counter, the executing account's storage view,
// the world state, this frame's environment, and the accumulated side
// effects (logs, internal txs, addresses marked for deletion) it will hand
// back in a ProgramResult once it halts.
//
// A ProgramState is built fresh for every CREATE/CALL/CALLCODE/
// DELEGATECALL frame; nothing here is shared between frames except through
// the explicit World handoff at a child's return.
type ProgramState struct {
	Stack  *Stack
	Memory *Memory

	PC int

	Gas       *Gas
	GasRefund *Gas

	Storage Storage
	World   World

	ReturnData []byte

	Env    ExecEnv
	Config *EvmConfig

	Logs              []LogEntry
	InternalTxs       []InternalTx
	AddressesToDelete map[Address]struct{}

	Halted bool
	Err    error

	// callPlan carries the gas plan a call-family preflight computed over
	// to the instruction body within the same step. The cap depends on the
	// gas available before the charge is deducted, so the body must reuse
	// the preflight's plan rather than recompute it.
	callPlan *callGasPlan
}

// NewProgramState builds the initial frame state for ctx: an empty stack
// and memory, pc = 0, the frame's starting gas, a zero refund counter, and
// the executing account's storage view drawn from ctx.World.
func NewProgramState(ctx *ProgramContext) *ProgramState {
	return &ProgramState{
		Stack:             NewStack(),
		Memory:            NewMemory(),
		PC:                0,
		Gas:               new(Gas).Set(ctx.Gas),
		GasRefund:         ZeroGas(),
		Storage:           ctx.World.GetStorage(ctx.Env.OwnerAddr),
		World:             ctx.World,
		Env:               ctx.Env,
		Config:            ctx.Config,
		AddressesToDelete: make(map[Address]struct{}),
	}
}

// fail records a terminal error and halts the frame. A failed frame
// forfeits all of its remaining gas, and the caller discards its World.
// The internal uint64-overflow sentinel surfaces as out-of-gas here: an
// offset too large for a uint64 is unaffordable under any gas schedule.
func (s *ProgramState) fail(err error) {
	if err == errGasUintOverflow {
		err = ErrOutOfGas
	}
	s.Err = err
	s.Gas = ZeroGas()
	s.Halted = true
}

// halt stops the frame without an error (STOP/RETURN/implicit end-of-code
// or SELFDESTRUCT), keeping whatever World/gas/output it has produced.
func (s *ProgramState) halt() {
	s.Halted = true
}

// spendGas deducts cost from the frame's remaining gas. It assumes the
// caller has already checked cost does not exceed the available gas — the
// interpreter's preflight check is solely responsible for turning an
// insufficient-gas condition into ErrOutOfGas.
func (s *ProgramState) spendGas(cost *Gas) {
	s.Gas = GasSub(s.Gas, cost)
}

// refund adds delta to the frame's refund counter. Its callers (SSTORE's
// R_sclear, SELFDESTRUCT's R_selfdestruct, a child frame's merged refund)
// only ever add.
func (s *ProgramState) refund(delta *Gas) {
	s.GasRefund = GasAdd(s.GasRefund, delta)
}

// adoptChild merges a successfully completed child frame's world, deleted
// addresses, logs, internal transactions and refund counter into s. Only
// call this when the child returned with a nil Err — a failed child's
// world is discarded entirely by the caller instead (see absorbChild).
func (s *ProgramState) adoptChild(result *ProgramResult) {
	s.World = result.World
	for addr := range result.AddressesToDelete {
		s.AddressesToDelete[addr] = struct{}{}
	}
	s.Logs = append(s.Logs, result.Logs...)
	s.InternalTxs = append(s.InternalTxs, result.InternalTxs...)
	s.refund(result.GasRefund)
}

// absorbChild merges only the touched-account bookkeeping of a failed
// child frame into s, discarding every other side effect — a reverted
// child's balance/storage/code writes, logs and self-destructs never
// happened, but EIP-161 still needs to know which accounts it looked at so
// they remain eligible for end-of-transaction pruning.
func (s *ProgramState) absorbChild(result *ProgramResult) {
	if result.World != nil {
		s.World = s.World.CombineTouchedAccounts(result.World)
	}
}

// flushStorage commits the frame's accumulated storage writes into its
// World. Called before handing the World to a child frame, so a child
// running against the same account (CALLCODE/DELEGATECALL, or a call back
// into the owner) observes them.
func (s *ProgramState) flushStorage() {
	s.World = s.World.SetStorage(s.Env.OwnerAddr, s.Storage)
}

// reloadStorage re-reads the frame's storage view from its World after a
// child frame's World has been adopted or discarded, so later SLOADs see
// the child's committed writes rather than a stale pre-call view.
func (s *ProgramState) reloadStorage() {
	s.Storage = s.World.GetStorage(s.Env.OwnerAddr)
}

// Result packages the frame's final state into a ProgramResult once the
// driver loop has stopped stepping it.
func (s *ProgramState) Result() *ProgramResult {
	s.World = s.World.SetStorage(s.Env.OwnerAddr, s.Storage)
	return &ProgramResult{
		ReturnData:        s.ReturnData,
		GasRemaining:      new(Gas).Set(s.Gas),
		GasRefund:         new(Gas).Set(s.GasRefund),
		World:             s.World,
		AddressesToDelete: s.AddressesToDelete,
		Logs:              s.Logs,
		InternalTxs:       s.InternalTxs,
		Err:               s.Err,
	}
}
