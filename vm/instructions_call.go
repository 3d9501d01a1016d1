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
	register(RETURN, &Instruction{Delta: 2, Alpha: 0,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return ZeroGas() }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			off, sz, err := memOffsetSize(s.Stack.Peek(), s.Stack.PeekN(1))
			if err != nil {
				return nil, err
			}
			return CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), off, sz), nil
		},
		Execute: func(s *ProgramState) error {
			offset, size := s.Stack.Pop(), s.Stack.Pop()
			off, sz, err := memOffsetSize(offset, size)
			if err != nil {
				return err
			}
			s.ReturnData = s.Memory.Load(off, sz)
			s.halt()
			return nil
		},
	})

	register(SELFDESTRUCT, &Instruction{Delta: 1, Alpha: 0,
		ConstGas: func(cfg *EvmConfig) *Gas { return new(Gas).Set(cfg.FeeSchedule.GSelfDestruct) },
		VarGas: func(s *ProgramState) (*Gas, error) {
			if !s.Config.ChargeSelfDestructForNewAccount {
				return ZeroGas(), nil
			}
			beneficiary := WordToAddress(s.Stack.Peek())
			if selfDestructCreatesAccount(s, beneficiary) {
				return new(Gas).Set(s.Config.FeeSchedule.GNewAccount), nil
			}
			return ZeroGas(), nil
		},
		Execute: func(s *ProgramState) error {
			beneficiary := WordToAddress(s.Stack.Pop())
			balance := s.World.GetBalance(s.Env.OwnerAddr)
			if beneficiary != s.Env.OwnerAddr {
				s.World = s.World.Transfer(s.Env.OwnerAddr, beneficiary, balance)
			} else {
				// Self-beneficiary: the balance is burned with the account.
				s.World = s.World.RemoveAllEther(s.Env.OwnerAddr)
			}
			if _, scheduled := s.AddressesToDelete[s.Env.OwnerAddr]; !scheduled {
				s.refund(s.Config.FeeSchedule.RSelfDestruct)
			}
			s.AddressesToDelete[s.Env.OwnerAddr] = struct{}{}
			s.InternalTxs = append(s.InternalTxs, InternalTx{
				Kind: InternalSelfDestruct, From: s.Env.OwnerAddr, To: &beneficiary, Value: balance,
			})
			s.halt()
			return nil
		},
	})

	register(CREATE, &Instruction{Delta: 3, Alpha: 1,
		ConstGas: constGas(func(fs *FeeSchedule) *Gas { return fs.GCreate }),
		VarGas: func(s *ProgramState) (*Gas, error) {
			off, sz, err := memOffsetSize(s.Stack.PeekN(1), s.Stack.PeekN(2))
			if err != nil {
				return nil, err
			}
			return CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), off, sz), nil
		},
		Execute: executeCreate,
	})

	register(CALL, callInstruction(callKindCall))
	register(CALLCODE, callInstruction(callKindCallCode))
	register(DELEGATECALL, callInstruction(callKindDelegateCall))
}

// selfDestructCreatesAccount reports whether sending the dying account's
// balance to beneficiary would create a new account, which carries a
// G_newaccount surcharge once ChargeSelfDestructForNewAccount is on. The
// test for "new" depends on the empty-account rules in force: under EIP-161
// an account is new when the sender actually has funds to move and the
// beneficiary is dead; before it, whenever the beneficiary does not exist.
func selfDestructCreatesAccount(s *ProgramState, beneficiary Address) bool {
	if s.Config.NoEmptyAccounts {
		balance := s.World.GetBalance(s.Env.OwnerAddr)
		return !balance.IsZero() && s.World.IsAccountDead(beneficiary)
	}
	return !s.World.AccountExists(beneficiary)
}

// executeCreate implements CREATE: derive a fresh address, transfer the
// endowment, and run the initialisation code as a child frame whose return
// data becomes the deployed contract's code.
func executeCreate(s *ProgramState) error {
	value, offset, size := s.Stack.Pop(), s.Stack.Pop(), s.Stack.Pop()
	// value outlives later pushes (child env, InternalTx), so copy it out of
	// the stack slot.
	value = new(Word).Set(value)
	off, sz, err := memOffsetSize(offset, size)
	if err != nil {
		return err
	}
	initCode := s.Memory.Load(off, sz)

	pushZero := func() error {
		*s.Stack.PushUndefined() = *NewWord()
		return nil
	}

	// Depth and balance are checked before the creator's nonce is touched:
	// a call tree that is already too deep or an endowment the creator
	// cannot cover costs nothing beyond the gas already charged.
	if s.Env.CallDepth >= maxCallDepth {
		return pushZero()
	}
	if s.World.GetBalance(s.Env.OwnerAddr).Lt(value) {
		return pushZero()
	}

	s.flushStorage()
	addr, worldAfterNonce := s.World.CreateAddressWithOpCode(s.Env.OwnerAddr)

	// A create collision (the derived address already has code or a used
	// nonce) must burn the forwarded gas rather than deploy: the init code
	// is replaced with a single INVALID instruction so the child frame
	// aborts deterministically.
	if s.Config.Revision >= SpuriousDragon && s.World.NonEmptyCodeOrNonceAccount(addr) {
		initCode = []byte{byte(INVALID)}
	}

	childWorld := worldAfterNonce.InitialiseAccount(addr).Transfer(s.Env.OwnerAddr, addr, value)

	startGas := s.Config.GasCap(s.Gas)
	s.spendGas(startGas)

	childCtx := &ProgramContext{
		Env: ExecEnv{
			OwnerAddr:   addr,
			CallerAddr:  s.Env.OwnerAddr,
			OriginAddr:  s.Env.OriginAddr,
			CodeAddr:    addr,
			Value:       value,
			GasPrice:    s.Env.GasPrice,
			InputData:   nil,
			Program:     NewProgram(initCode),
			CallDepth:   s.Env.CallDepth + 1,
			BlockHeader: s.Env.BlockHeader,
			Keccak256:   s.Env.Keccak256,
		},
		World:  childWorld,
		Gas:    startGas,
		Config: s.Config,
	}
	result := Run(childCtx)

	hardFail := func() error {
		// The creator keeps its bumped nonce but every other effect of the
		// attempt is discarded, and the full startGas stays spent.
		s.World = worldAfterNonce
		s.absorbChild(result)
		s.reloadStorage()
		return pushZero()
	}

	if result.Err != nil {
		return hardFail()
	}

	deployCode := result.ReturnData
	if s.Config.MaxCodeSize != nil && len(deployCode) > *s.Config.MaxCodeSize {
		return hardFail()
	}

	depositCost := GasMul(s.Config.FeeSchedule.GCodeDeposit, NewGas(int64(len(deployCode))))
	if GasLess(result.GasRemaining, depositCost) {
		if s.Config.ExceptionalFailedCodeDeposit {
			return hardFail()
		}
		// Deposit shortfall under the lenient rule: the child's world is
		// kept and the address is live, but no code is stored and only the
		// gas the child actually used stays spent.
		s.adoptChild(result)
		s.Gas = GasAdd(s.Gas, result.GasRemaining)
		s.reloadStorage()
		*s.Stack.PushUndefined() = *AddressToWord(addr)
		return nil
	}

	s.adoptChild(result)
	s.Gas = GasAdd(s.Gas, GasSub(result.GasRemaining, depositCost))
	s.World = s.World.SaveCode(addr, deployCode)
	s.reloadStorage()
	s.InternalTxs = append(s.InternalTxs, InternalTx{
		Kind: InternalCreate, From: s.Env.OwnerAddr, To: nil, Gas: startGas, Input: initCode, Value: value,
	})
	*s.Stack.PushUndefined() = *AddressToWord(addr)
	return nil
}

type callKind int

const (
	callKindCall callKind = iota
	callKindCallCode
	callKindDelegateCall
)

// maxCallDepth bounds CREATE/CALL recursion.
const maxCallDepth = 1024

// callGasPlan is the complete gas breakdown of one call-family instruction,
// computed once from peeked operands and used both by the preflight charge
// and by the instruction body, so the two can never drift apart.
type callGasPlan struct {
	memCost *Gas // memory expansion over the combined in/out window
	extra   *Gas // G_call plus value-transfer and new-account surcharges
	forward *Gas // gas handed to the child, before the stipend
	stipend *Gas // free gas granted on a value-bearing call, never charged

	inOff, inSz   uint64
	outOff, outSz uint64
	value         *Word
	to            Address
}

// Charge is the amount the caller pays up front: the memory expansion, the
// fixed surcharges and the forwarded gas. The stipend is excluded, it is
// granted to the child on top of what the caller pays.
func (p *callGasPlan) Charge() *Gas {
	return GasAdd(GasAdd(p.memCost, p.extra), p.forward)
}

// StartGas is the gas the child frame begins with.
func (p *callGasPlan) StartGas() *Gas {
	return GasAdd(p.forward, p.stipend)
}

// planCallGas computes the callGasPlan for the call-family instruction at
// the top of s's stack without popping anything. The operand order is gas,
// to, [value], inOffset, inSize, outOffset, outSize, with DELEGATECALL
// omitting value (its effective value is inherited from the environment and
// carries no transfer surcharge).
func planCallGas(s *ProgramState, kind callKind) (*callGasPlan, error) {
	p := &callGasPlan{stipend: ZeroGas()}

	i := 0
	requested := GasFromWord(s.Stack.PeekN(i))
	i++
	p.to = WordToAddress(s.Stack.PeekN(i))
	i++
	if kind == callKindDelegateCall {
		p.value = NewWord()
	} else {
		p.value = new(Word).Set(s.Stack.PeekN(i))
		i++
	}
	var err error
	p.inOff, p.inSz, err = memOffsetSize(s.Stack.PeekN(i), s.Stack.PeekN(i+1))
	if err != nil {
		return nil, err
	}
	p.outOff, p.outSz, err = memOffsetSize(s.Stack.PeekN(i+2), s.Stack.PeekN(i+3))
	if err != nil {
		return nil, err
	}

	memOff, memSz := callMemoryWindow(p.inOff, p.inSz, p.outOff, p.outSz)
	p.memCost = CalcMemCost(s.Config.FeeSchedule, s.Memory.Words(), memOff, memSz)

	p.extra = new(Gas).Set(s.Config.FeeSchedule.GCall)
	if !p.value.IsZero() {
		p.extra = GasAdd(p.extra, s.Config.FeeSchedule.GCallValue)
		p.stipend = new(Gas).Set(s.Config.FeeSchedule.GCallStipend)
		if kind == callKindCall && callCreatesAccount(s, p.to) {
			p.extra = GasAdd(p.extra, s.Config.FeeSchedule.GNewAccount)
		}
	}

	// The requested gas is capped at the 63/64 rule only when the caller
	// can actually cover the fixed part of the charge; otherwise the
	// uncapped request is charged as-is and the preflight turns the
	// shortfall into an out-of-gas halt.
	p.forward = requested
	consumed := GasAdd(p.extra, p.memCost)
	if s.Config.SubGasCapDivisor && !GasLess(s.Gas, consumed) {
		capped := s.Config.GasCap(GasSub(s.Gas, consumed))
		if GasCmp(p.forward, capped) > 0 {
			p.forward = capped
		}
	}
	return p, nil
}

// callCreatesAccount reports whether a value-bearing CALL to addr would
// bring a new account into existence, per the empty-account rules in force.
func callCreatesAccount(s *ProgramState, addr Address) bool {
	if s.Config.NoEmptyAccounts {
		return s.World.IsAccountDead(addr)
	}
	return !s.World.AccountExists(addr)
}

// callMemoryWindow returns the single [offset, size) span covering both a
// call's input and output memory windows, since whichever is larger
// determines the expansion cost.
func callMemoryWindow(inOff, inSz, outOff, outSz uint64) (uint64, uint64) {
	inEnd, outEnd := inOff+inSz, outOff+outSz
	if inSz == 0 {
		inEnd = 0
	}
	if outSz == 0 {
		outEnd = 0
	}
	if outEnd > inEnd {
		return 0, outEnd
	}
	return 0, inEnd
}

// callInstruction builds the Instruction shared by CALL, CALLCODE and
// DELEGATECALL. They share a dispatch shape (pop a target address and a gas
// allowance, run the target's code as a child frame, splice its output into
// memory) and differ only in how the child's owner/caller/value are set up
// and whether a value transfer happens.
func callInstruction(kind callKind) *Instruction {
	delta := 7
	if kind == callKindDelegateCall {
		delta = 6
	}
	return &Instruction{Delta: delta, Alpha: 1,
		ConstGas: func(cfg *EvmConfig) *Gas { return ZeroGas() },
		VarGas: func(s *ProgramState) (*Gas, error) {
			plan, err := planCallGas(s, kind)
			if err != nil {
				return nil, err
			}
			s.callPlan = plan
			return plan.Charge(), nil
		},
		Execute: func(s *ProgramState) error { return executeCall(s, kind) },
	}
}

// executeCall runs the body shared by CALL, CALLCODE and DELEGATECALL once
// their full charge has already been deducted: set up the child's
// environment, run it, splice its return data into the caller's output
// window, and credit back whatever of the forwarded gas went unused.
func executeCall(s *ProgramState, kind callKind) error {
	// The preflight already charged plan.Charge(); picking its plan back up
	// keeps the forwarded gas and any refund of it consistent with what was
	// charged.
	plan := s.callPlan
	s.callPlan = nil
	operands := 7
	if kind == callKindDelegateCall {
		operands = 6
	}
	for i := 0; i < operands; i++ {
		s.Stack.Pop()
	}

	input := s.Memory.Load(plan.inOff, plan.inSz)
	s.Memory.Expand(plan.outOff, plan.outSz)

	value := plan.value
	if kind == callKindDelegateCall {
		value = s.Env.Value
	}

	if s.Env.CallDepth >= maxCallDepth ||
		(kind != callKindDelegateCall && s.World.GetBalance(s.Env.OwnerAddr).Lt(plan.value)) {
		// The call never starts: the forwarded gas is handed back and only
		// the fixed charge and memory expansion stay paid.
		s.Gas = GasAdd(s.Gas, plan.forward)
		*s.Stack.PushUndefined() = *NewWord()
		return nil
	}

	childOwner, childCaller := plan.to, s.Env.OwnerAddr
	switch kind {
	case callKindCallCode:
		childOwner = s.Env.OwnerAddr
	case callKindDelegateCall:
		childOwner = s.Env.OwnerAddr
		childCaller = s.Env.CallerAddr
	}

	s.flushStorage()
	childWorld := s.World
	if kind == callKindCall {
		childWorld = childWorld.Transfer(s.Env.OwnerAddr, plan.to, plan.value)
	}

	childCtx := &ProgramContext{
		Env: ExecEnv{
			OwnerAddr:   childOwner,
			CallerAddr:  childCaller,
			OriginAddr:  s.Env.OriginAddr,
			CodeAddr:    plan.to,
			Value:       value,
			GasPrice:    s.Env.GasPrice,
			InputData:   input,
			Program:     NewProgram(s.World.GetCode(plan.to)),
			CallDepth:   s.Env.CallDepth + 1,
			BlockHeader: s.Env.BlockHeader,
			Keccak256:   s.Env.Keccak256,
		},
		World:  childWorld,
		Gas:    plan.StartGas(),
		Config: s.Config,
	}
	result := Run(childCtx)

	if result.Err != nil {
		// The child's startGas is forfeit, but the accounts it touched are
		// still recorded for end-of-transaction pruning.
		s.absorbChild(result)
		s.reloadStorage()
		*s.Stack.PushUndefined() = *NewWord()
		return nil
	}

	copySize := plan.outSz
	if uint64(len(result.ReturnData)) < copySize {
		copySize = uint64(len(result.ReturnData))
	}
	if copySize > 0 {
		s.Memory.Store(plan.outOff, result.ReturnData[:copySize])
	}

	s.adoptChild(result)
	s.reloadStorage()
	s.Gas = GasAdd(s.Gas, result.GasRemaining)
	s.ReturnData = result.ReturnData
	s.InternalTxs = append(s.InternalTxs, InternalTx{
		Kind: callInternalKind(kind), From: s.Env.OwnerAddr, To: &plan.to, Gas: plan.StartGas(), Input: input, Value: value,
	})
	*s.Stack.PushUndefined() = *WordFromUint64(1)
	return nil
}

func callInternalKind(kind callKind) InternalTxKind {
	switch kind {
	case callKindCallCode:
		return InternalCallCode
	case callKindDelegateCall:
		return InternalDelegateCall
	default:
		return InternalCall
	}
}
