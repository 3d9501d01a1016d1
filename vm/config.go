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

// EvmConfig bundles the fork-selected policy flags, plus the fee schedule
// and revision they are derived from. A ProgramContext carries one
// EvmConfig for the whole call tree; child CREATE/CALL frames inherit it
// unchanged.
type EvmConfig struct {
	Revision    Revision
	FeeSchedule *FeeSchedule

	// MaxCodeSize bounds the size of code deployed by CREATE. Nil means
	// unbounded (pre-Spurious-Dragon).
	MaxCodeSize *int

	// SubGasCapDivisor enables the EIP-150 63/64 gas cap on gas forwarded to
	// CALL/CALLCODE/DELEGATECALL and CREATE.
	SubGasCapDivisor bool

	// ExceptionalFailedCodeDeposit makes a CREATE whose deposit gas exceeds
	// the gas actually available a hard failure (post-Homestead) rather
	// than a soft failure that still commits the child world and records
	// the new address with no code (pre-Homestead).
	ExceptionalFailedCodeDeposit bool

	// NoEmptyAccounts enables EIP-161's empty-account rule for the
	// G_newaccount surcharge on value-bearing CALL and SELFDESTRUCT: the
	// target counts as new when IsAccountDead (no code, zero nonce, zero
	// balance) rather than when it does not exist. It does not change how
	// World.Transfer creates or touches accounts.
	NoEmptyAccounts bool

	// ChargeSelfDestructForNewAccount charges G_newaccount on SELFDESTRUCT
	// when the beneficiary account would need to be created. Introduced by
	// EIP-150.
	ChargeSelfDestructForNewAccount bool
}

// FrontierConfig returns the EvmConfig for the original (Frontier)
// revision: no EIP-150 gas cap, no code-size limit, soft-failing CREATE
// deposit shortfalls, no empty-account pruning.
func FrontierConfig() *EvmConfig {
	return &EvmConfig{
		Revision:    Frontier,
		FeeSchedule: DefaultFeeSchedule(),
	}
}

// HomesteadConfig returns the EvmConfig for Homestead: as Frontier, except
// CREATE deposit-gas shortfalls are a hard failure, and DELEGATECALL is
// part of the opcode table.
func HomesteadConfig() *EvmConfig {
	cfg := FrontierConfig()
	cfg.Revision = Homestead
	cfg.ExceptionalFailedCodeDeposit = true
	return cfg
}

// TangerineWhistleConfig returns the EvmConfig for EIP-150: the repriced
// fee schedule, the 63/64 gas cap on forwarded gas, and the
// new-account surcharge on SELFDESTRUCT.
func TangerineWhistleConfig() *EvmConfig {
	cfg := HomesteadConfig()
	cfg.Revision = TangerineWhistle
	cfg.FeeSchedule = TangerineWhistleFeeSchedule()
	cfg.SubGasCapDivisor = true
	cfg.ChargeSelfDestructForNewAccount = true
	return cfg
}

// SpuriousDragonConfig returns the EvmConfig for EIP-158/161/684: empty
// account pruning, the create-collision guard and the 24576-byte code-size
// cap.
func SpuriousDragonConfig() *EvmConfig {
	cfg := TangerineWhistleConfig()
	cfg.Revision = SpuriousDragon
	cfg.NoEmptyAccounts = true
	maxCodeSize := 24576
	cfg.MaxCodeSize = &maxCodeSize
	return cfg
}

// GasCap applies the EIP-150 63/64 forwarding rule to the given available
// gas when SubGasCapDivisor is set, otherwise returns the gas unchanged.
func (c *EvmConfig) GasCap(available *Gas) *Gas {
	if !c.SubGasCapDivisor {
		return new(Gas).Set(available)
	}
	sixtyFour := NewGas(64)
	reserved := new(Gas).Quo(available, sixtyFour)
	return GasSub(available, reserved)
}
