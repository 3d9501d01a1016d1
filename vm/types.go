// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package vm implements a deterministic, gas-metered, stack-based Ethereum
// Virtual Machine interpreter: the fetch-decode-execute loop, its gas
// schedule and memory cost function, and the CREATE/CALL recursion that
// turns contract bytecode plus a world state into a new world state and a
// set of side effects.
//
// The package does not know how accounts are persisted, how blocks are
// sourced, or how transactions are assembled; those concerns are reached
// through the World, Storage and BlockHeader types defined here.
package vm

import "fmt"

// Address is the 160-bit (20 byte) address of an account.
type Address [20]byte

// Hash is a 256-bit (32 byte) cryptographic hash: of code, of a block, or of
// a log topic.
type Hash [32]byte

func (a Address) String() string { return fmt.Sprintf("0x%x", a[:]) }
func (h Hash) String() string    { return fmt.Sprintf("0x%x", h[:]) }

// ConstError is a comparable, declare-as-a-constant error type, used for the
// package's sentinel errors so callers can compare with ==.
type ConstError string

func (e ConstError) Error() string { return string(e) }

// AddressToWord left-pads a as the low 20 bytes of a 256-bit word, the
// representation an address takes on the stack (ADDRESS, CALLER, ORIGIN,
// COINBASE, and so on).
func AddressToWord(a Address) *Word {
	var buf [32]byte
	copy(buf[12:], a[:])
	return WordFromBytes32(buf)
}

// WordToAddress truncates w to its low 20 bytes, the inverse of
// AddressToWord, used by CALL-family opcodes reading an address operand off
// the stack.
func WordToAddress(w *Word) Address {
	raw := ToBytes32(w)
	var a Address
	copy(a[:], raw[12:])
	return a
}
