// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package testworld provides an in-memory implementation of the vm.World
// and vm.Storage interfaces, for tests and for driving the interpreter
// standalone. Every mutating method returns a new value sharing unmodified
// accounts with its parent, so a caller can hold a pre-call snapshot and a
// post-call result side by side the way the interpreter's CREATE/CALL
// handling requires.
package testworld

import (
	"encoding/binary"

	"github.com/arukavytsia/gevm/vm"
)

// account is one account's full state.
type account struct {
	balance *vm.Word
	nonce   uint64
	code    []byte
	storage *Storage
}

func (a *account) clone() *account {
	return &account{
		balance: new(vm.Word).Set(a.balance),
		nonce:   a.nonce,
		code:    a.code,
		storage: a.storage,
	}
}

// Storage is an immutable in-memory key/value store; Store returns a copy
// with the write applied. A missing key reads as zero.
type Storage struct {
	slots map[vm.Hash]*vm.Word
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{slots: map[vm.Hash]*vm.Word{}}
}

// Load returns the value stored under key, or zero for a cold key.
func (s *Storage) Load(key *vm.Word) *vm.Word {
	if v, ok := s.slots[vm.Hash(vm.ToBytes32(key))]; ok {
		return new(vm.Word).Set(v)
	}
	return vm.NewWord()
}

// Store returns a Storage with value written under key.
func (s *Storage) Store(key, value *vm.Word) vm.Storage {
	slots := make(map[vm.Hash]*vm.Word, len(s.slots)+1)
	for k, v := range s.slots {
		slots[k] = v
	}
	slots[vm.Hash(vm.ToBytes32(key))] = new(vm.Word).Set(value)
	return &Storage{slots: slots}
}

// Len returns the number of occupied slots.
func (s *Storage) Len() int { return len(s.slots) }

// World is the in-memory account state. The zero value is not usable; start
// from New.
type World struct {
	accounts map[vm.Address]*account
	touched  map[vm.Address]struct{}

	blockHashes map[int64]vm.Hash
}

// New returns an empty World.
func New() *World {
	return &World{
		accounts:    map[vm.Address]*account{},
		touched:     map[vm.Address]struct{}{},
		blockHashes: map[int64]vm.Hash{},
	}
}

func (w *World) clone() *World {
	accounts := make(map[vm.Address]*account, len(w.accounts))
	for a, acc := range w.accounts {
		accounts[a] = acc
	}
	touched := make(map[vm.Address]struct{}, len(w.touched))
	for a := range w.touched {
		touched[a] = struct{}{}
	}
	return &World{accounts: accounts, touched: touched, blockHashes: w.blockHashes}
}

// account returns addr's account for reading, or nil if absent.
func (w *World) account(addr vm.Address) *account {
	return w.accounts[addr]
}

// mutate clones w, applies f to a fresh copy of addr's account (created
// empty if absent), and returns the clone.
func (w *World) mutate(addr vm.Address, f func(*account)) *World {
	next := w.clone()
	acc := next.accounts[addr]
	if acc == nil {
		acc = &account{balance: vm.NewWord(), storage: NewStorage()}
	} else {
		acc = acc.clone()
	}
	f(acc)
	next.accounts[addr] = acc
	next.touched[addr] = struct{}{}
	return next
}

// WithAccount returns a World that additionally holds an account with the
// given balance and code at addr.
func (w *World) WithAccount(addr vm.Address, balance *vm.Word, code []byte) *World {
	return w.mutate(addr, func(a *account) {
		a.balance = new(vm.Word).Set(balance)
		a.code = code
	})
}

// WithNonce returns a World with addr's nonce set to nonce.
func (w *World) WithNonce(addr vm.Address, nonce uint64) *World {
	return w.mutate(addr, func(a *account) { a.nonce = nonce })
}

// WithBlockHash returns a World that answers GetBlockHash(number) with hash.
// Block hashes are shared, not copied, across derived Worlds.
func (w *World) WithBlockHash(number int64, hash vm.Hash) *World {
	w.blockHashes[number] = hash
	return w
}

// GetNonce returns addr's nonce, zero for an absent account.
func (w *World) GetNonce(addr vm.Address) uint64 {
	if acc := w.account(addr); acc != nil {
		return acc.nonce
	}
	return 0
}

func (w *World) GetBalance(addr vm.Address) *vm.Word {
	if acc := w.account(addr); acc != nil {
		return new(vm.Word).Set(acc.balance)
	}
	return vm.NewWord()
}

func (w *World) GetCode(addr vm.Address) []byte {
	if acc := w.account(addr); acc != nil {
		return acc.code
	}
	return nil
}

func (w *World) GetStorage(addr vm.Address) vm.Storage {
	if acc := w.account(addr); acc != nil && acc.storage != nil {
		return acc.storage
	}
	return NewStorage()
}

func (w *World) GetBlockHash(number int64) (vm.Hash, bool) {
	h, ok := w.blockHashes[number]
	return h, ok
}

func (w *World) AccountExists(addr vm.Address) bool {
	return w.account(addr) != nil
}

func (w *World) IsAccountDead(addr vm.Address) bool {
	acc := w.account(addr)
	if acc == nil {
		return true
	}
	return len(acc.code) == 0 && acc.nonce == 0 && acc.balance.IsZero()
}

func (w *World) NonEmptyCodeOrNonceAccount(addr vm.Address) bool {
	acc := w.account(addr)
	if acc == nil {
		return false
	}
	return len(acc.code) > 0 || acc.nonce != 0
}

func (w *World) Transfer(from, to vm.Address, value *vm.Word) vm.World {
	next := w.mutate(from, func(a *account) {
		a.balance = new(vm.Word).Sub(a.balance, value)
	})
	return next.mutate(to, func(a *account) {
		a.balance = new(vm.Word).Add(a.balance, value)
	})
}

func (w *World) RemoveAllEther(addr vm.Address) vm.World {
	return w.mutate(addr, func(a *account) { a.balance = vm.NewWord() })
}

func (w *World) InitialiseAccount(addr vm.Address) vm.World {
	return w.mutate(addr, func(a *account) {})
}

// CreateAddressWithOpCode derives the CREATE target address from the
// creator's address and current nonce, then bumps the nonce: the low 20
// bytes of Keccak256(creator ‖ nonce).
func (w *World) CreateAddressWithOpCode(creator vm.Address) (vm.Address, vm.World) {
	nonce := w.GetNonce(creator)

	var preimage [28]byte
	copy(preimage[:20], creator[:])
	binary.BigEndian.PutUint64(preimage[20:], nonce)
	hash := vm.Keccak256(preimage[:])

	var addr vm.Address
	copy(addr[:], hash[12:])

	next := w.mutate(creator, func(a *account) { a.nonce = nonce + 1 })
	return addr, next
}

func (w *World) SaveCode(addr vm.Address, code []byte) vm.World {
	return w.mutate(addr, func(a *account) { a.code = code })
}

func (w *World) SetStorage(addr vm.Address, storage vm.Storage) vm.World {
	s, ok := storage.(*Storage)
	if !ok {
		s = NewStorage()
	}
	return w.mutate(addr, func(a *account) { a.storage = s })
}

func (w *World) CombineTouchedAccounts(other vm.World) vm.World {
	o, ok := other.(*World)
	if !ok {
		return w
	}
	next := w.clone()
	for addr := range o.touched {
		next.touched[addr] = struct{}{}
	}
	return next
}

// Touched reports whether addr was touched by any state access on this
// World or one merged into it.
func (w *World) Touched(addr vm.Address) bool {
	_, ok := w.touched[addr]
	return ok
}
