// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package testworld

import (
	"bytes"
	"testing"

	"github.com/arukavytsia/gevm/vm"
)

var (
	addrA = vm.Address{0x0a}
	addrB = vm.Address{0x0b}
)

func TestWorld_AbsentAccount_ReadsAsEmpty(t *testing.T) {
	w := New()
	if !w.GetBalance(addrA).IsZero() {
		t.Errorf("absent account has balance %v", w.GetBalance(addrA))
	}
	if len(w.GetCode(addrA)) != 0 {
		t.Errorf("absent account has code")
	}
	if w.AccountExists(addrA) {
		t.Errorf("absent account exists")
	}
	if !w.IsAccountDead(addrA) {
		t.Errorf("absent account is not dead")
	}
}

func TestWorld_Transfer_MovesBalanceWithoutMutatingParent(t *testing.T) {
	w := New().WithAccount(addrA, vm.WordFromUint64(100), nil)
	next := w.Transfer(addrA, addrB, vm.WordFromUint64(30))

	if want, got := uint64(70), next.GetBalance(addrA).Uint64(); want != got {
		t.Errorf("sender balance = %d, want %d", got, want)
	}
	if want, got := uint64(30), next.GetBalance(addrB).Uint64(); want != got {
		t.Errorf("receiver balance = %d, want %d", got, want)
	}
	// The pre-transfer snapshot is untouched.
	if want, got := uint64(100), w.GetBalance(addrA).Uint64(); want != got {
		t.Errorf("parent snapshot balance = %d, want %d", got, want)
	}
}

func TestWorld_CreateAddressWithOpCode_BumpsNonceAndIsDeterministic(t *testing.T) {
	w := New().WithAccount(addrA, vm.NewWord(), nil)

	first, afterFirst := w.CreateAddressWithOpCode(addrA)
	again, _ := w.CreateAddressWithOpCode(addrA)
	if first != again {
		t.Errorf("same creator and nonce derived different addresses: %v vs %v", first, again)
	}
	if want, got := uint64(1), afterFirst.(*World).GetNonce(addrA); want != got {
		t.Errorf("creator nonce = %d, want %d", got, want)
	}

	second, _ := afterFirst.(*World).CreateAddressWithOpCode(addrA)
	if first == second {
		t.Errorf("consecutive nonces derived the same address")
	}
}

func TestWorld_DeadAccountDefinition(t *testing.T) {
	w := New().
		WithAccount(addrA, vm.NewWord(), nil).          // empty: dead
		WithAccount(addrB, vm.WordFromUint64(1), nil)   // funded: alive

	if !w.IsAccountDead(addrA) {
		t.Errorf("empty account not dead")
	}
	if w.IsAccountDead(addrB) {
		t.Errorf("funded account dead")
	}
	if w.WithNonce(addrA, 1).IsAccountDead(addrA) {
		t.Errorf("account with nonce dead")
	}
	if w.WithAccount(addrA, vm.NewWord(), []byte{0x00}).IsAccountDead(addrA) {
		t.Errorf("account with code dead")
	}
}

func TestWorld_NonEmptyCodeOrNonceAccount(t *testing.T) {
	w := New().WithAccount(addrA, vm.WordFromUint64(5), nil)
	if w.NonEmptyCodeOrNonceAccount(addrA) {
		t.Errorf("balance alone must not count as code or nonce")
	}
	if !w.WithNonce(addrA, 1).NonEmptyCodeOrNonceAccount(addrA) {
		t.Errorf("nonce not detected")
	}
	if !w.WithAccount(addrA, vm.NewWord(), []byte{0x00}).NonEmptyCodeOrNonceAccount(addrA) {
		t.Errorf("code not detected")
	}
}

func TestWorld_SaveCode_RoundTrips(t *testing.T) {
	code := []byte{0x60, 0x00}
	w := New().SaveCode(addrA, code)
	if !bytes.Equal(code, w.GetCode(addrA)) {
		t.Errorf("GetCode = %x, want %x", w.GetCode(addrA), code)
	}
}

func TestStorage_Store_IsImmutable(t *testing.T) {
	key := vm.WordFromUint64(1)
	empty := NewStorage()
	written := empty.Store(key, vm.WordFromUint64(7))

	if !empty.Load(key).IsZero() {
		t.Errorf("write leaked into the parent storage")
	}
	if want, got := uint64(7), written.Load(key).Uint64(); want != got {
		t.Errorf("stored value = %d, want %d", got, want)
	}
}

func TestStorage_ColdKey_ReadsZero(t *testing.T) {
	if !NewStorage().Load(vm.WordFromUint64(99)).IsZero() {
		t.Errorf("cold key read nonzero")
	}
}

func TestWorld_CombineTouchedAccounts_MergesTouchSets(t *testing.T) {
	w := New().WithAccount(addrA, vm.NewWord(), nil)
	other := New().WithAccount(addrB, vm.NewWord(), nil)

	merged := w.CombineTouchedAccounts(other).(*World)
	if !merged.Touched(addrA) || !merged.Touched(addrB) {
		t.Errorf("merged world lost a touched account")
	}
	// The merge must not pull the other world's account state across.
	if merged.AccountExists(addrB) {
		t.Errorf("merge copied account state, not just the touch set")
	}
}
