// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vm_test

import (
	"bytes"
	"testing"

	"github.com/arukavytsia/gevm/vm"
	"github.com/arukavytsia/gevm/vm/testworld"
)

var (
	ownerAddr  = vm.Address{0xaa}
	callerAddr = vm.Address{0xbb}
	calleeAddr = vm.Address{0xcc}
)

// newContext assembles a ProgramContext for code running at ownerAddr
// against world, with sensible defaults tests can override on the returned
// value.
func newContext(world vm.World, code []byte, gas int64, cfg *vm.EvmConfig) *vm.ProgramContext {
	return &vm.ProgramContext{
		Env: vm.ExecEnv{
			OwnerAddr:  ownerAddr,
			CallerAddr: callerAddr,
			OriginAddr: callerAddr,
			Value:      vm.NewWord(),
			GasPrice:   vm.WordFromUint64(1),
			Program:    vm.NewProgram(code),
			BlockHeader: vm.BlockHeader{
				Coinbase:   vm.Address{0xee},
				Timestamp:  1_500_000_000,
				Number:     100,
				Difficulty: vm.WordFromUint64(1 << 20),
				GasLimit:   vm.NewGas(8_000_000),
			},
			Keccak256: vm.Keccak256,
		},
		World:  world,
		Gas:    vm.NewGas(gas),
		Config: cfg,
	}
}

// push20 emits a PUSH20 of the given address.
func push20(addr vm.Address) []byte {
	return append([]byte{byte(vm.PUSH20)}, addr[:]...)
}

// returnMemoryWord emits code returning memory[0:32].
func returnMemoryWord() []byte {
	return []byte{
		byte(vm.PUSH1), 0x20, byte(vm.PUSH1), 0x00, byte(vm.RETURN),
	}
}

func TestRun_Sstore_CommitsThroughResultWorld(t *testing.T) {
	code := []byte{
		byte(vm.PUSH1), 0x2a, byte(vm.PUSH1), 0x01, byte(vm.SSTORE), byte(vm.STOP),
	}
	world := testworld.New().WithAccount(ownerAddr, vm.NewWord(), code)

	result := vm.Run(newContext(world, code, 100_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	stored := result.World.GetStorage(ownerAddr).Load(vm.WordFromUint64(1))
	if want, got := uint64(0x2a), stored.Uint64(); want != got {
		t.Errorf("storage[1] = %d, want %d", got, want)
	}
	// Two pushes plus the zero-to-nonzero store.
	if want, got := vm.NewGas(100_000-3-3-20_000), result.GasRemaining; vm.GasCmp(want, got) != 0 {
		t.Errorf("remaining gas = %v, want %v", got, want)
	}
}

func TestRun_SstoreClear_AddsRefund(t *testing.T) {
	code := []byte{
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x01, byte(vm.SSTORE), byte(vm.STOP),
	}
	storage := testworld.NewStorage().Store(vm.WordFromUint64(1), vm.WordFromUint64(7))
	world := testworld.New().
		WithAccount(ownerAddr, vm.NewWord(), code).
		SetStorage(ownerAddr, storage).(*testworld.World)

	result := vm.Run(newContext(world, code, 100_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if want, got := vm.NewGas(15_000), result.GasRefund; vm.GasCmp(want, got) != 0 {
		t.Errorf("refund = %v, want %v", got, want)
	}
	// Nonzero-to-zero pays the reset price, not the set price.
	if want, got := vm.NewGas(100_000-3-3-5_000), result.GasRemaining; vm.GasCmp(want, got) != 0 {
		t.Errorf("remaining gas = %v, want %v", got, want)
	}
	if !result.World.GetStorage(ownerAddr).Load(vm.WordFromUint64(1)).IsZero() {
		t.Errorf("storage[1] not cleared")
	}
}

func TestRun_Log1_RecordsTopicAndData(t *testing.T) {
	code := []byte{
		byte(vm.PUSH1), 0x2a, byte(vm.PUSH1), 0x00, byte(vm.MSTORE),
		byte(vm.PUSH1), 0x07, // topic
		byte(vm.PUSH1), 0x20, byte(vm.PUSH1), 0x00, // size, offset
		byte(vm.LOG1), byte(vm.STOP),
	}
	world := testworld.New().WithAccount(ownerAddr, vm.NewWord(), code)

	result := vm.Run(newContext(world, code, 100_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(result.Logs))
	}
	log := result.Logs[0]
	if log.Address != ownerAddr {
		t.Errorf("log address = %v, want %v", log.Address, ownerAddr)
	}
	if len(log.Topics) != 1 || log.Topics[0][31] != 0x07 {
		t.Errorf("log topics = %v, want single topic 7", log.Topics)
	}
	if len(log.Data) != 32 || log.Data[31] != 0x2a {
		t.Errorf("log data = %x, want 42 in the low byte of one word", log.Data)
	}
}

func TestRun_Blockhash_ReadsRecentBlock(t *testing.T) {
	hash := vm.Hash{0x11, 0x22, 0x33}
	code := append([]byte{
		byte(vm.PUSH1), 99, byte(vm.BLOCKHASH),
		byte(vm.PUSH1), 0x00, byte(vm.MSTORE),
	}, returnMemoryWord()...)
	world := testworld.New().
		WithAccount(ownerAddr, vm.NewWord(), code).
		WithBlockHash(99, hash)

	result := vm.Run(newContext(world, code, 100_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !bytes.Equal(result.ReturnData, hash[:]) {
		t.Errorf("BLOCKHASH(99) = %x, want %x", result.ReturnData, hash[:])
	}
}

func TestRun_Call_SplicesCalleeOutputAndCommits(t *testing.T) {
	calleeCode := append([]byte{
		byte(vm.PUSH1), 0x07, byte(vm.PUSH1), 0x00, byte(vm.MSTORE),
	}, returnMemoryWord()...)

	callerCode := []byte{
		byte(vm.PUSH1), 0x20, // outSize
		byte(vm.PUSH1), 0x00, // outOffset
		byte(vm.PUSH1), 0x00, // inSize
		byte(vm.PUSH1), 0x00, // inOffset
		byte(vm.PUSH1), 0x00, // value
	}
	callerCode = append(callerCode, push20(calleeAddr)...)
	callerCode = append(callerCode, byte(vm.PUSH2), 0xff, 0xff, byte(vm.CALL))
	callerCode = append(callerCode, returnMemoryWord()...)

	world := testworld.New().
		WithAccount(ownerAddr, vm.WordFromUint64(1000), callerCode).
		WithAccount(calleeAddr, vm.NewWord(), calleeCode)

	result := vm.Run(newContext(world, callerCode, 200_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.ReturnData) != 32 || result.ReturnData[31] != 0x07 {
		t.Errorf("spliced output = %x, want callee's 7", result.ReturnData)
	}
	if len(result.InternalTxs) != 1 || result.InternalTxs[0].Kind != vm.InternalCall {
		t.Fatalf("internal txs = %v, want one CALL", result.InternalTxs)
	}
	if to := result.InternalTxs[0].To; to == nil || *to != calleeAddr {
		t.Errorf("internal tx target = %v, want %v", to, calleeAddr)
	}
}

func TestRun_CallWithValue_TransfersBalance(t *testing.T) {
	callerCode := []byte{
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x64, // value = 100
	}
	callerCode = append(callerCode, push20(calleeAddr)...)
	callerCode = append(callerCode, byte(vm.PUSH2), 0xff, 0xff, byte(vm.CALL), byte(vm.STOP))

	world := testworld.New().WithAccount(ownerAddr, vm.WordFromUint64(1000), callerCode)

	result := vm.Run(newContext(world, callerCode, 200_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if want, got := uint64(100), result.World.GetBalance(calleeAddr).Uint64(); want != got {
		t.Errorf("callee balance = %d, want %d", got, want)
	}
	if want, got := uint64(900), result.World.GetBalance(ownerAddr).Uint64(); want != got {
		t.Errorf("caller balance = %d, want %d", got, want)
	}
}

func TestRun_CallWithInsufficientBalance_PushesZeroAndRefundsForwardedGas(t *testing.T) {
	callerCode := []byte{
		byte(vm.PUSH1), 0x20, // outSize
		byte(vm.PUSH1), 0x00, // outOffset
		byte(vm.PUSH1), 0x00, // inSize
		byte(vm.PUSH1), 0x00, // inOffset
		byte(vm.PUSH1), 0x01, // value the caller cannot cover
	}
	callerCode = append(callerCode, push20(calleeAddr)...)
	callerCode = append(callerCode, byte(vm.PUSH2), 0x03, 0xe8, byte(vm.CALL), byte(vm.STOP))

	world := testworld.New().WithAccount(ownerAddr, vm.NewWord(), callerCode)

	result := vm.Run(newContext(world, callerCode, 100_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	// Seven pushes, then the call's fixed charge: G_call (40) plus the
	// value surcharge (9000) plus the new-account surcharge (25000) plus
	// one word of output memory (3). The forwarded 1000 comes back.
	spent := int64(7*3 + 40 + 9000 + 25000 + 3)
	if want, got := vm.NewGas(100_000-spent), result.GasRemaining; vm.GasCmp(want, got) != 0 {
		t.Errorf("remaining gas = %v, want %v", got, want)
	}
	if len(result.InternalTxs) != 0 {
		t.Errorf("internal txs = %v, want none for a call that never starts", result.InternalTxs)
	}
	if !result.World.GetBalance(calleeAddr).IsZero() {
		t.Errorf("callee balance changed on a failed call")
	}
}

func TestRun_CallAtDepthLimit_PushesZero(t *testing.T) {
	callerCode := []byte{
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00,
	}
	callerCode = append(callerCode, push20(calleeAddr)...)
	callerCode = append(callerCode, byte(vm.PUSH2), 0x03, 0xe8, byte(vm.CALL))
	callerCode = append(callerCode, byte(vm.PUSH1), 0x00, byte(vm.MSTORE))
	callerCode = append(callerCode, returnMemoryWord()...)

	world := testworld.New().WithAccount(ownerAddr, vm.WordFromUint64(1000), callerCode)

	ctx := newContext(world, callerCode, 200_000, vm.HomesteadConfig())
	ctx.Env.CallDepth = 1024
	result := vm.Run(ctx)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ReturnData[31] != 0x00 {
		t.Errorf("CALL at depth limit pushed %d, want 0", result.ReturnData[31])
	}
	if len(result.InternalTxs) != 0 {
		t.Errorf("internal txs = %v, want none", result.InternalTxs)
	}
}

func TestRun_CallToFailingCallee_PushesZeroAndKeepsParentState(t *testing.T) {
	calleeCode := []byte{byte(vm.INVALID)}
	callerCode := []byte{
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00,
	}
	callerCode = append(callerCode, push20(calleeAddr)...)
	callerCode = append(callerCode, byte(vm.PUSH2), 0x03, 0xe8, byte(vm.CALL))
	callerCode = append(callerCode, byte(vm.PUSH1), 0x00, byte(vm.MSTORE))
	callerCode = append(callerCode, returnMemoryWord()...)

	world := testworld.New().
		WithAccount(ownerAddr, vm.WordFromUint64(1000), callerCode).
		WithAccount(calleeAddr, vm.NewWord(), calleeCode)

	result := vm.Run(newContext(world, callerCode, 200_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("parent must survive a failing callee, got: %v", result.Err)
	}
	if result.ReturnData[31] != 0x00 {
		t.Errorf("CALL to failing callee pushed %d, want 0", result.ReturnData[31])
	}
}

func TestRun_DelegateCall_InheritsValue(t *testing.T) {
	calleeCode := append([]byte{
		byte(vm.CALLVALUE), byte(vm.PUSH1), 0x00, byte(vm.MSTORE),
	}, returnMemoryWord()...)

	callerCode := []byte{
		byte(vm.PUSH1), 0x20, // outSize
		byte(vm.PUSH1), 0x00, // outOffset
		byte(vm.PUSH1), 0x00, // inSize
		byte(vm.PUSH1), 0x00, // inOffset
	}
	callerCode = append(callerCode, push20(calleeAddr)...)
	callerCode = append(callerCode, byte(vm.PUSH2), 0xff, 0xff, byte(vm.DELEGATECALL))
	callerCode = append(callerCode, returnMemoryWord()...)

	world := testworld.New().
		WithAccount(ownerAddr, vm.WordFromUint64(1000), callerCode).
		WithAccount(calleeAddr, vm.NewWord(), calleeCode)

	ctx := newContext(world, callerCode, 200_000, vm.HomesteadConfig())
	ctx.Env.Value = vm.WordFromUint64(55)
	result := vm.Run(ctx)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.ReturnData) != 32 || result.ReturnData[31] != 55 {
		t.Errorf("delegated CALLVALUE = %x, want the caller's 55", result.ReturnData)
	}
	if len(result.InternalTxs) != 1 || result.InternalTxs[0].Kind != vm.InternalDelegateCall {
		t.Errorf("internal txs = %v, want one DELEGATECALL", result.InternalTxs)
	}
}

func TestRun_CallCode_RunsCalleeCodeAgainstOwnStorage(t *testing.T) {
	// The callee's code stores 7 at key 0; under CALLCODE that write lands
	// in the caller's storage, not the callee's.
	calleeCode := []byte{
		byte(vm.PUSH1), 0x07, byte(vm.PUSH1), 0x00, byte(vm.SSTORE), byte(vm.STOP),
	}
	callerCode := []byte{
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00,
	}
	callerCode = append(callerCode, push20(calleeAddr)...)
	callerCode = append(callerCode, byte(vm.PUSH3), 0x01, 0xff, 0xff, byte(vm.CALLCODE), byte(vm.STOP))

	world := testworld.New().
		WithAccount(ownerAddr, vm.WordFromUint64(1000), callerCode).
		WithAccount(calleeAddr, vm.NewWord(), calleeCode)

	result := vm.Run(newContext(world, callerCode, 200_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	stored := result.World.GetStorage(ownerAddr).Load(vm.NewWord())
	if want, got := uint64(7), stored.Uint64(); want != got {
		t.Errorf("caller storage[0] = %d, want %d", got, want)
	}
	if !result.World.GetStorage(calleeAddr).Load(vm.NewWord()).IsZero() {
		t.Errorf("callee storage written under CALLCODE")
	}
}

// createCallerCode builds code that CREATEs a contract from the five-byte
// init code {PUSH1 1, PUSH1 0, RETURN}, which deploys the single byte 0x00.
func createCallerCode(endowment byte) []byte {
	initCode := [32]byte{byte(vm.PUSH1), 0x01, byte(vm.PUSH1), 0x00, byte(vm.RETURN)}
	code := append([]byte{byte(vm.PUSH32)}, initCode[:]...)
	code = append(code,
		byte(vm.PUSH1), 0x00, byte(vm.MSTORE),
		byte(vm.PUSH1), 0x05, // size
		byte(vm.PUSH1), 0x00, // offset
		byte(vm.PUSH1), endowment,
		byte(vm.CREATE), byte(vm.STOP),
	)
	return code
}

func TestRun_Create_DeploysReturnedCode(t *testing.T) {
	code := createCallerCode(0x00)
	world := testworld.New().WithAccount(ownerAddr, vm.WordFromUint64(1000), code)
	expectedAddr, _ := world.CreateAddressWithOpCode(ownerAddr)

	result := vm.Run(newContext(world, code, 200_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if want, got := []byte{0x00}, result.World.GetCode(expectedAddr); !bytes.Equal(want, got) {
		t.Errorf("deployed code = %x, want %x", got, want)
	}
	if want, got := uint64(1), result.World.(*testworld.World).GetNonce(ownerAddr); want != got {
		t.Errorf("creator nonce = %d, want %d", got, want)
	}
	if len(result.InternalTxs) != 1 || result.InternalTxs[0].Kind != vm.InternalCreate {
		t.Errorf("internal txs = %v, want one CREATE", result.InternalTxs)
	}
}

func TestRun_CreateWithEndowment_FundsNewAccount(t *testing.T) {
	code := createCallerCode(0x64) // endowment = 100
	world := testworld.New().WithAccount(ownerAddr, vm.WordFromUint64(1000), code)
	expectedAddr, _ := world.CreateAddressWithOpCode(ownerAddr)

	result := vm.Run(newContext(world, code, 200_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if want, got := uint64(100), result.World.GetBalance(expectedAddr).Uint64(); want != got {
		t.Errorf("new account balance = %d, want %d", got, want)
	}
	if want, got := uint64(900), result.World.GetBalance(ownerAddr).Uint64(); want != got {
		t.Errorf("creator balance = %d, want %d", got, want)
	}
}

func TestRun_CreateCollision_BurnsChildGasAndKeepsNonceBump(t *testing.T) {
	code := createCallerCode(0x00)
	world := testworld.New().WithAccount(ownerAddr, vm.WordFromUint64(1000), code)
	collidingAddr, _ := world.CreateAddressWithOpCode(ownerAddr)
	world = world.WithNonce(collidingAddr, 1)

	result := vm.Run(newContext(world, code, 200_000, vm.SpuriousDragonConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if got := result.World.GetCode(collidingAddr); len(got) != 0 {
		t.Errorf("collision deployed code %x", got)
	}
	if want, got := uint64(1), result.World.(*testworld.World).GetNonce(ownerAddr); want != got {
		t.Errorf("creator nonce = %d, want %d (kept after the failed create)", got, want)
	}
	// The substituted INVALID init code aborts the child, which forfeits
	// everything forwarded: all but 1/64th of what remained after the
	// CREATE preflight.
	if vm.GasCmp(result.GasRemaining, vm.NewGas(5_000)) > 0 {
		t.Errorf("remaining gas = %v, want the forwarded gas burned", result.GasRemaining)
	}
}

func TestRun_CreateWithInsufficientBalance_PushesZeroWithoutNonceBump(t *testing.T) {
	code := createCallerCode(0x64) // endowment the creator cannot cover
	world := testworld.New().WithAccount(ownerAddr, vm.WordFromUint64(10), code)

	result := vm.Run(newContext(world, code, 200_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if want, got := uint64(0), result.World.(*testworld.World).GetNonce(ownerAddr); want != got {
		t.Errorf("creator nonce = %d, want %d (untouched by the refused create)", got, want)
	}
	if len(result.InternalTxs) != 0 {
		t.Errorf("internal txs = %v, want none", result.InternalTxs)
	}
}

func TestRun_SelfDestruct_TransfersBalanceAndSchedulesDeletion(t *testing.T) {
	beneficiary := vm.Address{19: 0xbb} // matches PUSH1 0xbb as an address word
	code := []byte{byte(vm.PUSH1), 0xbb, byte(vm.SELFDESTRUCT)}
	world := testworld.New().WithAccount(ownerAddr, vm.WordFromUint64(500), code)

	result := vm.Run(newContext(world, code, 100_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if _, ok := result.AddressesToDelete[ownerAddr]; !ok {
		t.Errorf("owner not scheduled for deletion")
	}
	if want, got := uint64(500), result.World.GetBalance(beneficiary).Uint64(); want != got {
		t.Errorf("beneficiary balance = %d, want %d", got, want)
	}
	if want, got := vm.NewGas(24_000), result.GasRefund; vm.GasCmp(want, got) != 0 {
		t.Errorf("refund = %v, want %v", got, want)
	}
	if len(result.InternalTxs) != 1 || result.InternalTxs[0].Kind != vm.InternalSelfDestruct {
		t.Errorf("internal txs = %v, want one SELFDESTRUCT", result.InternalTxs)
	}
}

func TestRun_SelfDestructToSelf_BurnsBalance(t *testing.T) {
	code := append(push20(ownerAddr), byte(vm.SELFDESTRUCT))
	world := testworld.New().WithAccount(ownerAddr, vm.WordFromUint64(500), code)

	result := vm.Run(newContext(world, code, 100_000, vm.HomesteadConfig()))

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !result.World.GetBalance(ownerAddr).IsZero() {
		t.Errorf("owner balance = %v, want 0 (burned)", result.World.GetBalance(ownerAddr))
	}
}

func TestRun_Eip150_CapsForwardedGas(t *testing.T) {
	// The callee reports its own starting gas (less GAS's base cost) so
	// the test observes exactly how much the cap forwarded, not just that
	// the call survived.
	calleeCode := append([]byte{
		byte(vm.GAS), byte(vm.PUSH1), 0x00, byte(vm.MSTORE),
	}, returnMemoryWord()...)

	callerCode := []byte{
		byte(vm.PUSH1), 0x20, // outSize
		byte(vm.PUSH1), 0x00, // outOffset
		byte(vm.PUSH1), 0x00, // inSize
		byte(vm.PUSH1), 0x00, // inOffset
		byte(vm.PUSH1), 0x00, // value
	}
	callerCode = append(callerCode, push20(calleeAddr)...)
	// Request far more gas than remains.
	callerCode = append(callerCode, byte(vm.PUSH32))
	callerCode = append(callerCode, bytes.Repeat([]byte{0xff}, 32)...)
	callerCode = append(callerCode, byte(vm.CALL))
	callerCode = append(callerCode, returnMemoryWord()...)

	world := testworld.New().
		WithAccount(ownerAddr, vm.WordFromUint64(1000), callerCode).
		WithAccount(calleeAddr, vm.NewWord(), calleeCode)

	const startGas = 200_000
	result := vm.Run(newContext(world, callerCode, startGas, vm.TangerineWhistleConfig()))

	if result.Err != nil {
		t.Fatalf("with the gas cap an oversized request must be clipped, got: %v", result.Err)
	}

	pushCost := int64(7 * 3)
	avail := int64(startGas) - pushCost // at the CALL
	fixed := int64(700 + 3)             // G_call plus one word of output memory
	capped := avail - fixed
	forward := capped - capped/64
	calleeSpend := int64(2 + 3 + 6 + 3 + 3) // GAS, PUSH1, MSTORE+expansion, PUSH1, PUSH1

	reported := new(vm.Word).SetBytes(result.ReturnData)
	if want, got := uint64(forward-2), reported.Uint64(); want != got {
		t.Errorf("callee saw start gas %d, want %d (63/64 of the caller's remainder)", got, want)
	}
	// What the caller kept back, plus what the callee returned unspent,
	// minus the trailing RETURN sequence's two pushes.
	wantRemaining := (avail - fixed - forward) + (forward - calleeSpend) - 6
	if want, got := vm.NewGas(wantRemaining), result.GasRemaining; vm.GasCmp(want, got) != 0 {
		t.Errorf("remaining gas = %v, want %v", got, want)
	}

	// Without a cap the same request is charged as asked and fails.
	uncapped := vm.Run(newContext(world, callerCode, startGas, vm.HomesteadConfig()))
	if uncapped.Err == nil {
		t.Fatalf("without the gas cap an oversized request must run out of gas")
	}
}
