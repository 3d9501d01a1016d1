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

// Memory is the byte-addressable, lazily zero-extending buffer backing
// MLOAD/MSTORE/MSTORE8 and the various *COPY opcodes. It tracks its size in
// active 32-byte words; the size only ever grows, and only up to the
// highest byte ever accessed, rounded up to a whole word.
//
// Gas is not charged by Memory itself — CalcMemCost is the pure cost
// function for a prospective expansion, so the calling instruction can
// charge the cost through ProgramState before the expansion is performed.
type Memory struct {
	store          []byte
	highWaterWords uint64
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory { return &Memory{} }

// Size returns the current memory size in bytes (always a multiple of 32).
func (m *Memory) Size() uint64 { return m.highWaterWords * 32 }

// wordsFor rounds size up to a whole number of 32-byte words.
func wordsFor(size uint64) uint64 {
	return (size + 31) / 32
}

// Expand grows the high-water mark to cover [offset, offset+size) if it
// does not already, without copying any bytes. A zero-length access never
// grows memory.
func (m *Memory) Expand(offset, size uint64) {
	if size == 0 {
		return
	}
	needed := wordsFor(offset + size)
	if needed > m.highWaterWords {
		m.highWaterWords = needed
	}
}

// ensureBacking makes sure the backing byte slice covers the current
// high-water mark, growing it if Expand has moved the mark past the
// previous allocation.
func (m *Memory) ensureBacking() {
	need := m.highWaterWords * 32
	if uint64(len(m.store)) < need {
		grown := make([]byte, need)
		copy(grown, m.store)
		m.store = grown
	}
}

// Load returns size bytes starting at offset, zero-filling any portion
// beyond the previous high-water mark and extending the mark to cover the
// access.
func (m *Memory) Load(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	m.Expand(offset, size)
	m.ensureBacking()
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// Store writes data at offset, extending the high-water mark to cover the
// write. len(data) bytes are written; it is the caller's responsibility to
// pass exactly the intended size.
func (m *Memory) Store(offset uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	size := uint64(len(data))
	m.Expand(offset, size)
	m.ensureBacking()
	copy(m.store[offset:offset+size], data)
}

// StoreByte writes a single byte at offset (MSTORE8), extending the
// high-water mark to cover the write.
func (m *Memory) StoreByte(offset uint64, b byte) {
	m.Expand(offset, 1)
	m.ensureBacking()
	m.store[offset] = b
}

// CalcMemCost returns the marginal gas cost of expanding memory from
// oldWords words to cover [offset, offset+size):
// zero when size is zero, otherwise cost(newWords) - cost(oldWords) with
// cost(w) = G_memory*w + w^2/512.
func CalcMemCost(fs *FeeSchedule, oldWords uint64, offset, size uint64) *Gas {
	if size == 0 {
		return ZeroGas()
	}
	newWords := wordsFor(offset + size)
	return GasSub(memCostOfWords(fs, newWords), memCostOfWords(fs, oldWords))
}

func memCostOfWords(fs *FeeSchedule, words uint64) *Gas {
	w := NewGas(int64(words))
	linear := GasMul(fs.GMemory, w)
	quadratic := new(Gas).Quo(GasMul(w, w), NewGas(512))
	return GasAdd(linear, quadratic)
}

// WordsFor exposes wordsFor for callers (e.g. the per-word copy and SHA3
// gas functions) that need to reason about a prospective access's word count
// without touching Memory state.
func WordsFor(size uint64) uint64 { return wordsFor(size) }

// Words returns the current high-water mark in whole 32-byte words.
func (m *Memory) Words() uint64 { return m.highWaterWords }

// readPadded returns size bytes of data starting at offset, zero-filling
// any portion that runs past the end of data (or starts past it
// altogether) — the shared read behavior of CALLDATALOAD, CALLDATACOPY,
// CODECOPY and EXTCODECOPY when their requested range overruns the
// source buffer.
func readPadded(data []byte, offset, size uint64) []byte {
	out := make([]byte, size)
	if offset >= uint64(len(data)) {
		return out
	}
	end := offset + size
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	copy(out, data[offset:end])
	return out
}

// memOffsetSize converts a (offset, size) pair of stack words to uint64s
// suitable for indexing Memory, reporting errGasUintOverflow if either does
// not fit in a uint64 or their sum would overflow — an offset that large
// can never be affordable (the quadratic memory cost would exceed any
// real gas supply long before the access itself matters), so it is
// reported as an out-of-gas condition rather than attempting the access.
// A zero size short-circuits to (0, 0, nil) without inspecting offset, so
// a huge but unused offset on a zero-length access never faults.
func memOffsetSize(offset, size *Word) (uint64, uint64, error) {
	if size.IsZero() {
		return 0, 0, nil
	}
	if !offset.IsUint64() || !size.IsUint64() {
		return 0, 0, errGasUintOverflow
	}
	o, n := offset.Uint64(), size.Uint64()
	if n > 0 && o > ^uint64(0)-n {
		return 0, 0, errGasUintOverflow
	}
	return o, n, nil
}
