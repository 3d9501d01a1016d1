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

// Program is the immutable unit of executable code: the raw bytes plus a
// precomputed set of valid JUMPDEST targets. It is built once per distinct
// code body and then shared across every frame that runs it.
type Program struct {
	Code []byte

	validJumpDest map[int]struct{}
}

// NewProgram scans code once and records every JUMPDEST (0x5b) byte that is
// not itself one of a PUSHn instruction's immediate bytes: the scan walks
// the code linearly and, whenever a PUSHn is found, skips its n immediate
// bytes outright so a JUMPDEST-valued immediate byte is never mistaken for
// a real jump target.
func NewProgram(code []byte) *Program {
	p := &Program{
		Code:          code,
		validJumpDest: make(map[int]struct{}),
	}
	for i := 0; i < len(code); {
		op := OpCode(code[i])
		if op == JUMPDEST {
			p.validJumpDest[i] = struct{}{}
		}
		if n := PushSize(op); n > 0 {
			i += n + 1
			continue
		}
		i++
	}
	return p
}

// IsValidJumpDest reports whether pos is an in-bounds JUMPDEST byte that was
// not skipped over as a PUSH immediate.
func (p *Program) IsValidJumpDest(pos int) bool {
	if pos < 0 || pos >= len(p.Code) {
		return false
	}
	_, ok := p.validJumpDest[pos]
	return ok
}

// Len returns the number of code bytes.
func (p *Program) Len() int { return len(p.Code) }

// OpCodeAt returns the opcode byte at pos, or STOP if pos runs off the end
// of the code — an EVM program implicitly ends in STOP.
func (p *Program) OpCodeAt(pos int) OpCode {
	if pos >= len(p.Code) {
		return STOP
	}
	return OpCode(p.Code[pos])
}

// ImmediateBytes returns the up-to-32 immediate bytes following a PUSHn at
// pos, zero-padded on the right if the code ends before n bytes are
// available.
func (p *Program) ImmediateBytes(pos int, n int) [32]byte {
	var out [32]byte
	start := pos + 1
	end := start + n
	if start >= len(p.Code) {
		return out
	}
	if end > len(p.Code) {
		end = len(p.Code)
	}
	copy(out[32-n:], p.Code[start:end])
	return out
}
