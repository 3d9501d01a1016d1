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

import lru "github.com/hashicorp/golang-lru/v2"

// ProgramCache memoizes Program construction by code hash. Building a
// Program only costs a single linear scan for JUMPDEST validity, but the
// same deployed code is typically run by many transactions across many
// blocks, so caching the immutable result avoids repeating that scan per
// call.
type ProgramCache struct {
	cache  *lru.Cache[Hash, *Program]
	keccak KeccakFunc
}

// NewProgramCache returns a ProgramCache holding up to size entries,
// hashing code with keccak to key the cache.
func NewProgramCache(size int, keccak KeccakFunc) *ProgramCache {
	c, err := lru.New[Hash, *Program](size)
	if err != nil {
		// size <= 0; golang-lru only rejects a non-positive capacity, which
		// is a caller bug, not a runtime condition this package recovers
		// from.
		panic(err)
	}
	return &ProgramCache{cache: c, keccak: keccak}
}

// Get returns the Program for code, building and caching it on first use.
func (c *ProgramCache) Get(code []byte) *Program {
	hash := c.keccak(code)
	if p, ok := c.cache.Get(hash); ok {
		return p
	}
	p := NewProgram(code)
	c.cache.Add(hash, p)
	return p
}
