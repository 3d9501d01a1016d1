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

import "golang.org/x/crypto/sha3"

// Keccak256 is the reference KeccakFunc implementation, backed by the
// pure-Go Keccak-256 in golang.org/x/crypto/sha3. Callers are free to
// inject a different KeccakFunc (e.g. one backed by a hardware-accelerated
// or precompiled implementation) through ExecEnv.Keccak256; this package
// only ever consumes the function value, never the hash algorithm itself.
func Keccak256(data []byte) Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out Hash
	h.Sum(out[:0])
	return out
}
