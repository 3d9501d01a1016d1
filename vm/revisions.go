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

// Revision enumerates the hard-forks this interpreter is aware of:
// Frontier through Spurious Dragon. Later revisions (Byzantium's
// REVERT/STATICCALL and onward) are not supported.
type Revision int

const (
	Frontier Revision = iota
	Homestead
	TangerineWhistle // EIP-150: gas cost increases for IO-heavy operations, 63/64 call gas cap.
	SpuriousDragon   // EIP-158/161: empty-account pruning rules. EIP-684: create-collision.
)

func (r Revision) String() string {
	switch r {
	case Frontier:
		return "Frontier"
	case Homestead:
		return "Homestead"
	case TangerineWhistle:
		return "TangerineWhistle"
	case SpuriousDragon:
		return "SpuriousDragon"
	default:
		return "unknown"
	}
}
