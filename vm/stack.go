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

import (
	"sync"

	"github.com/holiman/uint256"
)

// maxStackSize is the maximum number of elements the EVM stack may hold.
const maxStackSize = 1024

// Stack is the bounded LIFO of 256-bit words operated on by instruction
// semantics. It is backed by a fixed-size array to avoid reallocating on
// every push, and is pooled across invocations via NewStack/ReturnStack.
// Bounds are enforced by the interpreter's preflight check, not by Stack
// itself: push past capacity or pop past empty is a programming error here.
type Stack struct {
	data         [maxStackSize]uint256.Int
	stackPointer int
}

var stackPool = sync.Pool{
	New: func() any { return &Stack{} },
}

// NewStack returns an empty Stack from the reuse pool.
func NewStack() *Stack {
	return stackPool.Get().(*Stack)
}

// ReturnStack resets and returns s to the reuse pool. s must not be used
// again afterward.
func ReturnStack(s *Stack) {
	s.stackPointer = 0
	stackPool.Put(s)
}

// Len returns the number of elements currently on the stack.
func (s *Stack) Len() int { return s.stackPointer }

// Push copies v onto the top of the stack.
func (s *Stack) Push(v *Word) {
	s.data[s.stackPointer] = *v
	s.stackPointer++
}

// PushUndefined reserves a new top-of-stack slot with unspecified contents
// and returns a pointer to it, so callers can fill it in place without an
// extra copy.
func (s *Stack) PushUndefined() *Word {
	s.stackPointer++
	return &s.data[s.stackPointer-1]
}

// Pop removes and returns the top element. The returned pointer aliases
// stack storage and is only valid until the next Push/PushUndefined/Dup.
func (s *Stack) Pop() *Word {
	s.stackPointer--
	return &s.data[s.stackPointer]
}

// PopN removes and returns the top n elements, topmost first — i.e.
// PopN(2) on a stack with top=[a,b,...] (a on top) returns [a, b].
func (s *Stack) PopN(n int) []Word {
	out := make([]Word, n)
	for i := 0; i < n; i++ {
		out[i] = *s.Pop()
	}
	return out
}

// Peek returns a pointer to the top element without removing it.
func (s *Stack) Peek() *Word {
	return &s.data[s.stackPointer-1]
}

// PeekN returns a pointer to the n-th element from the top (0-indexed)
// without removing it.
func (s *Stack) PeekN(n int) *Word {
	return &s.data[s.stackPointer-1-n]
}

// Dup duplicates the element at 0-indexed depth i (0 = current top) and
// pushes the copy onto the top of the stack.
func (s *Stack) Dup(i int) {
	s.data[s.stackPointer] = s.data[s.stackPointer-1-i]
	s.stackPointer++
}

// Swap exchanges the top element with the element at 1-indexed depth i (1 =
// the element directly below the top). Swap(0) would be a no-op but is
// never issued by SWAPn, whose minimum n is 1.
func (s *Stack) Swap(i int) {
	top := s.stackPointer - 1
	s.data[top], s.data[top-i] = s.data[top-i], s.data[top]
}

// Get returns a pointer to the element at absolute index i, counting from
// the bottom of the stack (index 0).
func (s *Stack) Get(i int) *Word {
	return &s.data[i]
}
