package vm

import (
	"errors"
	"fmt"
)

var (
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
)

// stack holds return addresses. sp is the number of entries in use.
type stack struct {
	entries [StackSize]uint16
	sp      int
}

func (s *stack) reset() {
	s.entries = [StackSize]uint16{}
	s.sp = 0
}

func (s *stack) push(addr uint16) error {
	if s.sp >= len(s.entries) {
		return fmt.Errorf("%w: push 0x%04x with %d entries", ErrStackOverflow, addr, s.sp)
	}

	s.entries[s.sp] = addr
	s.sp++
	return nil
}

func (s *stack) pop() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}

	s.sp--
	return s.entries[s.sp], nil
}

// Stack returns the pending return addresses, most recent last.
func (vm *VM) Stack() []uint16 {
	out := make([]uint16, vm.stack.sp)
	copy(out, vm.stack.entries[:vm.stack.sp])
	return out
}
