package vm

import (
	"fmt"
)

// Disassemble renders the instruction word at addr using the decode table
// of the VM's mode.
func (vm *VM) Disassemble(addr uint16) string {
	opcode, err := vm.readWord(addr)
	if err != nil {
		return fmt.Sprintf("%04x -", addr)
	}

	return fmt.Sprintf("%04x  %04x  %s", addr, opcode, vm.decode(opcode).Name(opcode))
}

// Listing disassembles every word of program as it would be laid out in
// memory. A trailing odd byte is shown as data.
func Listing(program []byte, mode Mode) ([]string, error) {
	machine := New(WithMode(mode))
	if err := machine.Load(program); err != nil {
		return nil, err
	}

	lines := make([]string, 0, (len(program)+1)/InstructionSize)
	end := int(ProgramStart) + len(program)
	for a := int(ProgramStart); a+1 < end; a += InstructionSize {
		lines = append(lines, machine.Disassemble(uint16(a)))
	}

	if len(program)%InstructionSize != 0 {
		lines = append(lines, fmt.Sprintf("%04x  %02x    db 0x%02x", end-1, program[len(program)-1], program[len(program)-1]))
	}

	return lines, nil
}
