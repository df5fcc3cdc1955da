package vm

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	KeyCount      = 16

	// The display is 32 columns by 64 rows. Pixel (x, y) lives at
	// x + ScreenWidth*y.
	ScreenWidth  = 32
	ScreenHeight = 64

	ProgramStart    = uint16(0x200)
	InstructionSize = 2

	flagRegister = 0x0F
)

var (
	ErrProgramTooLarge  = errors.New("program too large")
	ErrMemoryOutOfRange = errors.New("memory out of range")
	ErrInvalidKey       = errors.New("invalid key")
)

// Mode selects how the handful of contested opcodes behave.
type Mode uint8

const (
	// ModeCompat is the default instruction set: 1NNN adds to PC,
	// 8XY5/8XY7 set VF on borrow, 00EE is unknown and FX55/FX65 copy
	// memory to memory.
	ModeCompat Mode = iota

	// ModeCanonical uses the conventional CHIP-8 meaning for those opcodes.
	ModeCanonical
)

func (m Mode) String() string {
	switch m {
	case ModeCompat:
		return "compat"
	case ModeCanonical:
		return "canonical"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "compat":
		return ModeCompat, nil
	case "canonical":
		return ModeCanonical, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want compat or canonical)", s)
	}
}

type VM struct {
	memory    [MemorySize]uint8    // Memory (4k)
	registers [RegisterCount]uint8 // V registers (V0-VF)

	stack stack // Return addresses

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	gfx      []bool         // Graphics buffer
	keypad   [KeyCount]bool // Keypad
	drawFlag bool           // Indicates a draw has occurred

	mode    Mode
	random  RandomSource
	program []byte
}

type Option func(*VM)

func WithMode(mode Mode) Option {
	return func(vm *VM) {
		vm.mode = mode
	}
}

// WithRandom replaces the source used by CXNN.
func WithRandom(random RandomSource) Option {
	return func(vm *VM) {
		vm.random = random
	}
}

func New(opts ...Option) *VM {
	vm := &VM{
		gfx:    make([]bool, ScreenWidth*ScreenHeight),
		random: defaultRandom{},
	}

	for _, opt := range opts {
		opt(vm)
	}

	vm.initialize()
	return vm
}

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Load copies program into memory at ProgramStart and resets the machine.
// The image is kept so that Reset can reload it.
func (vm *VM) Load(program []byte) error {
	if len(program) > MemorySize-int(ProgramStart) {
		return fmt.Errorf("%w: %d bytes, at most %d fit", ErrProgramTooLarge, len(program), MemorySize-int(ProgramStart))
	}

	vm.program = append(vm.program[:0], program...)
	vm.initialize()
	return nil
}

// Reset returns the machine to its power-on state with the last loaded
// program in memory.
func (vm *VM) Reset() {
	vm.initialize()
}

func (vm *VM) initialize() {
	vm.pc = ProgramStart
	vm.index = 0
	vm.stack.reset()

	// Clear the display
	for i := range vm.gfx {
		vm.gfx[i] = false
	}
	vm.drawFlag = true

	vm.keypad = [KeyCount]bool{}
	vm.registers = [RegisterCount]uint8{}
	vm.memory = [MemorySize]uint8{}

	// Load font set into memory
	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontStart), "n", len(chip8Font))
	copy(vm.memory[FontStart:], chip8Font[:])

	if len(vm.program) > 0 {
		slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(vm.program))
		copy(vm.memory[ProgramStart:], vm.program)
	}

	vm.delayTimer = 0
	vm.soundTimer = 0
}

// Step fetches, decodes and executes a single instruction.
func (vm *VM) Step() error {
	opcode, err := vm.fetchOpcode()
	if err != nil {
		return err
	}

	return vm.executeOpcode(opcode)
}

// StepTimers advances the delay and sound timers by one tick. It reports
// true at the tick where the sound timer runs out, which is when the host
// should play its cue.
func (vm *VM) StepTimers() bool {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	beep := false
	if vm.soundTimer > 0 {
		beep = vm.soundTimer == 1
		vm.soundTimer--
	}

	return beep
}

// SetKey records a key transition. Keys outside 0x0-0xF are ignored.
func (vm *VM) SetKey(key Key, pressed bool) {
	if int(key) >= KeyCount {
		return
	}
	vm.keypad[key] = pressed
}

// Display returns the pixel grid. The slice is owned by the VM and is only
// valid until the next Step.
func (vm *VM) Display() []bool {
	return vm.gfx
}

// TakeDrawFlag reports whether the display changed since the last call.
func (vm *VM) TakeDrawFlag() bool {
	f := vm.drawFlag
	vm.drawFlag = false
	return f
}

func (vm *VM) PC() uint16 {
	return vm.pc
}

func (vm *VM) Mode() Mode {
	return vm.mode
}

// Register returns the value of V0-VF. Out-of-range indices read as zero.
func (vm *VM) Register(x uint8) uint8 {
	if int(x) >= RegisterCount {
		return 0
	}
	return vm.registers[x]
}

// Opcode returns the instruction word at PC without executing it.
func (vm *VM) Opcode() (uint16, error) {
	return vm.readWord(vm.pc)
}

func (vm *VM) fetchOpcode() (uint16, error) {
	opcode, err := vm.readWord(vm.pc)
	if err != nil {
		return 0, err
	}

	vm.pc += InstructionSize
	return opcode, nil
}

func (vm *VM) readWord(addr uint16) (uint16, error) {
	if int(addr)+1 >= MemorySize {
		return 0, fmt.Errorf("%w: fetch at 0x%04x", ErrMemoryOutOfRange, addr)
	}

	hi := vm.memory[addr]
	lo := vm.memory[addr+1]

	return uint16(hi)<<8 | uint16(lo), nil // Op code is two bytes
}

func (vm *VM) load(addr int) (uint8, error) {
	if addr < 0 || addr >= MemorySize {
		return 0, fmt.Errorf("%w: read at 0x%04x", ErrMemoryOutOfRange, addr)
	}
	return vm.memory[addr], nil
}

func (vm *VM) store(addr int, b uint8) error {
	if addr < 0 || addr >= MemorySize {
		return fmt.Errorf("%w: write at 0x%04x", ErrMemoryOutOfRange, addr)
	}
	vm.memory[addr] = b
	return nil
}

func (vm *VM) key(x uint8) (bool, error) {
	if int(x) >= KeyCount {
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidKey, x)
	}
	return vm.keypad[x], nil
}
