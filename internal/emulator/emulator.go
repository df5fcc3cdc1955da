package emulator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kapitanov/chip8core/internal/vm"
)

const DefaultInstructionsPerFrame = 10

// HAL is everything the emulator needs from the host platform.
type HAL interface {
	ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error
	Draw(display []bool) error
	Beep() error
	WaitForNextFrame() error
}

type Config struct {
	// InstructionsPerFrame is how many instructions run between two timer
	// ticks. Timers tick once per frame.
	InstructionsPerFrame int
}

type Emulator struct {
	machine *vm.VM
	hal     HAL
	cfg     Config

	looped bool
}

func New(machine *vm.VM, hal HAL, cfg Config) *Emulator {
	if cfg.InstructionsPerFrame <= 0 {
		cfg.InstructionsPerFrame = DefaultInstructionsPerFrame
	}

	return &Emulator{
		machine: machine,
		hal:     hal,
		cfg:     cfg,
	}
}

// Run drives the machine frame by frame until ctx is done or the machine or
// HAL fails. A HAL error such as a quit request is returned unchanged.
func (e *Emulator) Run(ctx context.Context) error {
	e.looped = false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if e.looped {
			if err := e.idleFrame(); err != nil {
				return err
			}
			continue
		}

		if err := e.RunFrame(); err != nil {
			return err
		}
	}
}

// RunFrame executes one frame: the configured number of instructions, one
// timer tick, a redraw if needed, input, and frame pacing.
func (e *Emulator) RunFrame() error {
	for i := 0; i < e.cfg.InstructionsPerFrame; i++ {
		looped, err := e.step()
		if err != nil {
			return err
		}

		if looped {
			slog.Info("program looped", "pc", fmt.Sprintf("0x%04x", e.machine.PC()))
			e.looped = true
			break
		}
	}

	if e.machine.StepTimers() {
		if err := e.hal.Beep(); err != nil {
			return err
		}
	}

	if e.machine.TakeDrawFlag() {
		if err := e.hal.Draw(e.machine.Display()); err != nil {
			return err
		}
	}

	if err := e.hal.ReadInput(e.keyDown, e.keyUp); err != nil {
		return err
	}

	return e.hal.WaitForNextFrame()
}

// Looped reports whether the program has jumped onto itself.
func (e *Emulator) Looped() bool {
	return e.looped
}

// step runs one instruction and reports whether it left PC where it was.
// A pending key wait does the same on purpose and is not a loop.
func (e *Emulator) step() (bool, error) {
	pc := e.machine.PC()
	opcode, err := e.machine.Opcode()
	if err != nil {
		return false, err
	}

	if err := e.machine.Step(); err != nil {
		return false, err
	}

	return e.machine.PC() == pc && !isKeyWait(opcode), nil
}

func isKeyWait(opcode uint16) bool {
	return opcode&0xF0FF == 0xF00A
}

// idleFrame keeps the window responsive once the program has stopped doing
// anything useful, so that quit and reboot still work. Timers keep running so
// a pending sound cue still plays.
func (e *Emulator) idleFrame() error {
	if e.machine.StepTimers() {
		if err := e.hal.Beep(); err != nil {
			return err
		}
	}

	if err := e.hal.WaitForNextFrame(); err != nil {
		return err
	}

	return e.hal.ReadInput(func(_ vm.Key) {}, func(_ vm.Key) {})
}

func (e *Emulator) keyDown(key vm.Key) {
	e.machine.SetKey(key, true)
}

func (e *Emulator) keyUp(key vm.Key) {
	e.machine.SetKey(key, false)
}
