package emulator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitanov/chip8core/internal/vm"
)

var errStop = errors.New("stop")

type keyEvent struct {
	key  vm.Key
	down bool
}

type fakeHAL struct {
	frames   int
	draws    int
	beeps    int
	lastDraw []bool

	// input[i] is delivered during frame i.
	input map[int][]keyEvent

	// stopAfter makes ReadInput fail once that many frames have been read.
	stopAfter int
	reads     int
}

func (h *fakeHAL) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	for _, ev := range h.input[h.reads] {
		if ev.down {
			keyDown(ev.key)
		} else {
			keyUp(ev.key)
		}
	}

	h.reads++
	if h.stopAfter > 0 && h.reads >= h.stopAfter {
		return errStop
	}
	return nil
}

func (h *fakeHAL) Draw(display []bool) error {
	h.draws++
	h.lastDraw = append(h.lastDraw[:0], display...)
	return nil
}

func (h *fakeHAL) Beep() error {
	h.beeps++
	return nil
}

func (h *fakeHAL) WaitForNextFrame() error {
	h.frames++
	return nil
}

func program(words ...uint16) []byte {
	bs := make([]byte, 0, len(words)*2)
	for _, w := range words {
		bs = append(bs, uint8(w>>8), uint8(w))
	}
	return bs
}

func newMachine(t *testing.T, mode vm.Mode, words ...uint16) *vm.VM {
	t.Helper()

	machine := vm.New(vm.WithMode(mode))
	require.NoError(t, machine.Load(program(words...)))
	return machine
}

func TestRunFrameCadence(t *testing.T) {
	machine := newMachine(t, vm.ModeCompat,
		0x7001, 0x7001, 0x7001, 0x7001, 0x7001, 0x7001, 0x7001, 0x7001,
	)
	hal := &fakeHAL{}
	e := New(machine, hal, Config{InstructionsPerFrame: 3})

	require.NoError(t, e.RunFrame())
	assert.Equal(t, vm.ProgramStart+6, machine.PC())
	assert.Equal(t, 1, hal.frames)
	assert.Equal(t, 1, hal.reads)
	assert.Equal(t, 1, hal.draws, "first frame draws the cleared screen")

	require.NoError(t, e.RunFrame())
	assert.Equal(t, vm.ProgramStart+12, machine.PC())
	assert.Equal(t, 1, hal.draws, "nothing changed")
}

func TestDefaultInstructionsPerFrame(t *testing.T) {
	machine := vm.New()
	require.NoError(t, machine.Load(make([]byte, 64)))
	e := New(machine, &fakeHAL{}, Config{})

	require.NoError(t, e.RunFrame())
	assert.Equal(t, vm.ProgramStart+2*DefaultInstructionsPerFrame, machine.PC())
}

func TestTimersTickOncePerFrame(t *testing.T) {
	machine := newMachine(t, vm.ModeCompat,
		0x6003, // mov v0, 3
		0xF018, // ssound v0
		0xF50A, // key v5
	)
	hal := &fakeHAL{}
	e := New(machine, hal, Config{InstructionsPerFrame: 4})

	require.NoError(t, e.RunFrame()) // sound 3 -> 2
	require.NoError(t, e.RunFrame()) // 2 -> 1
	assert.Zero(t, hal.beeps)

	require.NoError(t, e.RunFrame()) // 1 -> 0, beep
	assert.Equal(t, 1, hal.beeps)

	require.NoError(t, e.RunFrame())
	assert.Equal(t, 1, hal.beeps)
	assert.False(t, e.Looped(), "waiting for a key is not a loop")
}

func TestDrawsAfterSprite(t *testing.T) {
	machine := newMachine(t, vm.ModeCompat,
		0xA000, // mvi 0 (glyph 0)
		0xD015, // sprite v0, v0, 5
	)
	hal := &fakeHAL{}
	e := New(machine, hal, Config{InstructionsPerFrame: 2})

	require.NoError(t, e.RunFrame())

	assert.Equal(t, 1, hal.draws)
	require.Len(t, hal.lastDraw, vm.ScreenWidth*vm.ScreenHeight)
	assert.True(t, hal.lastDraw[0])
}

func TestKeyInputReachesMachine(t *testing.T) {
	machine := newMachine(t, vm.ModeCompat,
		0xF30A, // key v3
		0x3309, // skeq v3, 9
		0x0000,
	)
	hal := &fakeHAL{
		input: map[int][]keyEvent{
			0: {{key: vm.Key9, down: true}},
			1: {{key: vm.Key9, down: false}},
		},
	}
	e := New(machine, hal, Config{InstructionsPerFrame: 1})

	require.NoError(t, e.RunFrame())
	assert.Equal(t, vm.ProgramStart, machine.PC(), "still waiting, key arrives after the step")

	require.NoError(t, e.RunFrame())
	assert.Equal(t, vm.ProgramStart+2, machine.PC())

	require.NoError(t, e.RunFrame())
	assert.Equal(t, vm.ProgramStart+6, machine.PC(), "V3 holds 9, skip taken")
}

func TestLoopDetection(t *testing.T) {
	machine := newMachine(t, vm.ModeCanonical,
		0x6001, // mov v0, 1
		0x1202, // jmp 0x202
	)
	hal := &fakeHAL{stopAfter: 5}
	e := New(machine, hal, Config{InstructionsPerFrame: 8})

	err := e.Run(context.Background())
	require.ErrorIs(t, err, errStop)

	assert.True(t, e.Looped())
	assert.Equal(t, uint16(0x202), machine.PC())
	assert.Equal(t, 5, hal.frames)
}

func TestTimersRunWhileLooped(t *testing.T) {
	machine := newMachine(t, vm.ModeCanonical,
		0x6003, // mov v0, 3
		0xF018, // ssound v0
		0x1204, // jmp 0x204
	)
	hal := &fakeHAL{stopAfter: 4}
	e := New(machine, hal, Config{InstructionsPerFrame: 8})

	err := e.Run(context.Background())
	require.ErrorIs(t, err, errStop)

	assert.True(t, e.Looped())
	assert.Equal(t, 1, hal.beeps)
}

func TestRunPropagatesMachineErrors(t *testing.T) {
	machine := newMachine(t, vm.ModeCompat, 0x00EE)
	e := New(machine, &fakeHAL{}, Config{})

	err := e.Run(context.Background())
	require.ErrorIs(t, err, vm.ErrUnknownInstruction)
}

func TestRunStopsOnCancel(t *testing.T) {
	machine := newMachine(t, vm.ModeCompat)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(machine, &fakeHAL{}, Config{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
