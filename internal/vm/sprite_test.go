package vm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func litPixels(display []bool) [][2]int {
	var out [][2]int
	for i, on := range display {
		if on {
			out = append(out, [2]int{i % ScreenWidth, i / ScreenWidth})
		}
	}
	return out
}

func TestDrawSpriteCollision(t *testing.T) {
	machine := newVM(t, ModeCompat,
		0xA000, // mvi 0x000 (glyph 0)
		0x6002, // mov v0, 2
		0x6103, // mov v1, 3
		0xD015, // sprite v0, v1, 5
		0xD015, // sprite v0, v1, 5
	)

	run(t, machine, 4)
	assert.Zero(t, machine.registers[0xF])
	assert.Len(t, litPixels(machine.Display()), 14, "glyph 0 has 14 lit pixels")
	assert.True(t, machine.Display()[2+ScreenWidth*3], "top left of the glyph")

	run(t, machine, 1)
	assert.Equal(t, uint8(1), machine.registers[0xF])
	if diff := cmp.Diff(make([]bool, ScreenWidth*ScreenHeight), machine.Display()); diff != "" {
		t.Errorf("display after second draw: (-want, +got)\n%s", diff)
	}
}

func TestDrawSpriteNoOverlap(t *testing.T) {
	machine := newVM(t, ModeCompat,
		0xA000, // mvi 0x000
		0x6000, // mov v0, 0
		0x6100, // mov v1, 0
		0xD015, // sprite v0, v1, 5
		0x600A, // mov v0, 10
		0x610A, // mov v1, 10
		0xD015, // sprite v0, v1, 5
	)
	machine.registers[0xF] = 1

	run(t, machine, 7)

	assert.Zero(t, machine.registers[0xF])
	assert.Len(t, litPixels(machine.Display()), 28)
}

func TestDrawSpriteWrapsHorizontally(t *testing.T) {
	machine := newVM(t, ModeCompat, 0xA300, 0xD011)
	machine.memory[0x300] = 0xE0
	machine.registers[0] = ScreenWidth - 1
	machine.registers[1] = 4

	run(t, machine, 2)

	want := [][2]int{{0, 4}, {1, 4}, {ScreenWidth - 1, 4}}
	if diff := cmp.Diff(want, litPixels(machine.Display())); diff != "" {
		t.Errorf("lit pixels: (-want, +got)\n%s", diff)
	}
}

func TestDrawSpriteWrapsVertically(t *testing.T) {
	machine := newVM(t, ModeCompat, 0xA300, 0xD012)
	machine.memory[0x300] = 0x80
	machine.memory[0x301] = 0x40
	machine.registers[0] = 5
	machine.registers[1] = ScreenHeight - 1

	run(t, machine, 2)

	want := [][2]int{{6, 0}, {5, ScreenHeight - 1}}
	if diff := cmp.Diff(want, litPixels(machine.Display())); diff != "" {
		t.Errorf("lit pixels: (-want, +got)\n%s", diff)
	}
}

func TestDrawSpriteCoordinatesTakenModulo(t *testing.T) {
	machine := newVM(t, ModeCompat, 0xA300, 0xD011)
	machine.memory[0x300] = 0x80
	machine.registers[0] = ScreenWidth + 3
	machine.registers[1] = ScreenHeight + 2

	run(t, machine, 2)

	assert.True(t, machine.Display()[3+ScreenWidth*2])
	assert.Len(t, litPixels(machine.Display()), 1)
}

func TestDrawSpriteVFAsCoordinate(t *testing.T) {
	// Coordinates are read before VF is cleared.
	machine := newVM(t, ModeCompat, 0xA300, 0xDFF1)
	machine.memory[0x300] = 0x80
	machine.registers[0xF] = 7

	run(t, machine, 2)

	assert.True(t, machine.Display()[7+ScreenWidth*7])
	assert.Zero(t, machine.registers[0xF])
}

func TestDrawSpriteZeroRows(t *testing.T) {
	machine := newVM(t, ModeCompat, 0xA000, 0xD010)
	machine.registers[0xF] = 1
	machine.TakeDrawFlag()

	run(t, machine, 2)

	assert.Empty(t, litPixels(machine.Display()))
	assert.Zero(t, machine.registers[0xF])
	assert.True(t, machine.TakeDrawFlag())
}
