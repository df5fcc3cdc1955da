package vm

const spriteWidth = 8

// drawSprite XORs an 8xN sprite read from memory at I onto the display at
// (V[vX], V[vY]). Both axes wrap. VF ends up 1 if any lit pixel was turned
// off and 0 otherwise.
func (vm *VM) drawSprite(vX, vY, height uint16) error {
	xLocation, yLocation := int(vm.registers[vX]), int(vm.registers[vY])

	vm.registers[flagRegister] = 0

	collision := false
	for y := 0; y < int(height); y++ {
		row, err := vm.load(int(vm.index) + y)
		if err != nil {
			return err
		}

		for x := 0; x < spriteWidth; x++ {
			if row&(0x80>>x) == 0 {
				continue
			}

			screenAddr := getScreenAddr(x+xLocation, y+yLocation)
			collision = collision || vm.gfx[screenAddr]
			vm.gfx[screenAddr] = !vm.gfx[screenAddr]
		}
	}

	vm.registers[flagRegister] = boolToFlag(collision)
	vm.drawFlag = true
	return nil
}

func getScreenAddr(x, y int) int {
	x %= ScreenWidth
	y %= ScreenHeight

	return x + ScreenWidth*y
}
