package hal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	DefaultScale     = 10
	DefaultFrameRate = 60

	// Audio is brought up separately by the beeper.
	initFlags = sdl.INIT_VIDEO | sdl.INIT_EVENTS
)

type Config struct {
	Scale     int  // Window pixels per display cell
	FrameRate int  // Frames per second
	Mute      bool // Do not open an audio device
}

type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int

	audio *beeper

	frameDuration time.Duration
	nextFrame     time.Time
}

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

func New(cfg Config) (*HAL, error) {
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultFrameRate
	}

	if err := sdl.Init(initFlags); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	windowWidth := int32(vm.ScreenWidth * cfg.Scale)
	windowHeight := int32(vm.ScreenHeight * cfg.Scale)

	window, err := sdl.CreateWindow("CHIP-8", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, windowWidth, windowHeight, sdl.WINDOW_SHOWN|sdl.WINDOW_UTILITY)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window", "width", windowWidth, "height", windowHeight)
	window.Show()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		destroy(window)
		return nil, fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	err = renderer.SetLogicalSize(windowWidth, windowHeight)
	if err != nil {
		destroy(renderer, window)
		return nil, fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, vm.ScreenWidth, vm.ScreenHeight)
	if err != nil {
		destroy(renderer, window)
		return nil, fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture")

	var audio *beeper
	if !cfg.Mute {
		audio, err = newBeeper()
		if err != nil {
			// Sound is a nicety; run silent rather than refuse to start.
			slog.Warn("hal: audio unavailable", "err", err)
		} else {
			slog.Debug("hal: open audio device")
		}
	}

	return &HAL{
		window:          window,
		renderer:        renderer,
		texture:         texture,
		backBuffer:      make([]uint32, vm.ScreenWidth*vm.ScreenHeight),
		backBufferPitch: int(vm.ScreenWidth) * int(unsafe.Sizeof(uint32(0))),
		audio:           audio,
		frameDuration:   time.Second / time.Duration(cfg.FrameRate),
	}, nil
}

type destroyer interface {
	Destroy() error
}

// destroy releases partially created SDL resources in order and shuts SDL
// down again.
func destroy(resources ...destroyer) {
	for _, r := range resources {
		if err := r.Destroy(); err != nil {
			slog.Error("hal: failed to release sdl resource", "err", err)
		}
	}
	sdl.Quit()
}

func (hal *HAL) Shutdown() {
	if hal.audio != nil {
		hal.audio.Close()
	}

	if err := hal.texture.Destroy(); err != nil {
		slog.Error("failed to destroy sdl texture", "err", err)
	}

	if err := hal.renderer.Destroy(); err != nil {
		slog.Error("failed to destroy sdl renderer", "err", err)
	}

	if err := hal.window.Destroy(); err != nil {
		slog.Error("failed to destroy sdl window", "err", err)
	}

	sdl.Quit()
}

func (hal *HAL) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return ErrQuit
		case sdl.KEYDOWN:
			err := hal.processKeyDown(e.(*sdl.KeyboardEvent), keyDown)
			if err != nil {
				return err
			}

		case sdl.KEYUP:
			hal.processKeyUp(e.(*sdl.KeyboardEvent), keyUp)
		}
	}

	return nil
}

func (hal *HAL) processKeyDown(e *sdl.KeyboardEvent, callback func(vm.Key)) error {
	switch e.Keysym.Scancode {
	case sdl.SCANCODE_ESCAPE:
		slog.Debug("hal: exit requested")
		return ErrQuit
	case sdl.SCANCODE_BACKSPACE:
		slog.Debug("hal: reboot requested")
		return ErrReboot
	}

	if e.Repeat != 0 {
		return nil
	}

	key, ok := keyMap(e.Keysym.Scancode)
	if ok {
		callback(key)
	}

	return nil
}

func (hal *HAL) processKeyUp(e *sdl.KeyboardEvent, callback func(vm.Key)) {
	key, ok := keyMap(e.Keysym.Scancode)
	if ok {
		callback(key)
	}
}

func keyMap(scancode sdl.Scancode) (vm.Key, bool) {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	switch scancode {
	case sdl.SCANCODE_X:
		return vm.Key0, true
	case sdl.SCANCODE_1:
		return vm.Key1, true
	case sdl.SCANCODE_2:
		return vm.Key2, true
	case sdl.SCANCODE_3:
		return vm.Key3, true
	case sdl.SCANCODE_Q:
		return vm.Key4, true
	case sdl.SCANCODE_W:
		return vm.Key5, true
	case sdl.SCANCODE_E:
		return vm.Key6, true
	case sdl.SCANCODE_A:
		return vm.Key7, true
	case sdl.SCANCODE_S:
		return vm.Key8, true
	case sdl.SCANCODE_D:
		return vm.Key9, true
	case sdl.SCANCODE_Z:
		return vm.KeyA, true
	case sdl.SCANCODE_C:
		return vm.KeyB, true
	case sdl.SCANCODE_4:
		return vm.KeyC, true
	case sdl.SCANCODE_R:
		return vm.KeyD, true
	case sdl.SCANCODE_F:
		return vm.KeyE, true
	case sdl.SCANCODE_V:
		return vm.KeyF, true
	default:
		return 0, false
	}
}

func (hal *HAL) Draw(gfx []bool) error {
	const (
		bgColor = uint32(0x000000)
		fgColor = uint32(0xbea700)
	)

	for i, on := range gfx {
		color := bgColor
		if on {
			color = fgColor
		}

		hal.backBuffer[i] = color
	}

	backBufferPtr := unsafe.Pointer(&hal.backBuffer[0])
	if err := hal.texture.Update(nil, backBufferPtr, hal.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := hal.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := hal.renderer.Copy(hal.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	hal.renderer.Present()
	return nil
}

func (hal *HAL) Beep() error {
	if hal.audio == nil {
		return nil
	}

	return hal.audio.Beep()
}

// WaitForNextFrame sleeps until the next frame boundary. If the emulator has
// fallen behind by more than a frame the schedule restarts from now instead
// of trying to catch up.
func (hal *HAL) WaitForNextFrame() error {
	now := time.Now()
	if hal.nextFrame.IsZero() || now.Sub(hal.nextFrame) > hal.frameDuration {
		hal.nextFrame = now
	}

	hal.nextFrame = hal.nextFrame.Add(hal.frameDuration)
	time.Sleep(time.Until(hal.nextFrame))
	return nil
}
