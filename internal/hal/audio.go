package hal

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	sampleRate    = 44100
	toneFrequency = 440
	toneDuration  = 120 * time.Millisecond
	toneAmplitude = 0x20
)

// beeper plays a short square wave on a queued SDL audio device.
type beeper struct {
	device sdl.AudioDeviceID
	tone   []byte
}

// newBeeper brings up the audio subsystem on its own so that a host without
// an audio driver can still open the window.
func newBeeper() (*beeper, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("failed to init sdl audio: %w", err)
	}

	spec := &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  512,
	}

	device, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, fmt.Errorf("failed to open sdl audio device: %w", err)
	}
	sdl.PauseAudioDevice(device, false)

	return &beeper{
		device: device,
		tone:   squareWave(sampleRate, toneFrequency, toneDuration),
	}, nil
}

func squareWave(rate, freq int, d time.Duration) []byte {
	const silence = 0x80

	n := int(int64(rate) * int64(d) / int64(time.Second))
	half := rate / freq / 2

	buf := make([]byte, n)
	for i := range buf {
		if (i/half)%2 == 0 {
			buf[i] = silence + toneAmplitude
		} else {
			buf[i] = silence - toneAmplitude
		}
	}
	return buf
}

func (b *beeper) Beep() error {
	// Drop anything still queued so cues don't pile up.
	sdl.ClearQueuedAudio(b.device)

	if err := sdl.QueueAudio(b.device, b.tone); err != nil {
		return fmt.Errorf("failed to queue audio: %w", err)
	}
	return nil
}

func (b *beeper) Close() {
	sdl.CloseAudioDevice(b.device)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
}
