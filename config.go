package main

import (
	"errors"
	"fmt"

	"github.com/kapitanov/chip8core/internal/emulator"
	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/spf13/pflag"
)

type config struct {
	verbose     bool
	disassemble bool
	mute        bool
	mode        modeValue
	speed       int
	scale       int
	seed        uint64
}

// modeValue adapts vm.Mode to a pflag.Value.
type modeValue struct {
	vm.Mode
}

var _ pflag.Value = (*modeValue)(nil)

func (m *modeValue) Set(s string) error {
	mode, err := vm.ParseMode(s)
	if err != nil {
		return err
	}
	m.Mode = mode
	return nil
}

func (m *modeValue) Type() string {
	return "mode"
}

func bindFlags(fs *pflag.FlagSet) *config {
	cfg := &config{}

	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable verbose logging")
	fs.BoolVar(&cfg.disassemble, "disassemble", false, "print a listing of the program and exit")
	fs.BoolVar(&cfg.mute, "mute", false, "disable sound")
	fs.Var(&cfg.mode, "mode", "instruction semantics: compat or canonical")
	fs.IntVar(&cfg.speed, "speed", emulator.DefaultInstructionsPerFrame, "instructions executed per frame")
	fs.IntVar(&cfg.scale, "scale", hal.DefaultScale, "window pixels per display cell")
	fs.Uint64Var(&cfg.seed, "seed", 0, "seed for the random number generator (0 means unseeded)")

	return cfg
}

func (cfg *config) validate() error {
	var errs []error

	if cfg.speed <= 0 {
		errs = append(errs, fmt.Errorf("--speed must be positive, got %d", cfg.speed))
	}
	if cfg.scale <= 0 {
		errs = append(errs, fmt.Errorf("--scale must be positive, got %d", cfg.scale))
	}

	return errors.Join(errs...)
}

func (cfg *config) vmOptions() []vm.Option {
	opts := []vm.Option{vm.WithMode(cfg.mode.Mode)}
	if cfg.seed != 0 {
		opts = append(opts, vm.WithRandom(vm.NewSeededRandom(cfg.seed)))
	}
	return opts
}

func (cfg *config) emulatorConfig() emulator.Config {
	return emulator.Config{
		InstructionsPerFrame: cfg.speed,
	}
}

func (cfg *config) halConfig() hal.Config {
	return hal.Config{
		Scale: cfg.scale,
		Mute:  cfg.mute,
	}
}
