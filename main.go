package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/kapitanov/chip8core/internal/emulator"
	"github.com/kapitanov/chip8core/internal/hal"
	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/spf13/cobra"
)

func main() {
	cmd := newCommand()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", "err", err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run emulator",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cfg := bindFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if cfg.verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))

		if err := cfg.validate(); err != nil {
			return err
		}

		path := args[0]
		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to load file %q: %w", path, err)
		}

		if cfg.disassemble {
			return printListing(cmd.OutOrStdout(), bs, cfg.mode.Mode)
		}

		machine := vm.New(cfg.vmOptions()...)
		if err := machine.Load(bs); err != nil {
			return fmt.Errorf("unable to load program %q: %w", path, err)
		}

		h, err := hal.New(cfg.halConfig())
		if err != nil {
			return fmt.Errorf("unable to initialize hal: %w", err)
		}
		defer h.Shutdown()

		return run(cmd.Context(), machine, h, cfg.emulatorConfig())
	}

	return cmd
}

// run drives the emulator until the user quits, rebooting the machine on
// request.
func run(ctx context.Context, machine *vm.VM, h emulator.HAL, cfg emulator.Config) error {
	slog.Info("start", "mode", machine.Mode(), "speed", cfg.InstructionsPerFrame)

	for {
		err := emulator.New(machine, h, cfg).Run(ctx)

		switch {
		case errors.Is(err, hal.ErrQuit), errors.Is(err, context.Canceled):
			return nil

		case errors.Is(err, hal.ErrReboot):
			slog.Info("reboot")
			machine.Reset()
			continue
		}

		return err
	}
}

func printListing(w io.Writer, program []byte, mode vm.Mode) error {
	lines, err := vm.Listing(program, mode)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
