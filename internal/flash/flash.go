// Package flash runs the external flashing tool against a firmware image.
package flash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultTool    = "st-flash"
	DefaultAddress = "0x08000000" // STM32 flash base
)

// Invoker spawns the flashing tool as `<tool> write <image> <address>`.
type Invoker struct {
	Tool    string
	Address string
}

// NewInvoker returns an invoker for tool, falling back to the defaults
// for empty arguments.
func NewInvoker(tool, address string) *Invoker {
	if tool == "" {
		tool = DefaultTool
	}
	if address == "" {
		address = DefaultAddress
	}
	return &Invoker{Tool: tool, Address: address}
}

// Outcome is the result of one flash run.
type Outcome struct {
	Success  bool
	ExitCode int // -1 when the tool never ran
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Message returns the text shown to the operator after a run.
func (o Outcome) Message() string {
	if o.Success {
		return strings.TrimRight("Flash successful!\n\n"+o.Stdout, "\n")
	}
	var fe *FlashError
	if errors.As(o.Err, &fe) && !fe.Started {
		return fe.Error()
	}
	msg := "Flash failed!"
	if o.Err != nil {
		msg = "Flash failed: " + o.Err.Error()
	}
	detail := o.Stderr
	if strings.TrimSpace(detail) == "" {
		detail = o.Stdout
	}
	return strings.TrimRight(msg+"\n\n"+detail, "\n")
}

// FlashError describes a failed flash run.
type FlashError struct {
	Tool     string
	Path     string
	Started  bool
	ExitCode int
	Err      error
}

func (e *FlashError) Error() string {
	switch {
	case !e.Started:
		return fmt.Sprintf("failed to start %s: %v", e.Tool, e.Err)
	case e.ExitCode >= 0:
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	default:
		return fmt.Sprintf("%s terminated: %v", e.Tool, e.Err)
	}
}

func (e *FlashError) Unwrap() error { return e.Err }

// Args returns the tool arguments for flashing path.
func (inv *Invoker) Args(path string) []string {
	return []string{"write", path, inv.Address}
}

// Flash writes the image at path to the board. It blocks until the tool
// exits and must not be called from the render loop.
func (inv *Invoker) Flash(ctx context.Context, path string) Outcome {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		return Outcome{
			ExitCode: -1,
			Err:      &FlashError{Tool: inv.Tool, Path: path, ExitCode: -1, Err: fmt.Errorf("firmware image: %w", err)},
		}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.Tool, inv.Args(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("flashing firmware", "tool", inv.Tool, "path", path, "address", inv.Address)
	err := cmd.Run()

	out := Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		out.Success = true
		slog.Info("flash complete", "duration", out.Duration)
		return out
	}

	fe := &FlashError{Tool: inv.Tool, Path: path, ExitCode: -1, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		fe.Started = true
		fe.ExitCode = exitErr.ExitCode()
	}
	out.ExitCode = fe.ExitCode
	out.Err = fe
	slog.Warn("flash failed", "error", out.Err, "stderr", strings.TrimSpace(out.Stderr))
	return out
}
