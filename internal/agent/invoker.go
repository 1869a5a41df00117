// Package agent builds and executes invocations of the external agent
// CLI. Two shapes share one executor: the responder continues the
// workspace's most recent conversation and blocks for its reply; the
// tracker runs detached in the workspace's .tracker subdirectory so the
// CLI treats it as an unrelated conversation thread.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Invocation describes one external process call. Not persisted.
type Invocation struct {
	Binary string
	Args   []string
	Dir    string
}

// Result is the outcome of an invocation whose process actually ran.
type Result struct {
	Stdout string
	Stderr string
	ExitOK bool
}

// SpawnError means the process could not be started at all (binary not on
// PATH, bad working directory). Distinct from a process that ran and
// exited non-zero, which is reported through Result.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Runner executes invocations. Faked in tests.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecRunner runs invocations as real child processes with captured
// output streams. On Windows the child's console window is suppressed;
// elsewhere that is a no-op.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...)
	cmd.Dir = inv.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	hideConsoleWindow(cmd)

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		ExitOK: err == nil,
	}
	if err != nil {
		// A killed process surfaces as an ExitError too, so the context
		// check must come first or a timeout reads as a plain bad exit.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Ran but failed; the caller decides what the exit status means.
			return res, nil
		}
		return res, &SpawnError{Binary: inv.Binary, Err: err}
	}
	return res, nil
}

// Responder builds the blocking invocation that produces the learner's
// reply: skip permission prompts, continue the most recent conversation,
// pass the raw message as the prompt. Runs in the workspace root.
func Responder(binary, workspaceDir, message string) Invocation {
	return Invocation{
		Binary: binary,
		Args:   []string{"--dangerously-skip-permissions", "--continue", "-p", message},
		Dir:    workspaceDir,
	}
}

// Tracker builds the fire-and-forget invocation that updates the
// vocabulary and grammar stores. It runs in the .tracker subdirectory and
// carries the progress-update instructions with the learner's message
// substituted in.
func Tracker(binary, trackerDir, message string) Invocation {
	return Invocation{
		Binary: binary,
		Args:   []string{"--dangerously-skip-permissions", "-p", strings.ReplaceAll(trackerPrompt, "{{MESSAGE}}", message)},
		Dir:    trackerDir,
	}
}
