package agent

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestResponderInvocation(t *testing.T) {
	inv := Responder("claude", "/data/korean", "안녕하세요")

	if inv.Dir != "/data/korean" {
		t.Errorf("dir = %q, want workspace root", inv.Dir)
	}
	want := []string{"--dangerously-skip-permissions", "--continue", "-p", "안녕하세요"}
	if len(inv.Args) != len(want) {
		t.Fatalf("args = %v, want %v", inv.Args, want)
	}
	for i := range want {
		if inv.Args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, inv.Args[i], want[i])
		}
	}
}

func TestTrackerInvocation(t *testing.T) {
	inv := Tracker("claude", "/data/korean/.tracker", "hola amigo")

	if inv.Dir != "/data/korean/.tracker" {
		t.Errorf("dir = %q, want tracker subdirectory", inv.Dir)
	}
	if inv.Args[0] != "--dangerously-skip-permissions" || inv.Args[1] != "-p" {
		t.Errorf("args = %v, want permission bypass then prompt flag", inv.Args[:2])
	}
	prompt := inv.Args[2]
	if !strings.Contains(prompt, "hola amigo") {
		t.Errorf("prompt missing substituted message")
	}
	if strings.Contains(prompt, "{{MESSAGE}}") {
		t.Errorf("prompt still contains substitution marker")
	}
	if !strings.Contains(prompt, "repetitions == 2: interval = 6") {
		t.Errorf("prompt missing SM-2 instructions")
	}
}

func TestExecRunner_SpawnFailure(t *testing.T) {
	r := ExecRunner{}

	_, err := r.Run(context.Background(), Invocation{
		Binary: "lango-test-binary-that-does-not-exist",
		Args:   []string{"-p", "hi"},
		Dir:    t.TempDir(),
	})

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Run = %v, want SpawnError", err)
	}
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	r := ExecRunner{}

	res, err := r.Run(context.Background(), Invocation{
		Binary: "sh",
		Args:   []string{"-c", "echo out; echo err >&2"},
		Dir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.ExitOK {
		t.Errorf("ExitOK = false, want true")
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("stdout = %q, want out", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("stderr = %q, want err", res.Stderr)
	}
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	r := ExecRunner{}

	res, err := r.Run(context.Background(), Invocation{
		Binary: "sh",
		Args:   []string{"-c", "echo broken >&2; exit 3"},
		Dir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitOK {
		t.Errorf("ExitOK = true, want false")
	}
	if !strings.Contains(res.Stderr, "broken") {
		t.Errorf("stderr = %q, want captured error text", res.Stderr)
	}
}

func TestExecRunner_ContextTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sleep")
	}
	r := ExecRunner{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, Invocation{
		Binary: "sleep",
		Args:   []string{"5"},
		Dir:    t.TempDir(),
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run = %v, want context.DeadlineExceeded", err)
	}
}
