// Package session coordinates the two agent invocations behind one
// learner message: the tracker is launched first and never awaited; the
// responder is awaited and its output returned to the caller.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/lango/internal/agent"
	"github.com/kalambet/lango/internal/workspace"
)

const defaultTrackerTimeout = 45 * time.Second

// NotBootstrappedError means an operation assumed a workspace that was
// never bootstrapped.
type NotBootstrappedError struct {
	Language string
}

func (e *NotBootstrappedError) Error() string {
	return fmt.Sprintf("language %q is not set up; bootstrap it first", e.Language)
}

// AgentFailure means the responder process ran but exited non-zero. The
// captured error stream is carried for the user.
type AgentFailure struct {
	Language string
	Stderr   string
}

func (e *AgentFailure) Error() string {
	return fmt.Sprintf("agent error for %s: %s", e.Language, strings.TrimSpace(e.Stderr))
}

// Exchange is one completed learner interaction, recorded for the
// activity journal.
type Exchange struct {
	ID          string
	Language    string
	Message     string
	Reply       string
	ResponderMS int64
	CreatedAt   time.Time
}

// Recorder persists exchanges and tracker outcomes. Recording is on the
// observation path only: failures are logged and dropped, and no recorder
// call may block or alter the responder result.
type Recorder interface {
	SaveExchange(e Exchange) error
	SetTrackerOutcome(exchangeID, outcome string) error
}

// Options configures an Orchestrator. The zero value of each field gets a
// sensible default.
type Options struct {
	Binary         string
	TrackerTimeout time.Duration
	Recorder       Recorder
	Logger         *slog.Logger
}

// Orchestrator resolves workspaces and runs the responder/tracker pair.
type Orchestrator struct {
	workspaces     *workspace.Resolver
	runner         agent.Runner
	binary         string
	trackerTimeout time.Duration
	recorder       Recorder
	logger         *slog.Logger

	trackers sync.WaitGroup
}

// New creates an Orchestrator over the given workspace resolver and
// process runner.
func New(workspaces *workspace.Resolver, runner agent.Runner, opts Options) *Orchestrator {
	if opts.Binary == "" {
		opts.Binary = "claude"
	}
	if opts.TrackerTimeout <= 0 {
		opts.TrackerTimeout = defaultTrackerTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		workspaces:     workspaces,
		runner:         runner,
		binary:         opts.Binary,
		trackerTimeout: opts.TrackerTimeout,
		recorder:       opts.Recorder,
		logger:         opts.Logger,
	}
}

// SendMessage launches the tracker (fire-and-forget), awaits the
// responder, and returns the responder's trimmed output. Tracker
// dispatch is issued before the responder wait begins; no ordering
// between the two completions is guaranteed. The responder has no
// timeout beyond the caller's ctx.
func (o *Orchestrator) SendMessage(ctx context.Context, language, message string) (string, error) {
	ws, err := o.workspaces.Resolve(language)
	if err != nil {
		return "", err
	}
	if !ws.Exists() {
		return "", &NotBootstrappedError{Language: language}
	}

	exchangeID := uuid.New().String()
	o.launchTracker(ws, exchangeID, message)

	start := time.Now()
	res, err := o.runner.Run(ctx, agent.Responder(o.binary, ws.Dir, message))
	if err != nil {
		return "", fmt.Errorf("responder for %s: %w", language, err)
	}
	if !res.ExitOK {
		return "", &AgentFailure{Language: language, Stderr: res.Stderr}
	}

	reply := strings.TrimSpace(res.Stdout)
	o.record(Exchange{
		ID:          exchangeID,
		Language:    ws.Key,
		Message:     message,
		Reply:       reply,
		ResponderMS: time.Since(start).Milliseconds(),
		CreatedAt:   start.UTC(),
	})
	return reply, nil
}

// launchTracker starts the detached tracker invocation. Every outcome
// (timeout, spawn failure, non-zero exit) is terminal for that invocation
// and only ever logged; nothing here can reach the responder's path.
func (o *Orchestrator) launchTracker(ws workspace.Workspace, exchangeID, message string) {
	trackerDir := ws.TrackerDir()
	if err := os.MkdirAll(trackerDir, 0o755); err != nil {
		o.logger.Warn("tracker dir unavailable, skipping tracker", "language", ws.Key, "error", err)
		return
	}

	inv := agent.Tracker(o.binary, trackerDir, message)

	o.trackers.Add(1)
	go func() {
		defer o.trackers.Done()

		// Detached from the caller: the tracker outlives the request and
		// its timeout is its only cancellation.
		ctx, cancel := context.WithTimeout(context.Background(), o.trackerTimeout)
		defer cancel()

		outcome := "ok"
		res, err := o.runner.Run(ctx, inv)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
			o.logger.Warn("tracker timed out", "language", ws.Key, "exchange_id", exchangeID, "timeout", o.trackerTimeout)
		case err != nil:
			outcome = "spawn_failed"
			o.logger.Warn("tracker failed to start", "language", ws.Key, "exchange_id", exchangeID, "error", err)
		case !res.ExitOK:
			outcome = "exit_error"
			o.logger.Warn("tracker exited with error", "language", ws.Key, "exchange_id", exchangeID, "stderr", strings.TrimSpace(res.Stderr))
		default:
			o.logger.Debug("tracker completed", "language", ws.Key, "exchange_id", exchangeID)
		}

		if o.recorder != nil {
			if err := o.recorder.SetTrackerOutcome(exchangeID, outcome); err != nil {
				o.logger.Warn("recording tracker outcome failed", "exchange_id", exchangeID, "error", err)
			}
		}
	}()
}

func (o *Orchestrator) record(e Exchange) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.SaveExchange(e); err != nil {
		o.logger.Warn("recording exchange failed", "exchange_id", e.ID, "error", err)
	}
}
