// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/atelier-ide/warden/pkg/budget"
	"github.com/atelier-ide/warden/pkg/core"
	"github.com/atelier-ide/warden/pkg/errors"
	"github.com/atelier-ide/warden/pkg/resilience"
	"github.com/atelier-ide/warden/pkg/sources"
	"github.com/atelier-ide/warden/pkg/telemetry"
)

// StepFunc performs the actual work of one step. It is an external
// collaborator: the supervisor never executes agent work itself, it only
// wraps the invocation in a timeout boundary and the governance checks.
type StepFunc func(ctx context.Context, step Step) (StepResult, error)

// Supervisor drives executions with tracing, logging, events, and budget
// accounting around the pure lifecycle functions.
type Supervisor struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	emitter    core.EventEmitter
	conditions []HaltCondition
	session    *budget.SessionMeter
	metrics    *telemetry.GovernanceMetrics
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEmitter sets the event emitter for the execution stream.
func WithEmitter(emitter core.EventEmitter) Option {
	return func(s *Supervisor) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

// WithCondition registers an additional halt condition on top of the
// defaults.
func WithCondition(cond HaltCondition) Option {
	return func(s *Supervisor) {
		s.conditions = append(s.conditions, cond)
	}
}

// WithSessionMeter attaches the shared session counter so step costs count
// against session-wide limits.
func WithSessionMeter(meter *budget.SessionMeter) Option {
	return func(s *Supervisor) {
		s.session = meter
	}
}

// WithMetrics records uncertainty gauges and halt counters on the governance
// meters.
func WithMetrics(metrics *telemetry.GovernanceMetrics) Option {
	return func(s *Supervisor) {
		s.metrics = metrics
	}
}

// New creates a supervisor with the default halt conditions.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		tracer:     otel.Tracer("warden/supervisor"),
		logger:     slog.Default(),
		emitter:    core.NoopEventEmitter{},
		conditions: DefaultHaltConditions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateExecution declares a goal and returns an idle execution.
func (s *Supervisor) CreateExecution(ctx context.Context, goal Goal, cfg Config) (Execution, error) {
	e, err := NewExecution(goal, cfg)
	if err != nil {
		return e, err
	}
	s.logger.Info("supervisor.execution.created",
		slog.String("execution_id", e.ID),
		slog.String("goal", e.Goal.Description),
		slog.Int("max_steps", e.Config.MaxSteps),
	)
	s.emitter.Emit(ctx, core.NewEvent(core.EventDecision, e.ID, map[string]any{
		"event": "execution_created",
		"goal":  e.Goal.Description,
	}))
	return e, nil
}

// EvaluateStep re-evaluates the run against all registered conditions and
// the fresh pre-checks. A failing evaluation halts the execution; the caller
// is structurally forced to inspect the returned evaluation.
func (s *Supervisor) EvaluateStep(ctx context.Context, e Execution, checks PreChecks) (Execution, Evaluation) {
	ctx, span := s.tracer.Start(ctx, "Supervisor.EvaluateStep", trace.WithAttributes(
		attribute.String(telemetry.AttrExecutionID, e.ID),
		attribute.Int(telemetry.AttrStepIndex, e.CurrentIndex),
	))
	defer span.End()

	s.metrics.RecordUncertainty(ctx, e.ID, checks.Uncertainty)
	eval := EvaluateStep(e, checks, s.conditions)
	span.SetAttributes(
		attribute.Bool("evaluation.can_proceed", eval.CanProceed),
		attribute.Bool("evaluation.push_through", eval.PushThrough),
	)

	for _, warning := range eval.Warnings {
		s.logger.Warn("supervisor.step.warning",
			slog.String("execution_id", e.ID),
			slog.String("warning", warning),
		)
	}

	if !eval.CanProceed {
		reason := "halt condition matched"
		if len(eval.HaltReasons) > 0 {
			reason = eval.HaltReasons[0]
		}
		e = Halt(e, reason)
		s.logger.Error("supervisor.execution.halted",
			slog.String("execution_id", e.ID),
			slog.String("reason", reason),
		)
		s.metrics.RecordHalt(ctx, reason)
		s.emitter.Emit(ctx, core.NewEvent(core.EventHalt, e.ID, map[string]any{
			"reason":       reason,
			"push_through": eval.PushThrough,
		}))
	}
	return e, eval
}

// Uncertainty derives the per-step uncertainty score from the context
// governor's ambiguity analysis and the execution history, recording both
// scores on the governance meters.
func (s *Supervisor) Uncertainty(ctx context.Context, e Execution, analysis sources.Analysis) float64 {
	s.metrics.RecordAmbiguity(ctx, e.ID, analysis.Score)
	score := SignalsFrom(analysis, e).Score()
	s.metrics.RecordUncertainty(ctx, e.ID, score)
	return score
}

// StepOutcome reports what happened to one supervised step.
type StepOutcome struct {
	Evaluation  Evaluation
	Step        *Step
	BudgetCheck budget.CheckResult
	TimedOut    bool
}

// ExecuteStep evaluates, runs, and records one step. The step function runs
// behind the configured timeout boundary; a timeout is recorded as a
// maxSecondsPerAction limit violation and halts the run. Step cost is
// charged against the task budget (and the shared session meter when
// attached) in the same operation that records the result.
func (s *Supervisor) ExecuteStep(
	ctx context.Context,
	e Execution,
	task budget.State,
	checks PreChecks,
	description string,
	fn StepFunc,
) (Execution, budget.State, StepOutcome, error) {
	if e.Status != StatusExecuting {
		return e, task, StepOutcome{}, errors.New(errors.CodeRejected,
			"execution is not in the executing state", nil).
			WithContext("status", string(e.Status))
	}

	e, eval := s.EvaluateStep(ctx, e, checks)
	outcome := StepOutcome{Evaluation: eval}
	if !eval.CanProceed {
		return e, task, outcome, nil
	}

	step := Step{
		ID:          uuid.NewString(),
		Index:       e.CurrentIndex,
		Description: description,
		PreChecks:   checks,
		StartedAt:   time.Now().UTC(),
	}

	ctx, span := s.tracer.Start(ctx, "Supervisor.Step", trace.WithAttributes(
		attribute.String(telemetry.AttrExecutionID, e.ID),
		attribute.Int(telemetry.AttrStepIndex, step.Index),
	))
	defer span.End()
	result, err := resilience.WithTimeoutResult(ctx, resilience.TimeoutConfig{Duration: e.Config.StepTimeout}, func() (StepResult, error) {
		return fn(ctx, step)
	})
	step.FinishedAt = time.Now().UTC()
	elapsed := int64(step.FinishedAt.Sub(step.StartedAt).Seconds())

	switch {
	case resilience.IsTimeout(err):
		outcome.TimedOut = true
		result = StepResult{Success: false, Error: err.Error()}
		// Record the action duration at the boundary so the limit check
		// classifies it as exceeded rather than silently dropping the abort.
		if elapsed > task.Usage.SecondsAction {
			task.Usage.SecondsAction = elapsed
		}
	case err != nil:
		result = StepResult{Success: false, Error: err.Error()}
	}

	var deltas budget.Usage
	deltas.StepsCompleted = 1
	deltas.SecondsTask = elapsed
	task, check, budgetErr := budget.UpdateUsage(task, deltas)
	if budgetErr != nil {
		return e, task, outcome, budgetErr
	}
	outcome.BudgetCheck = check

	span.SetAttributes(telemetry.StepAttributes(e.ID, step.Index, result.Success)...)
	for _, v := range check.Violations {
		span.SetAttributes(telemetry.BudgetAttributes(string(v.Metric), string(v.Severity))...)
		s.metrics.RecordBudgetPercentage(ctx, string(v.Metric), v.Percent)
	}

	if s.session != nil {
		if _, err := s.session.UpdateUsage(ctx, budget.Usage{StepsCompleted: 1}); err != nil {
			return e, task, outcome, err
		}
	}

	e = CompleteStep(e, step, result)
	outcome.Step = &e.Steps[len(e.Steps)-1]

	s.logger.Info("supervisor.step.completed",
		slog.String("execution_id", e.ID),
		slog.Int("step_index", step.Index),
		slog.Bool("success", result.Success),
	)

	if outcome.TimedOut || check.MustHalt {
		reason := check.HaltReason
		if outcome.TimedOut && reason == "" {
			reason = "step exceeded maxSecondsPerAction"
		}
		e = Halt(e, reason)
		s.metrics.RecordHalt(ctx, reason)
		s.emitter.Emit(ctx, core.NewEvent(core.EventHalt, e.ID, map[string]any{
			"reason":    reason,
			"timed_out": outcome.TimedOut,
		}))
	}
	return e, task, outcome, nil
}

// Resume returns a halted execution to executing with a logged resolution.
func (s *Supervisor) Resume(ctx context.Context, e Execution, resolution string) (Execution, error) {
	e, err := Resume(e, resolution)
	if err != nil {
		return e, err
	}
	s.logger.Info("supervisor.execution.resumed",
		slog.String("execution_id", e.ID),
		slog.String("resolution", resolution),
	)
	s.emitter.Emit(ctx, core.NewEvent(core.EventResume, e.ID, map[string]any{
		"resolution": resolution,
	}))
	return e, nil
}

// Halt forces the execution into the halted state, recording the reason.
func (s *Supervisor) Halt(ctx context.Context, e Execution, reason string) Execution {
	e = Halt(e, reason)
	s.emitter.Emit(ctx, core.NewEvent(core.EventHalt, e.ID, map[string]any{
		"reason": reason,
	}))
	return e
}
