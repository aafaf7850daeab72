// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor drives a single multi-step agent run: the goal is
// declared up front, every step is re-evaluated against the registered halt
// conditions before it runs, and a halted run stays halted until an explicit,
// logged resolution.
package supervisor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelier-ide/warden/pkg/errors"
)

// Status is the lifecycle state of an execution.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusPlanning        Status = "planning"
	StatusExecuting       Status = "executing"
	StatusWaitingApproval Status = "waiting_approval"
	StatusHalted          Status = "halted"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// Goal is the declared objective of a run. Success criteria and stopping
// conditions are mandatory and declared before any step executes.
type Goal struct {
	Description        string   `yaml:"description"`
	SuccessCriteria    []string `yaml:"success_criteria"`
	Assumptions        []string `yaml:"assumptions"`
	StoppingConditions []string `yaml:"stopping_conditions"`
}

// Validate checks the goal is complete enough to supervise against.
func (g Goal) Validate() error {
	if g.Description == "" {
		return errors.New(errors.CodeInvalidInput, "goal requires a description", nil)
	}
	if len(g.SuccessCriteria) == 0 {
		return errors.New(errors.CodeInvalidInput, "goal requires at least one success criterion", nil)
	}
	if len(g.StoppingConditions) == 0 {
		return errors.New(errors.CodeInvalidInput, "goal requires at least one stopping condition", nil)
	}
	return nil
}

// PreChecks are computed before a step runs, never after.
type PreChecks struct {
	GoalStillValid    bool
	ScopeUnchanged    bool
	Uncertainty       float64 // 0..100
	BudgetRemaining   bool
	BudgetConstrained bool // in the critical band but not exhausted
	DependenciesMet   bool
}

// StepResult is recorded after a step runs.
type StepResult struct {
	Success           bool
	ChangesApplied    []string
	RollbackAvailable bool
	Error             string
}

// Step is one supervised step of an execution. Synthetic steps record
// resolutions and other supervisory actions rather than agent work.
type Step struct {
	ID          string
	Index       int
	Description string
	PreChecks   PreChecks
	Result      *StepResult
	StartedAt   time.Time
	FinishedAt  time.Time
	Synthetic   bool
}

// Config bounds one execution.
type Config struct {
	MaxSteps             int           `koanf:"max_steps"`
	UncertaintyThreshold float64       `koanf:"uncertainty_threshold"`
	StepTimeout          time.Duration `koanf:"step_timeout"`
}

// DefaultConfig returns the default execution bounds.
func DefaultConfig() Config {
	return Config{
		MaxSteps:             20,
		UncertaintyThreshold: 70,
		StepTimeout:          2 * time.Minute,
	}
}

// Execution aggregates a run: the goal, its steps, and the halt bookkeeping.
type Execution struct {
	ID           string
	Goal         Goal
	Config       Config
	Status       Status
	Steps        []Step
	CurrentIndex int
	HaltReason   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewExecution creates an idle execution with a validated goal.
func NewExecution(goal Goal, cfg Config) (Execution, error) {
	if err := goal.Validate(); err != nil {
		return Execution{}, err
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultConfig().MaxSteps
	}
	if cfg.UncertaintyThreshold <= 0 {
		cfg.UncertaintyThreshold = DefaultConfig().UncertaintyThreshold
	}
	now := time.Now().UTC()
	return Execution{
		ID:        uuid.NewString(),
		Goal:      goal,
		Config:    cfg,
		Status:    StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// BeginPlanning moves an idle execution into planning.
func BeginPlanning(e Execution) (Execution, error) {
	return setStatus(e, StatusIdle, StatusPlanning)
}

// BeginExecuting moves a planned execution into executing.
func BeginExecuting(e Execution) (Execution, error) {
	return setStatus(e, StatusPlanning, StatusExecuting)
}

// AwaitApproval parks an executing run until a required approval arrives.
func AwaitApproval(e Execution) (Execution, error) {
	return setStatus(e, StatusExecuting, StatusWaitingApproval)
}

// ApprovalGranted returns a waiting run to executing.
func ApprovalGranted(e Execution) (Execution, error) {
	return setStatus(e, StatusWaitingApproval, StatusExecuting)
}

// Halt forces the execution into the halted state with a reason. Halting is
// idempotent on an already-halted run.
func Halt(e Execution, reason string) Execution {
	if e.Status == StatusHalted {
		return e
	}
	e.Status = StatusHalted
	e.HaltReason = reason
	e.UpdatedAt = time.Now().UTC()
	return e
}

// Resume returns a halted execution to executing. The resolution string is
// mandatory and recorded as a synthetic step; there is no silent auto-resume.
func Resume(e Execution, resolution string) (Execution, error) {
	if e.Status != StatusHalted {
		return e, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("cannot resume execution in status %s", e.Status), nil)
	}
	if resolution == "" {
		return e, errors.New(errors.CodeHalted, "resuming a halted execution requires a resolution", nil)
	}
	now := time.Now().UTC()
	e.Steps = appendStep(e.Steps, Step{
		ID:          uuid.NewString(),
		Index:       e.CurrentIndex,
		Description: "resume: " + resolution,
		StartedAt:   now,
		FinishedAt:  now,
		Synthetic:   true,
		Result:      &StepResult{Success: true},
	})
	e.Status = StatusExecuting
	e.HaltReason = ""
	e.UpdatedAt = now
	return e, nil
}

// Complete marks the execution as successfully finished.
func Complete(e Execution) (Execution, error) {
	return setStatus(e, StatusExecuting, StatusCompleted)
}

// Fail marks the execution as failed with a reason.
func Fail(e Execution, reason string) Execution {
	e.Status = StatusFailed
	e.HaltReason = reason
	e.UpdatedAt = time.Now().UTC()
	return e
}

// CompleteStep records a finished step and advances the index.
func CompleteStep(e Execution, step Step, result StepResult) Execution {
	step.Result = &result
	if step.FinishedAt.IsZero() {
		step.FinishedAt = time.Now().UTC()
	}
	e.Steps = appendStep(e.Steps, step)
	e.CurrentIndex++
	e.UpdatedAt = time.Now().UTC()
	return e
}

// CompletedSteps counts non-synthetic steps with a recorded result.
func CompletedSteps(e Execution) int {
	count := 0
	for _, s := range e.Steps {
		if !s.Synthetic && s.Result != nil {
			count++
		}
	}
	return count
}

// FailedSteps counts non-synthetic steps that finished unsuccessfully.
func FailedSteps(e Execution) int {
	count := 0
	for _, s := range e.Steps {
		if !s.Synthetic && s.Result != nil && !s.Result.Success {
			count++
		}
	}
	return count
}

// lastTwoCompletedFailed reports whether the two most recently completed
// steps both failed with no supervisory resolution between them. A synthetic
// resolution step closes the failure window: a resumed run is judged only on
// the steps that follow the resolution, otherwise the guard would re-halt it
// forever and halted would stop being a resumable state.
func lastTwoCompletedFailed(e Execution) bool {
	var last, prev *StepResult
	for i := len(e.Steps) - 1; i >= 0; i-- {
		s := e.Steps[i]
		if s.Synthetic {
			break
		}
		if s.Result == nil {
			continue
		}
		if last == nil {
			last = s.Result
			continue
		}
		prev = s.Result
		break
	}
	return last != nil && prev != nil && !last.Success && !prev.Success
}

// Summary condenses an execution for the UI and persistence collaborators.
type Summary struct {
	ID             string
	Goal           string
	Status         Status
	StepsCompleted int
	StepsFailed    int
	CurrentIndex   int
	MaxSteps       int
	HaltReason     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Summarize builds a read-only summary of the execution.
func Summarize(e Execution) Summary {
	return Summary{
		ID:             e.ID,
		Goal:           e.Goal.Description,
		Status:         e.Status,
		StepsCompleted: CompletedSteps(e),
		StepsFailed:    FailedSteps(e),
		CurrentIndex:   e.CurrentIndex,
		MaxSteps:       e.Config.MaxSteps,
		HaltReason:     e.HaltReason,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func setStatus(e Execution, from, to Status) (Execution, error) {
	if e.Status != from {
		return e, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("cannot move execution from %s to %s", e.Status, to), nil)
	}
	e.Status = to
	e.UpdatedAt = time.Now().UTC()
	return e, nil
}

func appendStep(steps []Step, step Step) []Step {
	out := make([]Step, len(steps), len(steps)+1)
	copy(out, steps)
	return append(out, step)
}
