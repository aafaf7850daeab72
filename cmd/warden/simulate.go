// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/atelier-ide/warden/pkg/budget"
	"github.com/atelier-ide/warden/pkg/config"
	"github.com/atelier-ide/warden/pkg/core"
	"github.com/atelier-ide/warden/pkg/sources"
	"github.com/atelier-ide/warden/pkg/supervisor"
	"github.com/atelier-ide/warden/pkg/telemetry"
)

// runSimulate dry-runs a plan through the supervisor: every step succeeds
// instantly, so what the simulation shows is purely the governance behavior
// (halt conditions, budget consumption, push-through guard) for that plan
// under the configured limits.
func runSimulate(ctx context.Context, flags globalFlags, cfg *config.Config, metrics *telemetry.GovernanceMetrics, args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("usage: warden simulate <plan.yaml>"))
	}
	plan, err := supervisor.LoadPlan(args[0])
	if err != nil {
		fatal(err)
	}

	ctx, _ = core.EnsureRunID(ctx)
	ctx, cancel := context.WithTimeout(ctx, flags.Timeout)
	defer cancel()

	sup := supervisor.New(supervisor.WithMetrics(metrics))
	execution, err := sup.CreateExecution(ctx, plan.Goal, plan.ExecutionConfig())
	if err != nil {
		fatal(err)
	}
	if execution, err = supervisor.BeginPlanning(execution); err != nil {
		fatal(err)
	}
	if execution, err = supervisor.BeginExecuting(execution); err != nil {
		fatal(err)
	}

	task := budget.NewState(cfg.Budget)
	analysis := sources.AnalyzeAmbiguity(sources.NewState(cfg.Context))
	checks := supervisor.PreChecks{
		GoalStillValid:  true,
		ScopeUnchanged:  true,
		BudgetRemaining: true,
		DependenciesMet: true,
	}

	type stepReport struct {
		Index       int    `json:"index"`
		Description string `json:"description"`
		Proceeded   bool   `json:"proceeded"`
		HaltReason  string `json:"halt_reason,omitempty"`
	}
	var reports []stepReport

	for i, planned := range plan.Steps {
		checks.Uncertainty = sup.Uncertainty(ctx, execution, analysis)
		var outcome supervisor.StepOutcome
		execution, task, outcome, err = sup.ExecuteStep(ctx, execution, task, checks, planned.Description,
			func(_ context.Context, _ supervisor.Step) (supervisor.StepResult, error) {
				return supervisor.StepResult{Success: true, RollbackAvailable: true}, nil
			})
		if err != nil {
			fatal(err)
		}

		report := stepReport{
			Index:       i,
			Description: planned.Description,
			Proceeded:   outcome.Evaluation.CanProceed,
		}
		if len(outcome.Evaluation.HaltReasons) > 0 {
			report.HaltReason = outcome.Evaluation.HaltReasons[0]
		}
		reports = append(reports, report)

		if execution.Status == supervisor.StatusHalted {
			break
		}
	}

	if execution.Status == supervisor.StatusExecuting {
		execution, err = supervisor.Complete(execution)
		if err != nil {
			fatal(err)
		}
	}
	summary := supervisor.Summarize(execution)

	if cfg.Audit.DBPath != "" {
		if err := saveExecutionRecord(ctx, cfg.Audit.DBPath, execution); err != nil {
			fatal(err)
		}
	}

	if flags.JSON {
		printJSON(map[string]any{
			"goal":            summary.Goal,
			"status":          string(summary.Status),
			"steps_completed": summary.StepsCompleted,
			"steps_failed":    summary.StepsFailed,
			"halt_reason":     summary.HaltReason,
			"steps":           reports,
		})
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "goal:\t%s\n", summary.Goal)
	fmt.Fprintf(w, "status:\t%s\n", summary.Status)
	fmt.Fprintf(w, "steps completed:\t%d/%d\n", summary.StepsCompleted, summary.MaxSteps)
	if summary.HaltReason != "" {
		fmt.Fprintf(w, "halt reason:\t%s\n", summary.HaltReason)
	}
	w.Flush()

	for _, report := range reports {
		marker := "ok"
		if !report.Proceeded {
			marker = "halted: " + report.HaltReason
		}
		fmt.Printf("  step %d: %s (%s)\n", report.Index, report.Description, marker)
	}
}

// saveExecutionRecord persists the simulated run so `warden audit executions`
// can list it alongside real runs.
func saveExecutionRecord(ctx context.Context, dbPath string, e supervisor.Execution) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := supervisor.NewSQLiteStore(db)
	if err != nil {
		return err
	}
	return store.Save(ctx, supervisor.RecordOf(e))
}
