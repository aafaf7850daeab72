// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atelier-ide/warden/pkg/config"
	"github.com/atelier-ide/warden/pkg/supervisor"
	"github.com/atelier-ide/warden/pkg/violation"
)

// runAudit queries the persisted audit trail.
func runAudit(ctx context.Context, flags globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: warden audit violations|executions"))
	}
	if cfg.Audit.DBPath == "" {
		fatal(fmt.Errorf("audit.db_path is not configured"))
	}

	db, err := sql.Open("sqlite", cfg.Audit.DBPath)
	if err != nil {
		fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, flags.Timeout)
	defer cancel()

	switch args[0] {
	case "violations":
		auditViolations(ctx, flags, db, args[1:])
	case "executions":
		auditExecutions(ctx, flags, db, args[1:])
	default:
		fatal(fmt.Errorf("unknown audit target %q", args[0]))
	}
}

func auditViolations(ctx context.Context, flags globalFlags, db *sql.DB, args []string) {
	cmd := flag.NewFlagSet("audit violations", flag.ExitOnError)
	unresolved := cmd.Bool("unresolved", false, "only unresolved violations")
	severity := cmd.String("severity", "", "filter by severity (minor, major, critical)")
	limit := cmd.Int("limit", 0, "max rows")
	cmd.Parse(args)

	store, err := violation.NewSQLiteAuditStore(db)
	if err != nil {
		fatal(err)
	}
	violations, err := store.List(ctx, violation.AuditFilter{
		Severity:   violation.Severity(*severity),
		Unresolved: *unresolved,
		Limit:      *limit,
	})
	if err != nil {
		fatal(err)
	}

	if flags.JSON {
		printJSON(violations)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DETECTED\tTYPE\tSEVERITY\tDISCLOSED\tRESOLVED")
	for _, v := range violations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n",
			v.DetectedAt.Format(time.RFC3339),
			v.Type,
			v.Severity,
			v.Disclosed.Performed,
			v.Resolved(),
		)
	}
	w.Flush()
}

func auditExecutions(ctx context.Context, flags globalFlags, db *sql.DB, args []string) {
	cmd := flag.NewFlagSet("audit executions", flag.ExitOnError)
	status := cmd.String("status", "", "filter by status (halted, completed, failed, ...)")
	limit := cmd.Int("limit", 0, "max rows")
	cmd.Parse(args)

	store, err := supervisor.NewSQLiteStore(db)
	if err != nil {
		fatal(err)
	}
	records, err := store.List(ctx, supervisor.RecordFilter{
		Status: supervisor.Status(*status),
		Limit:  *limit,
	})
	if err != nil {
		fatal(err)
	}

	if flags.JSON {
		printJSON(records)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSTATUS\tSTEPS\tFAILED\tGOAL")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			r.CreatedAt.Format(time.RFC3339),
			r.Status,
			r.StepsCompleted,
			r.StepsFailed,
			truncate(r.Goal, 60),
		)
	}
	w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
