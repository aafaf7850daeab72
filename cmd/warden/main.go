// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Command warden inspects and exercises the governance core from the
// terminal: validate plans, explain policy decisions, simulate supervised
// runs, and query the audit trail.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/atelier-ide/warden/pkg/config"
	"github.com/atelier-ide/warden/pkg/supervisor"
	"github.com/atelier-ide/warden/pkg/telemetry"
)

const version = "dev"

type globalFlags struct {
	ConfigPath string
	Timeout    time.Duration
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load(global.ConfigPath)
	if err != nil {
		fatal(err)
	}
	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	var metrics *telemetry.GovernanceMetrics
	if cfg.Telemetry.Enabled {
		exporter := cfg.Telemetry.Exporter
		if exporter == "" {
			exporter = "stdout"
		}
		shutdown, err := telemetry.InitWithConfig("warden", version, telemetry.Config{
			Exporter:     exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			fatal(err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
			}
		}()
		if metrics, err = telemetry.NewGovernanceMetrics(); err != nil {
			fatal(err)
		}
	}

	switch args[0] {
	case "validate":
		runValidate(global, args[1:])
	case "explain":
		runExplain(global, cfg, args[1:])
	case "simulate":
		runSimulate(ctx, global, cfg, metrics, args[1:])
	case "audit":
		runAudit(ctx, global, cfg, args[1:])
	case "help":
		printUsage()
	case "version":
		fmt.Printf("warden %s\n", version)
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{
		ConfigPath: os.Getenv("WARDEN_CONFIG"),
		Timeout:    30 * time.Second,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--timeout":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --timeout")
			}
			value, err := time.ParseDuration(args[i+1])
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
			i++
		case strings.HasPrefix(arg, "--timeout="):
			value, err := time.ParseDuration(strings.TrimPrefix(arg, "--timeout="))
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func runValidate(flags globalFlags, args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("usage: warden validate <plan.yaml>"))
	}
	plan, err := supervisor.LoadPlan(args[0])
	if err != nil {
		fatal(fmt.Errorf("plan is invalid: %w", err))
	}

	cfg := plan.ExecutionConfig()
	if flags.JSON {
		printJSON(map[string]any{
			"valid":                 true,
			"goal":                  plan.Goal.Description,
			"steps":                 len(plan.Steps),
			"max_steps":             cfg.MaxSteps,
			"uncertainty_threshold": cfg.UncertaintyThreshold,
			"step_timeout":          cfg.StepTimeout.String(),
		})
		return
	}
	fmt.Printf("plan is valid\n")
	fmt.Printf("goal: %s\n", plan.Goal.Description)
	fmt.Printf("steps: %d (max %d)\n", len(plan.Steps), cfg.MaxSteps)
}

func printUsage() {
	fmt.Print(`warden - agent governance inspector

Usage:
  warden [global flags] <command> [args]

Commands:
  validate <plan.yaml>      validate a run plan
  explain <action>          explain the policy decision for an action
  explain mode <mode>       show the autonomy contract for a mode
  simulate <plan.yaml>      run a plan through the supervisor with stub steps
  audit violations          list recorded violations
  audit executions          list recorded executions
  version                   print version
  help                      print this help

Global flags:
  --config <path>   config file (or WARDEN_CONFIG)
  --timeout <dur>   command timeout (default 30s)
  --json            JSON output
`)
}

func printJSON(value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(data))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "warden: %v\n", err)
	os.Exit(1)
}
