// Copyright 2026 © The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/atelier-ide/warden/pkg/config"
	"github.com/atelier-ide/warden/pkg/policy"
	"github.com/atelier-ide/warden/pkg/state"
)

// runExplain answers "would this action be allowed right now, and why" for
// the configured default mode, or prints a mode's full autonomy contract.
func runExplain(flags globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: warden explain <action> | warden explain mode <mode>"))
	}
	if args[0] == "mode" {
		if len(args) != 2 {
			fatal(fmt.Errorf("usage: warden explain mode <mode>"))
		}
		explainMode(flags, policy.AutonomyMode(args[1]))
		return
	}
	explainAction(flags, cfg, policy.ActionKind(args[0]))
}

func explainAction(flags globalFlags, cfg *config.Config, action policy.ActionKind) {
	mode, err := cfg.Governance.Mode()
	if err != nil {
		fatal(err)
	}

	perm, err := policy.PermissionFor(action)
	if err != nil {
		fatal(err)
	}

	sys := state.Initial(mode)
	decision, err := state.CanPerform(sys, action)
	if err != nil {
		fatal(err)
	}

	if flags.JSON {
		printJSON(map[string]any{
			"action":             string(action),
			"mode":               string(mode),
			"allowed":            decision.Allowed,
			"reason":             decision.Reason,
			"risk":               string(perm.Risk),
			"required_approvals": approvalStrings(decision.RequiredApprovals),
		})
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "action:\t%s\n", action)
	fmt.Fprintf(w, "mode:\t%s\n", mode)
	fmt.Fprintf(w, "allowed:\t%t\n", decision.Allowed)
	if decision.Reason != "" {
		fmt.Fprintf(w, "reason:\t%s\n", decision.Reason)
	}
	fmt.Fprintf(w, "risk:\t%s\n", perm.Risk)
	for _, approver := range decision.RequiredApprovals {
		fmt.Fprintf(w, "approval:\t%s\n", approver)
	}
	w.Flush()
}

func explainMode(flags globalFlags, mode policy.AutonomyMode) {
	switch mode {
	case policy.ModeDirected, policy.ModeCollaborative, policy.ModeAgentic:
	default:
		fatal(fmt.Errorf("unknown autonomy mode %q", mode))
	}
	contract := policy.ContractFor(mode)

	if flags.JSON {
		printJSON(map[string]any{
			"mode":                         string(contract.Mode),
			"allowed_actions":              actionStrings(contract.AllowedActions),
			"can_expand_scope":             contract.CanExpandScope,
			"can_chain_actions":            contract.CanChainActions,
			"requires_per_action_approval": contract.RequiresPerActionApproval,
			"halt_on_uncertainty":          contract.HaltOnUncertainty,
			"rollback_guarantee":           contract.RollbackGuarantee,
		})
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "mode:\t%s\n", contract.Mode)
	fmt.Fprintf(w, "rollback guarantee:\t%s\n", contract.RollbackGuarantee)
	fmt.Fprintf(w, "expand scope:\t%t\n", contract.CanExpandScope)
	fmt.Fprintf(w, "chain actions:\t%t\n", contract.CanChainActions)
	fmt.Fprintf(w, "per-action approval:\t%t\n", contract.RequiresPerActionApproval)
	fmt.Fprintf(w, "halt on uncertainty:\t%t\n", contract.HaltOnUncertainty)
	w.Flush()

	fmt.Println("allowed actions:")
	for _, action := range contract.AllowedActions {
		fmt.Printf("  %s\n", action)
	}
}

func actionStrings(actions []policy.ActionKind) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

func approvalStrings(approvers []policy.Approver) []string {
	out := make([]string, len(approvers))
	for i, a := range approvers {
		out[i] = string(a)
	}
	return out
}
