package policy

import "testing"

func TestContractForCoversAllModes(t *testing.T) {
	for _, mode := range []AutonomyMode{ModeDirected, ModeCollaborative, ModeAgentic} {
		contract := ContractFor(mode)
		if contract.Mode != mode {
			t.Fatalf("contract for %s reports mode %s", mode, contract.Mode)
		}
		if len(contract.AllowedActions) == 0 {
			t.Fatalf("contract for %s allows nothing", mode)
		}
		if !contract.HaltOnUncertainty {
			t.Fatalf("contract for %s must halt on uncertainty", mode)
		}
	}
}

func TestContractForUnknownModeIsDirected(t *testing.T) {
	contract := ContractFor(AutonomyMode("yolo"))
	if contract.Mode != ModeDirected {
		t.Fatalf("unknown mode must fall back to directed, got %s", contract.Mode)
	}
	if contract.Allows(ActionApplyChange) {
		t.Fatalf("unknown mode must not be granted apply_change")
	}
}

func TestDirectedContractIsMostRestrictive(t *testing.T) {
	directed := ContractFor(ModeDirected)
	if directed.Allows(ActionApplyChange) {
		t.Fatalf("directed mode must not allow apply_change")
	}
	if directed.Allows(ActionSpawnAgent) {
		t.Fatalf("directed mode must not allow spawn_agent")
	}
	if directed.CanExpandScope || directed.CanChainActions {
		t.Fatalf("directed mode must not expand scope or chain actions")
	}
	if !directed.RequiresPerActionApproval {
		t.Fatalf("directed mode requires per-action approval")
	}
	if !directed.RequiresApproval(ActionReadFile) {
		t.Fatalf("per-action approval covers every action")
	}
}

func TestAgenticContractAllowsChaining(t *testing.T) {
	agentic := ContractFor(ModeAgentic)
	if !agentic.Allows(ActionChainActions) || !agentic.Allows(ActionSpawnAgent) {
		t.Fatalf("agentic mode must allow chaining and spawning")
	}
	if !agentic.RequiresApproval(ActionSpawnAgent) {
		t.Fatalf("spawn_agent always needs approval")
	}
	if agentic.RequiresApproval(ActionReadFile) {
		t.Fatalf("agentic mode should not require approval for low-risk reads")
	}
}

func TestPermissionForCoversClosedSet(t *testing.T) {
	for _, kind := range AllActionKinds {
		perm, err := PermissionFor(kind)
		if err != nil {
			t.Fatalf("permission lookup failed for %s: %v", kind, err)
		}
		if perm.Action != kind {
			t.Fatalf("permission for %s reports %s", kind, perm.Action)
		}
		if perm.Risk == "" {
			t.Fatalf("permission for %s has no risk level", kind)
		}
	}
}

func TestPermissionForUnknownActionIsConfigError(t *testing.T) {
	_, err := PermissionFor(ActionKind("delete_repository"))
	if err == nil {
		t.Fatalf("expected configuration error for unknown action")
	}
}

func TestApplyChangeConstraints(t *testing.T) {
	perm := MustPermissionFor(ActionApplyChange)
	if perm.Required.Scope == nil || *perm.Required.Scope != ScopeScoped {
		t.Fatalf("apply_change must require scoped state")
	}
	if perm.Forbidden.Budget == nil || *perm.Forbidden.Budget != BudgetExceeded {
		t.Fatalf("apply_change must forbid exceeded budget")
	}
	if !perm.Risk.AboveLow() {
		t.Fatalf("apply_change is not low risk")
	}
}
