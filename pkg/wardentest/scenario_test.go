package wardentest

import (
	"testing"

	"github.com/atelier-ide/warden/pkg/budget"
	"github.com/atelier-ide/warden/pkg/policy"
	"github.com/atelier-ide/warden/pkg/sources"
	"github.com/atelier-ide/warden/pkg/state"
)

func TestScenarioRunner(t *testing.T) {
	strictLimits := budget.DefaultLimits()
	strictLimits.MaxStepsPerTask = 10

	RunAll(t, []Scenario{
		{
			Name: "directed mode cannot apply",
			Mode: policy.ModeDirected,
			Steps: []Step{
				{Action: policy.ActionReadFile, ExpectAllowed: true},
				{Action: policy.ActionApplyChange, ExpectAllowed: false},
			},
		},
		{
			Name: "scoping applies immediately",
			Mode: policy.ModeCollaborative,
			Steps: []Step{
				{Op: state.SetScope{To: policy.ScopeScoped}, Trigger: "user approved scope", ExpectOutcome: state.Applied},
			},
		},
		{
			Name: "mode change needs acknowledgment",
			Mode: policy.ModeCollaborative,
			Steps: []Step{
				{Op: state.SetMode{To: policy.ModeAgentic}, Trigger: "user request", ExpectOutcome: state.PendingAcknowledgment},
			},
		},
		{
			Name: "auto-included source needs approval",
			Mode: policy.ModeCollaborative,
			Steps: []Step{
				{
					AddSource: &sources.Source{
						Type:      sources.SourceAutoIncluded,
						Origin:    "file:pkg/util/strings.go",
						Relevance: 0.9,
						Tokens:    100,
					},
					ExpectAdded:     true,
					ExpectViolation: sources.ViolationUnauthorizedSource,
				},
			},
		},
		{
			Name:   "exhausted step budget halts",
			Mode:   policy.ModeAgentic,
			Limits: &strictLimits,
			Usage:  budget.Usage{StepsCompleted: 10},
			Steps: []Step{
				{CheckBudget: true, ExpectStatus: budget.SeverityExceeded, ExpectHalt: true},
			},
		},
	})
}

func TestAssertionsHelpers(t *testing.T) {
	a := NewAssertions(t)
	a.AssertEqual(1, 1, "equal")
	a.AssertTrue(true, "true")
	a.AssertFalse(false, "false")
	a.AssertContains("scope changed", "scope", "contains")
	a.AssertNoError(nil, "no error")
	if a.Failed() {
		t.Fatalf("no assertion should have failed")
	}
}
