package oracle

import (
	"context"
	"testing"

	"github.com/varga-lab/threatscope/internal/learner"
	"github.com/varga-lab/threatscope/internal/primitive"
)

func testScenario() *primitive.Scenario {
	return &primitive.Scenario{
		ID:   "apt-test",
		Name: "lateral movement",
		PrimitivesRequired: []primitive.Primitive{
			primitive.Authenticate, primitive.Connect,
			primitive.Read, primitive.Write,
		},
		Complexity: 2.0,
	}
}

func TestFromScenario_Alphabet(t *testing.T) {
	s := &primitive.Scenario{
		Name: "repeats",
		PrimitivesRequired: []primitive.Primitive{
			primitive.Read, primitive.Write, primitive.Read, primitive.Encrypt,
		},
	}
	o := FromScenario(s)
	want := []primitive.Primitive{primitive.Read, primitive.Write, primitive.Encrypt}
	got := o.Alphabet()
	if len(got) != len(want) {
		t.Fatalf("alphabet length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("alphabet[%d] = %v, want %v (first-appearance order)", i, got[i], want[i])
		}
	}
}

func TestMembershipQuery_PrefixSemantics(t *testing.T) {
	o := FromScenario(testScenario())
	ctx := context.Background()

	cases := []struct {
		name  string
		trace []primitive.Primitive
		want  bool
	}{
		{"empty", nil, true},
		{"proper prefix", []primitive.Primitive{primitive.Authenticate, primitive.Connect}, true},
		{"full trace", []primitive.Primitive{primitive.Authenticate, primitive.Connect, primitive.Read, primitive.Write}, true},
		{"wrong first symbol", []primitive.Primitive{primitive.Connect}, false},
		{"subsequence, not prefix", []primitive.Primitive{primitive.Connect, primitive.Read}, false},
		{"overshoot", []primitive.Primitive{primitive.Authenticate, primitive.Connect, primitive.Read, primitive.Write, primitive.Write}, false},
	}
	for _, c := range cases {
		got, err := o.MembershipQuery(ctx, c.trace)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: membership = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestMembershipQuery_Cancelled(t *testing.T) {
	o := FromScenario(testScenario())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.MembershipQuery(ctx, nil); err == nil {
		t.Error("expected context error after cancellation")
	}
}

func TestLearnScenarioAutomaton(t *testing.T) {
	// End to end: the learner must recover the scenario's acceptor from
	// queries alone, within the default budget.
	s := testScenario()
	o := FromScenario(s)
	l := learner.New(0, 0, 42)

	res, err := l.LearnThreatAutomaton(context.Background(), o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Convergence {
		t.Fatalf("learner did not converge (phase %s, %d iterations)", res.Phase, res.Iterations)
	}
	if res.Iterations >= learner.DefaultMaxIterations {
		t.Errorf("iterations = %d, want well under the budget", res.Iterations)
	}
	// One state per trace prefix plus the reject sink.
	if want := len(s.PrimitivesRequired) + 2; res.States != want {
		t.Errorf("states = %d, want %d", res.States, want)
	}
	if res.LearningAccuracy != 1.0 {
		t.Errorf("accuracy = %g, want 1.0 for a confirmed hypothesis", res.LearningAccuracy)
	}
}

func TestEquivalenceQuery_RejectsWrongHypothesis(t *testing.T) {
	// Learn an automaton for one scenario, then check it against a
	// different scenario's oracle: the probe set must find a
	// counterexample.
	ctx := context.Background()

	first := FromScenario(testScenario())
	other := FromScenario(&primitive.Scenario{
		Name: "other",
		PrimitivesRequired: []primitive.Primitive{
			primitive.Authenticate, primitive.Read,
		},
	})

	// Obtain a hypothesis for the first scenario by running the learner.
	l := learner.New(0, 0, 7)
	res, err := l.LearnThreatAutomaton(ctx, first)
	if err != nil || !res.Convergence {
		t.Fatalf("setup learn failed: %v (converged=%v)", err, res.Convergence)
	}

	// Re-learn against the mismatched oracle: its equivalence probes
	// must steer the learner to the other chain, proving the probe set
	// distinguishes the two behaviors.
	res2, err := l.LearnThreatAutomaton(ctx, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res2.Convergence {
		t.Fatal("learner must converge on the second scenario too")
	}
	if res2.States == res.States {
		t.Errorf("different chains should yield different automaton sizes (%d vs %d)", res2.States, res.States)
	}
}
