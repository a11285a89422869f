package selection

import (
	"fmt"
	"testing"
)

func TestMachine_AutoSelectsMostRecentOnFirstLoad(t *testing.T) {
	m := NewMachine("cliente:1|tipo:mensal")

	if m.State() != Unselected {
		t.Fatalf("initial state expected Unselected, got %s", m.State())
	}

	changed := m.PeriodsLoaded([]string{"2024-05", "2024-04"})
	if !changed {
		t.Fatal("first load should auto-select")
	}
	if m.State() != AutoSelected || m.Selected() != "2024-05" {
		t.Fatalf("expected AutoSelected 2024-05, got %s %q", m.State(), m.Selected())
	}
}

func TestMachine_EmptyListDoesNotSelect(t *testing.T) {
	m := NewMachine("ctx")
	if m.PeriodsLoaded(nil) {
		t.Fatal("empty list must not select anything")
	}
	if m.State() != Unselected {
		t.Fatalf("expected Unselected, got %s", m.State())
	}
}

func TestMachine_RefreshNeverOverridesUserSelection(t *testing.T) {
	m := NewMachine("cliente:1|tipo:mensal")
	m.PeriodsLoaded([]string{"2024-05", "2024-04"})

	m.UserSelect("2024-04")
	if m.State() != UserSelected {
		t.Fatalf("expected UserSelected, got %s", m.State())
	}

	// Ten consecutive refresh cycles, lists unchanged and changed, must all
	// leave the selection alone.
	for i := 0; i < 10; i++ {
		periods := []string{"2024-05", "2024-04"}
		if i%2 == 1 {
			periods = []string{fmt.Sprintf("2024-%02d", 6+i), "2024-05", "2024-04"}
		}
		if m.PeriodsLoaded(periods) {
			t.Fatalf("refresh cycle %d changed the selection", i)
		}
		if m.Selected() != "2024-04" {
			t.Fatalf("refresh cycle %d: selected = %q, want 2024-04", i, m.Selected())
		}
		if m.State() != UserSelected {
			t.Fatalf("refresh cycle %d: state = %s", i, m.State())
		}
	}
}

func TestMachine_RefreshDoesNotMoveAutoSelection(t *testing.T) {
	m := NewMachine("ctx")
	m.PeriodsLoaded([]string{"2024-04"})

	// A newer period appearing later must not re-trigger auto-selection:
	// the machine picks a value unprompted exactly once per context.
	if m.PeriodsLoaded([]string{"2024-05", "2024-04"}) {
		t.Fatal("second load must not change the selection")
	}
	if m.Selected() != "2024-04" {
		t.Fatalf("selected = %q, want 2024-04", m.Selected())
	}
}

func TestMachine_ContextSwitchResets(t *testing.T) {
	m := NewMachine("cliente:1|maquineta:7")
	m.PeriodsLoaded([]string{"2024-05"})
	m.UserSelect("2024-05")

	m.ContextSwitch("cliente:1|maquineta:8")
	if m.State() != Unselected || m.Selected() != "" {
		t.Fatalf("context switch must reset, got %s %q", m.State(), m.Selected())
	}

	// The next load re-triggers auto-selection for the new context.
	if !m.PeriodsLoaded([]string{"2024-03"}) {
		t.Fatal("load after context switch should auto-select")
	}
	if m.Selected() != "2024-03" {
		t.Fatalf("selected = %q, want 2024-03", m.Selected())
	}
}

func TestMachine_ContextSwitchToSameContextIsNoop(t *testing.T) {
	m := NewMachine("ctx")
	m.PeriodsLoaded([]string{"2024-05"})
	m.UserSelect("2024-05")

	m.ContextSwitch("ctx")
	if m.State() != UserSelected || m.Selected() != "2024-05" {
		t.Fatalf("same-context switch must not reset, got %s %q", m.State(), m.Selected())
	}
}

func TestMachine_ShouldApplyDiscardsStaleResults(t *testing.T) {
	m := NewMachine("ctx-a")
	m.PeriodsLoaded([]string{"2024-05"})
	m.UserSelect("2024-05")

	// In-flight result for the selected key applies.
	if !m.ShouldApply("ctx-a", "2024-05") {
		t.Fatal("result for the selected key must apply")
	}

	// The user changes the selection mid-flight: the old result is stale.
	m.UserSelect("2024-04")
	if m.ShouldApply("ctx-a", "2024-05") {
		t.Fatal("result for a no longer selected key must be discarded")
	}

	// A context reset makes every in-flight result stale.
	m.ContextSwitch("ctx-b")
	if m.ShouldApply("ctx-a", "2024-04") {
		t.Fatal("result for a stale context must be discarded")
	}
	if m.ShouldApply("ctx-b", "") {
		t.Fatal("nothing selected: nothing applies")
	}
}
