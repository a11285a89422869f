// Package selection owns the period/date currently displayed by one open
// view, arbitrating between operator-driven selection and periodic
// background refresh.
//
// Background polling exists purely for data freshness. It must never express
// intent on behalf of the operator: once the operator has chosen a period,
// no amount of refresh cycles may change that choice.
package selection

import "sync"

// State is the selection lifecycle of a view.
type State int

const (
	// Unselected: nothing chosen yet for the current context.
	Unselected State = iota
	// AutoSelected: the system defaulted to the most recent period. This
	// happens at most once per context, on the first non-empty period list.
	AutoSelected
	// UserSelected: the operator explicitly chose. One-way: refresh events
	// can never leave this state; only a context switch can.
	UserSelected
)

func (s State) String() string {
	switch s {
	case AutoSelected:
		return "auto-selected"
	case UserSelected:
		return "user-selected"
	default:
		return "unselected"
	}
}

// Machine is the per-view selection state machine. Each open view owns an
// independent instance; there is no shared selection state across views.
// The mutex only guards against a refresh callback racing the UI goroutine
// of the same view.
type Machine struct {
	mu       sync.Mutex
	contexto string
	state    State
	selected string
}

// NewMachine starts Unselected for the given context key (an opaque
// combination of cliente, maquineta and planilha type).
func NewMachine(contexto string) *Machine {
	return &Machine{contexto: contexto}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Selected returns the currently selected period key ("" when none).
func (m *Machine) Selected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// PeriodsLoaded feeds a freshly fetched available-periods list (sorted most
// recent first) into the machine. Only from Unselected does the machine pick
// a value unprompted: the most recent period, moving to AutoSelected. In any
// other state the list is display data only and the selected key is left
// untouched, however many refresh cycles deliver it.
//
// Returns true when the selection changed.
func (m *Machine) PeriodsLoaded(periods []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Unselected || len(periods) == 0 {
		return false
	}
	m.state = AutoSelected
	m.selected = periods[0]
	return true
}

// UserSelect records an explicit operator choice. The transition to
// UserSelected is one-way.
func (m *Machine) UserSelect(period string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = UserSelected
	m.selected = period
}

// ContextSwitch resets the machine for a materially different selection
// space (other cliente, maquineta or planilha type). A switch to the same
// context is a no-op.
func (m *Machine) ContextSwitch(contexto string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if contexto == m.contexto {
		return
	}
	m.contexto = contexto
	m.state = Unselected
	m.selected = ""
}

// ShouldApply decides whether an asynchronously arrived result is still for
// the currently selected key. Results for a stale context or a no longer
// selected period are discarded rather than applied; this replaces explicit
// task cancellation.
func (m *Machine) ShouldApply(contexto, period string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return contexto == m.contexto && period == m.selected && m.selected != ""
}
