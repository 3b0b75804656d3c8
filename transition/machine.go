package transition

// MaxStates is the largest machine size this encoding supports; 4 bits of
// next-state plus the doubled-state indexing scheme cap n at 5 for the
// binary-alphabet busy beaver family this engine targets.
const MaxStates = 5

// Machine is a fixed-size transition table: 2*(n+1) slots indexed by
// state*2+symbol. Slots 0 and 1 are an unused dummy row for the halt state
// and are never executed; slot 2 (StateA, symbol 0) is the mandatory start
// transition.
type Machine struct {
	NStates uint8
	Table   [2 * (MaxStates + 1)]Transition

	// SelfReferential is true if any used slot writes the symbol it read and
	// transitions back to its own state, enabling bulk-shift acceleration.
	SelfReferential bool
}

// NewMachine builds a Machine from a text-format row order (state A.. in
// order, each with its symbol-0 then symbol-1 transition) and marks unused
// slots beyond nStates.
func NewMachine(nStates uint8, rows [][2]Transition) Machine {
	var m Machine
	m.NStates = nStates
	for i := 0; i < 2*(MaxStates+1); i++ {
		m.Table[i] = Unused
	}
	m.Table[0] = Unused
	m.Table[1] = Unused
	for state, row := range rows {
		slot := (state + 1) * 2
		m.Table[slot] = row[0]
		m.Table[slot+1] = row[1]
	}
	m.SelfReferential = m.computeSelfReferential()
	return m
}

// StartTransition is the A0 slot; the decider always begins execution as if
// a prior transition had led to reading this slot.
func (m *Machine) StartTransition() Transition {
	return m.Table[2]
}

// At returns the transition for state (1-based) and symbol (0 or 1).
func (m *Machine) At(state uint8, symbol uint8) Transition {
	return m.Table[int(state)*2+int(symbol)]
}

func (m *Machine) computeSelfReferential() bool {
	for slot := 2; slot < 2*(int(m.NStates)+1); slot++ {
		t := m.Table[slot]
		if t.IsUnused() || t.IsUndefined() || t.IsHalt() {
			continue
		}
		if t.SelfRefSlot() == slot {
			return true
		}
	}
	return false
}

// UsedSlots iterates the 2*NStates used table slots in order.
func (m *Machine) UsedSlots(fn func(slot int, t Transition)) {
	for slot := 2; slot < 2*(int(m.NStates)+1); slot++ {
		fn(slot, m.Table[slot])
	}
}
