package decide

import "github.com/GunterSchmidt/bb-challenge-sub000/transition"

// PreDeciderVariant selects which start-transition rule is applied: Strict
// requires A0 to be exactly 0RB or 1RB (the reduced-enumeration invariant);
// Simple instead only rejects a directly-recursive A0 (A0's next state is A
// itself), and is used when the data provider has not already constrained
// A0 (e.g. the file reader).
type PreDeciderVariant int

const (
	PreDeciderSimpleVariant PreDeciderVariant = iota
	PreDeciderStrictVariant
)

// Run applies the pure-table pre-decider predicates in the documented order
// (spec.md 4.C): first match wins. No mutation of shared state; this never
// simulates the machine.
func Run(m *transition.Machine, variant PreDeciderVariant) MachineStatus {
	start := m.StartTransition()

	if start.IsHalt() {
		return DecidedHalt(1)
	}

	if variant == PreDeciderStrictVariant {
		if !isStartBRight(start) {
			return EliminatedPreDecider(PreDeciderNotStartStateBRight)
		}
	} else {
		if checkStartTransitionIsRecursive(start) {
			return EliminatedPreDecider(PreDeciderStartRecursive)
		}
	}

	if countHoldTransitions(m) != 1 {
		return EliminatedPreDecider(PreDeciderNotExactlyOneHalt)
	}

	if checkOnlyOneDirection(m) {
		return EliminatedPreDecider(PreDeciderOnlyOneDirection)
	}

	if checkSimpleStartCycle(m) {
		return EliminatedPreDecider(PreDeciderSimpleStartCycle)
	}

	if checkOnlyZeroWrites(m) {
		return EliminatedPreDecider(PreDeciderWritesOnlyZero)
	}

	if checkNotAllStatesUsed(m) {
		return EliminatedPreDecider(PreDeciderNotAllStatesUsed)
	}

	return NoDecision
}

// FastCheck applies the reduced predicate subset the enumerator runs inline
// during generation (spec.md 4.G): one-halt count, only-one-direction,
// simple-start-cycle, writes-only-zero, not-all-states-used. Unlike Run, it
// applies none of the start-transition rules: in reduced mode the
// enumerator's A0 domain is already limited to 0RB/1RB, and in unreduced
// mode a halting or self-recursive A0 is not rejected by those rules here.
func FastCheck(m *transition.Machine) (MachineStatus, bool) {
	if countHoldTransitions(m) != 1 {
		return EliminatedPreDecider(PreDeciderNotExactlyOneHalt), true
	}
	if checkOnlyOneDirection(m) {
		return EliminatedPreDecider(PreDeciderOnlyOneDirection), true
	}
	if checkSimpleStartCycle(m) {
		return EliminatedPreDecider(PreDeciderSimpleStartCycle), true
	}
	if checkOnlyZeroWrites(m) {
		return EliminatedPreDecider(PreDeciderWritesOnlyZero), true
	}
	if checkNotAllStatesUsed(m) {
		return EliminatedPreDecider(PreDeciderNotAllStatesUsed), true
	}
	return MachineStatus{}, false
}

func isStartBRight(start transition.Transition) bool {
	return start == transition.New(0, transition.DirRight, 2) ||
		start == transition.New(1, transition.DirRight, 2)
}

// checkStartTransitionIsRecursive reports whether A0's next state is A
// itself, which guarantees an endless run on the all-zero tape.
func checkStartTransitionIsRecursive(start transition.Transition) bool {
	return start.State() == 1
}

// countHoldTransitions counts halt slots among the used 2n table slots.
func countHoldTransitions(m *transition.Machine) int {
	n := 0
	m.UsedSlots(func(_ int, t transition.Transition) {
		if t.IsHalt() {
			n++
		}
	})
	return n
}

// checkOnlyOneDirection reports whether every non-halt symbol-0 slot moves
// the same direction, meaning the machine writes over only zeros forever in
// that direction (or halts quickly, not-max).
func checkOnlyOneDirection(m *transition.Machine) bool {
	allRight, allLeft := true, true
	for state := uint8(1); state <= m.NStates; state++ {
		t := m.At(state, 0)
		if t.IsHalt() {
			continue
		}
		if !t.IsDirRight() {
			allRight = false
		}
		if !t.IsDirLeft() {
			allLeft = false
		}
	}
	return allRight || allLeft
}

// checkOnlyZeroWrites reports whether no used symbol-0 slot ever writes 1.
func checkOnlyZeroWrites(m *transition.Machine) bool {
	for state := uint8(1); state <= m.NStates; state++ {
		if m.At(state, 0).IsSymbolOne() {
			return false
		}
	}
	return true
}

// checkSimpleStartCycle detects a two-step cycle: A0 leads to some state's
// symbol-0 transition, which leads straight back to A, with the tape
// effectively unchanged in aggregate (enumerating the eight direction/symbol
// combinations named in spec.md 4.C rule 6).
func checkSimpleStartCycle(m *transition.Machine) bool {
	start := m.StartTransition()
	nextSlot := start.StateX2() // slot for (next-state, symbol 0)
	second := m.Table[nextSlot]
	if second.State() != 1 {
		return false
	}
	if start.IsSymbolOne() {
		return second.Direction() == start.Direction()
	}
	return second.Direction() == start.Direction() || !second.IsSymbolOne()
}

// checkNotAllStatesUsed performs a forward-reachability walk from A's next
// state; any declared state unreachable means the machine cannot reach a
// maximum step count (requires A0 non-halt, non-recursive — guaranteed by
// the earlier rules having already fired).
func checkNotAllStatesUsed(m *transition.Machine) bool {
	var used [transition.MaxStates + 1]bool
	start := m.StartTransition()
	sa0 := start.State()
	used[sa0] = true
	count := 1

	for {
		if count == int(m.NStates) {
			return false
		}
		found := false
		for s := uint8(1); s <= m.NStates; s++ {
			if !used[s] {
				continue
			}
			for sym := uint8(0); sym < 2; sym++ {
				t := m.At(s, sym)
				target := t.State()
				if target != 0 && !used[target] {
					used[target] = true
					count++
					found = true
				}
			}
		}
		if !found {
			return true
		}
	}
}
