package decide

import (
	"github.com/GunterSchmidt/bb-challenge-sub000/tape"
	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

// snapshot is the comparable state recorded at a (state, read-symbol)
// occurrence: the full 128-bit sliding window (Left64Bit and Right64Bit).
// Once either side of the head holds a nonzero cell, the long-tape block at
// tl_pos is folded in too (spec.md 4.D's cost-control fallback), so two
// visits with an identical window but different long-tape content are no
// longer conflated into a false cycle.
type snapshot struct {
	left, right uint64
	long        uint32
	longValid   bool
}

// CycleDecider detects exact repetition of (state, head-relative tape
// window): spec.md 4.D. Reusable across machines: Decide clears the
// recorded snapshots on entry.
type CycleDecider struct {
	StepLimit uint32

	seen map[uint16][]cycleEntry
}

type cycleEntry struct {
	step uint32
	snap snapshot
}

// NewCycleDecider builds a decider with the given per-run step limit
// (defaults per n-states are 100/100/250/500/5100 for n=1..5, per
// original_source/src/config.rs's step_limit_cycler_default table).
func NewCycleDecider(stepLimit uint32) *CycleDecider {
	return &CycleDecider{StepLimit: stepLimit, seen: make(map[uint16][]cycleEntry, 16)}
}

// cycleSnapshot builds the comparable key for the current (state, symbol)
// occurrence per spec.md 4.D's cost-control rule: the window alone while
// both sides of the head are still blank, plus the long-tape block at
// tl_pos as soon as either side holds a nonzero cell.
func cycleSnapshot(tp *tape.Tape) snapshot {
	snap := snapshot{left: tp.Left64Bit(), right: tp.Right64Bit()}
	if !tp.IsLeftEmpty() || !tp.IsRightEmpty() {
		snap.long = tp.LongTapeHighBlock()
		snap.longValid = true
	}
	return snap
}

func (d *CycleDecider) reset() {
	for k := range d.seen {
		delete(d.seen, k)
	}
}

// Decide runs the machine from its start transition, looking for an exact
// recurrence of (state, symbol, window) at matching step counts.
func (d *CycleDecider) Decide(m *transition.Machine, tp *tape.Tape) MachineStatus {
	d.reset()

	state := uint8(1)
	symbol := tp.GetCurrentSymbol()
	var step uint32

	for {
		if step >= d.StepLimit {
			return UndecidedStatus(UndecidedStepLimit, step, uint32(tp.CellCount()))
		}

		tr := m.At(state, symbol)
		if tr.IsHalt() {
			return DecidedHalt(step + 1)
		}

		key := uint16(state)<<1 | uint16(symbol)
		snap := cycleSnapshot(tp)
		for _, e := range d.seen[key] {
			if e.snap == snap {
				return DecidedNonHalt(NonHaltReason{Kind: NonHaltCycler, CyclerSteps: step, CyclerSize: step - e.step})
			}
		}
		d.seen[key] = append(d.seen[key], cycleEntry{step: step, snap: snap})

		if !tp.Update(tr) {
			return UndecidedStatus(UndecidedTapeSizeLimit, step, uint32(tp.CellCount()))
		}
		step++
		state = tr.State()
		symbol = tp.GetCurrentSymbol()
	}
}
