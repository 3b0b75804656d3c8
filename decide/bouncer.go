package decide

import (
	"math/bits"

	"github.com/GunterSchmidt/bb-challenge-sub000/tape"
	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

// bouncerEvent records one step where a side of the tape was empty, and the
// opposite side's 64 bits at that moment.
type bouncerEvent struct {
	step       uint32
	leftEmpty  bool // true: left was empty, snapshot is the right side
	opposite   uint64
}

// BouncerDecider detects endless-expanding "bouncers" (spec.md 4.E): the
// head sweeps a growing region, returning to the same empty-side
// configuration with the tape extended by a repeating bit pattern. Only the
// forward variant is implemented, per the Open Question decision recorded
// in DESIGN.md.
type BouncerDecider struct {
	StepLimit uint32
}

// NewBouncerDecider builds a decider with the given step limit (default for
// n=5 is 150_000, per original_source/src/config.rs's
// step_limit_bouncer_default table).
func NewBouncerDecider(stepLimit uint32) *BouncerDecider {
	return &BouncerDecider{StepLimit: stepLimit}
}

// minInitCapacity mirrors the teacher's MAX_INIT_CAPACITY sizing hint for
// the step/event recorder.
const minInitCapacity = 10000

func (d *BouncerDecider) Decide(m *transition.Machine, tp *tape.Tape) MachineStatus {
	initCap := int(d.StepLimit)
	if initCap > minInitCapacity {
		initCap = minInitCapacity
	}
	events := make([]bouncerEvent, 0, initCap)

	state := uint8(1)
	symbol := tp.GetCurrentSymbol()
	var step uint32
	var lastLeftEmptyStep, lastRightEmptyStep uint32

	for {
		if step >= d.StepLimit {
			return UndecidedStatus(UndecidedStepLimit, step, uint32(tp.CellCount()))
		}

		tr := m.At(state, symbol)
		if tr.IsHalt() {
			return DecidedHalt(step + 1)
		}

		if !tp.Update(tr) {
			return UndecidedStatus(UndecidedTapeSizeLimit, step, uint32(tp.CellCount()))
		}
		step++
		state = tr.State()
		symbol = tp.GetCurrentSymbol()

		switch {
		case tp.IsLeftEmpty() && step > lastRightEmptyStep && lastLeftEmptyStep <= lastRightEmptyStep:
			lastLeftEmptyStep = step
			events = append(events, bouncerEvent{step: step, leftEmpty: true, opposite: tp.Right64Bit()})
		case tp.IsRightEmpty() && step > lastLeftEmptyStep && lastRightEmptyStep <= lastLeftEmptyStep:
			lastRightEmptyStep = step
			events = append(events, bouncerEvent{step: step, leftEmpty: false, opposite: tp.Left64Bit()})
		}

		if status, ok := checkBouncerPattern(events); ok {
			status.NonHalt.BouncerSteps = step
			return status
		}
	}
}

// changedDiff is the Go equivalent of the teacher source's Changed struct
// (original_source/src/decider/decider_bouncer_128.rs): the bits that
// differ between two opposite-side snapshots, reduced to the position of
// the lowest changed bit and the changed-bit pattern shifted down to that
// position, so that the same repeating unit appearing at different offsets
// compares equal.
type changedDiff struct {
	pos         int32
	changeMoved uint64
}

// newChangedDiff mirrors Changed::new: trailing_zeros/shift of an all-zero
// diff is special-cased to 0, matching the Rust source exactly (a bare
// trailing_zeros on a zero diff would otherwise be 64, not 0).
func newChangedDiff(newer, older uint64) changedDiff {
	changed := newer ^ older
	var tz int
	if changed != 0 {
		tz = bits.TrailingZeros64(changed)
	}
	return changedDiff{pos: int32(tz), changeMoved: changed >> uint(tz)}
}

// isBouncer3 is the direct port of Changed::is_bouncer_3: three diffs over
// four snapshots are a bouncer signature only if the shifted change pattern
// is identical across all three diffs AND the position of the lowest
// changed bit advances by the same nonzero amount between each pair.
func isBouncer3(d [3]changedDiff) bool {
	return d[0].changeMoved == d[1].changeMoved &&
		d[1].changeMoved == d[2].changeMoved &&
		d[1].pos-d[0].pos != 0 &&
		d[1].pos-d[0].pos == d[2].pos-d[1].pos
}

// checkBouncerPattern looks, among same-side events (stride 1: consecutive
// same-side snapshots; stride 2: period-two bouncers), for four snapshots
// whose three consecutive opposite-side diffs carry the same changed-bit
// pattern at positions forming an arithmetic progression: the signature of
// a repeating unit being pushed steadily further from the head.
func checkBouncerPattern(events []bouncerEvent) (MachineStatus, bool) {
	for _, side := range []bool{true, false} {
		sameSide := make([]bouncerEvent, 0, len(events))
		for _, e := range events {
			if e.leftEmpty == side {
				sameSide = append(sameSide, e)
			}
		}
		for _, stride := range []int{1, 2} {
			if ok := checkStride(sameSide, stride); ok {
				return DecidedNonHalt(NonHaltReason{Kind: NonHaltBouncer}), true
			}
		}
	}
	return MachineStatus{}, false
}

// checkStride scans sameSide (every stride-th entry forms one arm of the
// comparison, per is_bouncer_3's call sites: consecutive same-side events
// for stride 1, every other one for the period-two stride 2 variant) for
// four points a,b,c,d whose diffs (b-a, c-b, d-c) satisfy isBouncer3.
func checkStride(sameSide []bouncerEvent, stride int) bool {
	n := len(sameSide)
	if n < 1+3*stride {
		return false
	}
	for i := n - 1; i >= 3*stride; i-- {
		a, b, c, dd := sameSide[i-3*stride], sameSide[i-2*stride], sameSide[i-stride], sameSide[i]
		diffs := [3]changedDiff{
			newChangedDiff(b.opposite, a.opposite),
			newChangedDiff(c.opposite, b.opposite),
			newChangedDiff(dd.opposite, c.opposite),
		}
		if isBouncer3(diffs) {
			return true
		}
	}
	return false
}
