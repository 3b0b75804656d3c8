package decide

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

func TestCycleDeciderDetectsStableSweep(t *testing.T) {
	// A single-state rightward sweep: writes 1 forever, always reading a
	// blank ahead. Once the 64-bit window immediately left of the head is
	// saturated with 1s (after 64 steps), the (state, symbol, window)
	// snapshot repeats exactly every step thereafter, so the cycle decider
	// must catch it well before the generous step limit below.
	m := machine(t, "1RA1RA")
	d := NewCycleDecider(300)
	status := d.Decide(m, newTestTape())
	assert.Equal(t, StatusDecidedNonHalt, status.Kind)
	assert.Equal(t, NonHaltCycler, status.NonHalt.Kind)
	assert.Equal(t, uint32(1), status.NonHalt.CyclerSize)
}

func TestCycleDeciderHaltsBeforeCycling(t *testing.T) {
	m := machine(t, "1RB1LA_1LA1RZ")
	d := NewCycleDecider(1000)
	status := d.Decide(m, newTestTape())
	assert.Equal(t, StatusDecidedHalt, status.Kind)
	assert.Equal(t, uint32(5), status.HaltSteps)
}

// TestCycleSnapshotFoldsInLongTapeOnceEitherSideWritten exercises spec.md
// 4.D's "Cost control" fallback directly: a blank tape is window-only (no
// side has ever been written to), but as soon as either side has been
// written the snapshot must also carry the long-tape block at tl_pos, so
// that two otherwise window-identical visits are no longer conflated when
// their long-tape content actually differs.
func TestCycleSnapshotFoldsInLongTapeOnceEitherSideWritten(t *testing.T) {
	tp := newTestTape()
	blank := cycleSnapshot(tp)
	assert.False(t, blank.longValid)

	right := transition.New(1, transition.DirRight, 1)
	assert.True(t, tp.Update(right))

	grown := cycleSnapshot(tp)
	assert.True(t, grown.longValid)
}

// TestCycleSnapshotDistinguishesDifferingLongTapeContent pins the
// comparison semantics the fix relies on: two snapshots with an identical
// window but different long-tape block content (or validity) must not
// compare equal, since that is exactly the false-positive the prior
// window-only key allowed.
func TestCycleSnapshotDistinguishesDifferingLongTapeContent(t *testing.T) {
	a := snapshot{left: 0xAAAA, right: 0xBBBB, long: 1, longValid: true}
	b := snapshot{left: 0xAAAA, right: 0xBBBB, long: 2, longValid: true}
	assert.NotEqual(t, a, b)

	c := snapshot{left: 0xAAAA, right: 0xBBBB}
	assert.NotEqual(t, a, c)
}

func TestCycleDeciderStepLimitUndecided(t *testing.T) {
	// A three-state rightward sweep cycling A->B->C->A forever (never
	// revisiting a symbol-1 slot), with a step limit too small to reach the
	// window-saturation point where the cycle would be detected.
	m := machine(t, "1RB0RA_1RC0RA_1RA0RA")
	d := NewCycleDecider(10)
	status := d.Decide(m, newTestTape())
	assert.Equal(t, StatusUndecided, status.Kind)
	assert.Equal(t, UndecidedStepLimit, status.Undecided)
}
