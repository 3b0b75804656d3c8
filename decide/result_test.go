package decide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHaltTracksMaxStepsWithTieBreak(t *testing.T) {
	r := NewResultStats(10, 10)
	r.RecordHalt(5, "1RB1LA_1LA1RZ", 100)
	r.RecordHalt(2, "1RB1LA_1LA1RZ", 150)
	r.RecordHalt(9, "1RB1LA_1LA1RZ", 150)
	r.RecordHalt(3, "1RB1LA_1LA1RZ", 50)

	assert.Equal(t, uint32(150), r.StepsMax)
	require.Len(t, r.MachinesMaxSteps, 2)
	assert.Equal(t, uint64(2), r.MachinesMaxSteps[0].ID)
	assert.Equal(t, uint64(9), r.MachinesMaxSteps[1].ID)
	assert.Equal(t, uint64(4), r.NumHold)
}

func TestRecordNonHaltCounters(t *testing.T) {
	r := NewResultStats(10, 10)
	r.RecordNonHalt(1, "m1", NonHaltReason{Kind: NonHaltCycler})
	r.RecordNonHalt(2, "m2", NonHaltReason{Kind: NonHaltBouncer})
	r.RecordNonHalt(3, "m3", NonHaltReason{Kind: NonHaltBouncer})

	assert.Equal(t, uint64(1), r.Endless.Cycler)
	assert.Equal(t, uint64(2), r.Endless.Bouncer)
}

func TestRecordUndecidedRespectsLimit(t *testing.T) {
	r := NewResultStats(10, 2)
	r.RecordUndecided(1, "m1", UndecidedStatus(UndecidedStepLimit, 10, 10))
	r.RecordUndecided(2, "m2", UndecidedStatus(UndecidedStepLimit, 10, 10))
	r.RecordUndecided(3, "m3", UndecidedStatus(UndecidedStepLimit, 10, 10))

	assert.Equal(t, uint64(3), r.NumUndecided)
	assert.Len(t, r.MachinesUndecided, 2)
	assert.Equal(t, EndRecordLimitUndecidedReached, r.EndReason.Kind)
}

func TestMergeEndReasonKeepsMoreSevere(t *testing.T) {
	a := EndReason{Kind: EndAllMachinesChecked}
	b := EndReason{Kind: EndError, Message: "boom"}
	assert.Equal(t, EndError, MergeEndReason(a, b).Kind)
	assert.Equal(t, EndError, MergeEndReason(b, a).Kind)
}

func TestMergeEndReasonTiesFavorA(t *testing.T) {
	a := EndReason{Kind: EndAllMachinesChecked}
	b := EndReason{Kind: EndIsLastBatch}
	assert.Equal(t, EndAllMachinesChecked, MergeEndReason(a, b).Kind)
}

func TestResultStatsMergeSumsCounters(t *testing.T) {
	a := NewResultStats(10, 10)
	a.NumProcessedTotal = 100
	a.RecordHalt(1, "m1", 20)

	b := NewResultStats(10, 10)
	b.NumProcessedTotal = 50
	b.RecordHalt(2, "m2", 30)

	a.Merge(b)
	assert.Equal(t, uint64(150), a.NumProcessedTotal)
	assert.Equal(t, uint64(2), a.NumHold)
	assert.Equal(t, uint32(30), a.StepsMax)
}

func TestSummaryIncludesKeyFields(t *testing.T) {
	r := NewResultStats(10, 10)
	r.RecordHalt(1, "1RB1LA_1LA1RZ", 5)
	s := r.Summary()
	assert.Contains(t, s, "halted: 1")
	assert.Contains(t, s, "max steps: 5")
}
