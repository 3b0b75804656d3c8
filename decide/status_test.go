package decide

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachineStatusPredicates(t *testing.T) {
	assert.True(t, DecidedHalt(10).IsDecided())
	assert.True(t, EliminatedPreDecider(PreDeciderStartRecursive).IsDecided())
	assert.False(t, NoDecision.IsDecided())
	assert.False(t, UndecidedStatus(UndecidedStepLimit, 1, 1).IsDecided())

	assert.True(t, DecidedNonHalt(NonHaltReason{Kind: NonHaltBouncer}).IsBouncer())
	assert.False(t, DecidedNonHalt(NonHaltReason{Kind: NonHaltCycler}).IsBouncer())
	assert.True(t, DecidedNonHalt(NonHaltReason{Kind: NonHaltCycler}).IsCycler())
}

func TestMachineStatusStringVariants(t *testing.T) {
	assert.Contains(t, DecidedHalt(42).String(), "42")
	assert.Contains(t, EliminatedPreDecider(PreDeciderOnlyOneDirection).String(), "only one direction")
	assert.Contains(t, UndecidedStatus(UndecidedTapeSizeLimit, 5, 7).String(), "tape size limit")
	assert.Contains(t, DecidedNotMax(NotMaxNotAllStatesUsed).String(), "not all states used")
}
