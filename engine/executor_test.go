package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GunterSchmidt/bb-challenge-sub000/decide"
	"github.com/GunterSchmidt/bb-challenge-sub000/provider"
	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

func buildMachine(t *testing.T, text string) transition.Machine {
	t.Helper()
	m, err := transition.ParseText(text)
	require.NoError(t, err)
	return m
}

func testChain() *Chain {
	cfg, _ := NewBuilder(2).
		StepLimitCycler(300).
		StepLimitBouncer(1000).
		StepLimitHold(10000).
		Build()
	return NewChain(cfg)
}

func TestDecideBatchRecordsHaltingMachine(t *testing.T) {
	// Hand-traced: halts after 5 steps (see decide/halt_test.go).
	m := buildMachine(t, "1RB1LA_1LA1RZ")
	batch := provider.Batch{Machines: []transition.Machine{m}, IDs: []uint64{7}}

	result := decide.NewResultStats(10, 10)
	testChain().DecideBatch(batch, result)

	assert.Equal(t, uint64(1), result.NumProcessedTotal)
	assert.Equal(t, uint64(1), result.NumEvaluated)
	assert.Equal(t, uint64(1), result.NumHold)
	assert.Equal(t, uint64(0), result.NumUndecided)
	require.Len(t, result.MachinesMaxSteps, 1)
	assert.Equal(t, uint64(7), result.MachinesMaxSteps[0].ID)
	assert.Equal(t, uint32(5), result.StepsMax)
}

func TestDecideBatchStopsAtCycleStage(t *testing.T) {
	// A single-state rightward sweep: the cycle decider catches it, so the
	// bouncer and halt stages never run (see decide/cycle_test.go).
	m := buildMachine(t, "1RA1RA")
	batch := provider.Batch{Machines: []transition.Machine{m}, IDs: []uint64{0}}

	result := decide.NewResultStats(10, 10)
	testChain().DecideBatch(batch, result)

	assert.Equal(t, uint64(0), result.NumHold)
	assert.Equal(t, uint64(1), result.Endless.Cycler)
	assert.Equal(t, uint64(0), result.NumUndecided)
}

func TestDecideBatchAppliesSimplePreDeciderWhenRequired(t *testing.T) {
	// Eliminated by PreDeciderSimpleVariant's start-recursive rule (see
	// decide/predecider_test.go's TestPreDeciderStartRecursiveSimple); the
	// strict variant would instead eliminate it as not-start-state-B-right,
	// which would give a different PreDecider reason, so this also pins the
	// simple-vs-strict choice for file-reader batches.
	m := buildMachine(t, "0RA1LB_1RA0LB")
	batch := provider.Batch{
		Machines:           []transition.Machine{m},
		IDs:                []uint64{3},
		RequiresPreDecider: true,
	}

	result := decide.NewResultStats(10, 10)
	testChain().DecideBatch(batch, result)

	assert.Equal(t, uint64(1), result.PreDecider.StartRecursive)
	assert.Equal(t, uint64(0), result.NumEvaluated)
	assert.Equal(t, uint64(0), result.NumUndecided)
}

func TestDecideBatchLeavesUnresolvedMachinesUndecided(t *testing.T) {
	// Step limits small enough that none of the three stages can finish a
	// verdict on an endless rightward sweep.
	cfg, _ := NewBuilder(2).
		StepLimitCycler(1).
		StepLimitBouncer(1).
		StepLimitHold(1).
		Build()
	m := buildMachine(t, "1RA1RA")
	batch := provider.Batch{Machines: []transition.Machine{m}, IDs: []uint64{1}}

	result := decide.NewResultStats(10, 10)
	NewChain(cfg).DecideBatch(batch, result)

	assert.Equal(t, uint64(1), result.NumUndecided)
	require.Len(t, result.MachinesUndecided, 1)
	assert.Equal(t, uint64(1), result.MachinesUndecided[0].ID)
}

func TestDecideBatchCountsProviderPreDeciderEliminations(t *testing.T) {
	// Machines the enumerator already eliminated inline still count toward
	// the total processed and the pre-decider breakdown, even though they
	// never appear in batch.Machines.
	batch := provider.Batch{
		PreDeciderEliminated: decide.PreDeciderCounts{NotAllStatesUsed: 4, WritesOnlyZero: 2},
	}

	result := decide.NewResultStats(10, 10)
	testChain().DecideBatch(batch, result)

	assert.Equal(t, uint64(6), result.NumProcessedTotal)
	assert.Equal(t, uint64(4), result.PreDecider.NotAllStatesUsed)
	assert.Equal(t, uint64(2), result.PreDecider.WritesOnlyZero)
}

// stubSource replays a fixed batch sequence, one per Next call.
type stubSource struct {
	batches []provider.Batch
	next    int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Next() (provider.Batch, error) {
	if s.next >= len(s.batches) {
		return provider.Batch{}, errors.New("stub: exhausted")
	}
	b := s.batches[s.next]
	s.next++
	return b, nil
}

func TestRunSingleThreadedAggregatesAcrossBatches(t *testing.T) {
	haltMachine := buildMachine(t, "1RB1LA_1LA1RZ")
	cyclerMachine := buildMachine(t, "1RA1RA")

	src := &stubSource{batches: []provider.Batch{
		{Machines: []transition.Machine{haltMachine}, IDs: []uint64{0}, Index: 0},
		{Machines: []transition.Machine{cyclerMachine}, IDs: []uint64{1}, Index: 1, IsLastBatch: true},
	}}

	cfg, err := NewBuilder(2).
		StepLimitCycler(300).
		StepLimitBouncer(1000).
		StepLimitHold(10000).
		LimitMachinesDecided(10).
		LimitMachinesUndecided(10).
		Build()
	require.NoError(t, err)

	result, err := RunSingleThreaded(context.Background(), src, NewChain(cfg), cfg, NewLogger())
	require.NoError(t, err)

	assert.Equal(t, uint64(2), result.NumProcessedTotal)
	assert.Equal(t, uint64(1), result.NumHold)
	assert.Equal(t, uint64(1), result.Endless.Cycler)
	assert.Equal(t, decide.EndAllMachinesChecked, result.EndReason.Kind)
}

func TestRunSingleThreadedStopsOnRecordLimit(t *testing.T) {
	m1 := buildMachine(t, "1RA1RA")
	cfg, err := NewBuilder(2).
		StepLimitCycler(1).
		StepLimitBouncer(1).
		StepLimitHold(1).
		LimitMachinesUndecided(1).
		Build()
	require.NoError(t, err)

	src := &stubSource{batches: []provider.Batch{
		{Machines: []transition.Machine{m1, m1}, IDs: []uint64{0, 1}, Index: 0, IsLastBatch: true},
	}}

	result, err := RunSingleThreaded(context.Background(), src, NewChain(cfg), cfg, NewLogger())
	require.NoError(t, err)

	assert.Equal(t, uint64(2), result.NumUndecided)
	assert.Len(t, result.MachinesUndecided, 1)
	assert.Equal(t, decide.EndRecordLimitUndecidedReached, result.EndReason.Kind)
}

func TestDecideBatchResultWorkerErrorStopsRemainingStages(t *testing.T) {
	// A cycler machine is decided at the first stage; the result worker
	// rejects it, so the halt stage below should never run and the
	// end-reason should carry the worker's error.
	m := buildMachine(t, "1RA1RA")
	batch := provider.Batch{Machines: []transition.Machine{m}, IDs: []uint64{9}}

	chain := testChain()
	var calls []string
	chain.ResultWorker = func(stageName string, decided []decide.MachineInfo) error {
		calls = append(calls, stageName)
		return errors.New("rejected")
	}

	result := decide.NewResultStats(10, 10)
	chain.DecideBatch(batch, result)

	assert.Equal(t, []string{"cycle"}, calls)
	assert.Equal(t, decide.EndError, result.EndReason.Kind)
	assert.Equal(t, "rejected", result.EndReason.Message)
}

func TestCPUWorkerCountClampsToAtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, cpuWorkerCount(0), 1)
	assert.GreaterOrEqual(t, cpuWorkerCount(150), 1)
}
