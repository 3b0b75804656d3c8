// Package provider implements the two data providers named in spec.md 4.G
// and 4.H: the combinatorial enumerator and the fixed-record file reader.
// Both hand the executor a Batch of machines to run through the decider
// chain.
package provider

import (
	"github.com/GunterSchmidt/bb-challenge-sub000/decide"
	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

// Batch carries one unit of work through the decider chain executor,
// grounded on spec.md section 3's Batch data model.
type Batch struct {
	Machines []transition.Machine
	IDs      []uint64

	// PreDeciderEliminated counts machines the provider itself filtered out
	// before they ever reached Batch.Machines (the enumerator's inline fast
	// check); zero for providers that don't pre-filter.
	PreDeciderEliminated decide.PreDeciderCounts

	Index      int
	NumBatches int

	// RequiresPreDecider tells the executor whether the full pre-decider
	// must still run ahead of the first configured decider. Enumerator
	// batches are already filtered (false); file-reader batches are not
	// (true), per spec.md 4.H.
	RequiresPreDecider bool

	// IsLastBatch marks the final batch of a run (spec.md's
	// EndReason::IsLastBatch).
	IsLastBatch bool
}
