package provider

import (
	"github.com/GunterSchmidt/bb-challenge-sub000/decide"
	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

// Direction picks which end of the transition table rotates fastest during
// enumeration (spec.md 4.G): Forward makes A0/A1 the fastest-changing
// slots; Backward makes the last state's slots fastest. Both orders visit
// the identical set of machines, just in a different sequence.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// EnumeratorConfig configures one enumerator run.
type EnumeratorConfig struct {
	NStates uint8
	// Reduced restricts A0 to {0RB, 1RB}, reflecting that every maximal
	// machine must begin that way (the reduced variant named in spec.md
	// 4.G). It combines with either Direction, reduced backward included:
	// all four combinations share the same generic counters (the source's
	// separate, broken reduced-backward enumerator is not ported — see
	// DESIGN.md).
	Reduced       bool
	Direction     Direction
	BatchSize     int
	MachinesLimit uint64 // 0 = no limit (enumerate all n_machines)
}

// Enumerator produces every binary machine with NStates states, in batches,
// applying an inline fast pre-decider check per spec.md 4.G so only
// surviving machines reach the decider chain.
type Enumerator struct {
	cfg       EnumeratorConfig
	perms     []transition.Transition
	reducedA0 []transition.Transition

	// order lists the table's 2*n used slots (2..2n+1) in rotation order,
	// fastest first.
	order    []int
	counters []int

	idNext     uint64
	nMachines  uint64
	limitID    uint64
	batchSize  uint64
	batchNo    int
	numBatches int
	exhausted  bool
}

// NewEnumerator builds an enumerator positioned at id 0.
func NewEnumerator(cfg EnumeratorConfig) *Enumerator {
	n := int(cfg.NStates)
	perms := transition.AllPermutations(cfg.NStates)
	reducedA0 := []transition.Transition{
		transition.New(0, transition.DirRight, 2),
		transition.New(1, transition.DirRight, 2),
	}

	order := make([]int, 2*n)
	if cfg.Direction == Backward {
		for i := range order {
			order[i] = 2*n + 1 - i
		}
	} else {
		for i := range order {
			order[i] = 2 + i
		}
	}

	e := &Enumerator{
		cfg:       cfg,
		perms:     perms,
		reducedA0: reducedA0,
		order:     order,
		counters:  make([]int, 2*n),
	}

	e.nMachines = e.totalMachines()
	e.limitID = e.nMachines
	if cfg.MachinesLimit > 0 && cfg.MachinesLimit < e.nMachines {
		e.limitID = cfg.MachinesLimit
	}

	bs := cfg.BatchSize
	if bs <= 0 {
		bs = defaultBatchSize(cfg.NStates)
	}
	e.batchSize = uint64(bs)
	e.numBatches = int((e.limitID + e.batchSize - 1) / e.batchSize)

	return e
}

func defaultBatchSize(nStates uint8) int {
	permCount := 4*int(nStates) + 1
	// A full A0/A1 "row pass" (permCount^2), times a handful of passes per
	// batch: keeps batch boundaries aligned on a clean A0/A1 reset, per
	// spec.md 4.G's random-access note.
	return permCount * permCount * 20
}

func (e *Enumerator) domainForSlot(slot int) int {
	if e.cfg.Reduced && slot == 2 {
		return len(e.reducedA0)
	}
	return len(e.perms)
}

func (e *Enumerator) totalMachines() uint64 {
	n := int(e.cfg.NStates)
	total := uint64(1)
	for slot := 2; slot < 2*n+2; slot++ {
		total *= uint64(e.domainForSlot(slot))
	}
	return total
}

func (e *Enumerator) permFor(slot, val int) transition.Transition {
	if e.cfg.Reduced && slot == 2 {
		return e.reducedA0[val]
	}
	return e.perms[val]
}

// NumBatches reports the total batch count for this run.
func (e *Enumerator) NumBatches() int { return e.numBatches }

// NMachines reports the total machine count (post machines-limit).
func (e *Enumerator) NMachines() uint64 { return e.limitID }

// SeekBatch repositions the enumerator at the start of the given batch,
// deriving the slot counters in closed form by successive modulo/division
// of the batch's starting id (spec.md 4.G's "random access" rule).
func (e *Enumerator) SeekBatch(batchNo int) {
	e.batchNo = batchNo
	start := uint64(batchNo) * e.batchSize
	e.idNext = start
	e.exhausted = start >= e.limitID
	e.decodeCounters(start)
}

func (e *Enumerator) decodeCounters(id uint64) {
	remaining := id
	for i, slot := range e.order {
		d := uint64(e.domainForSlot(slot))
		e.counters[i] = int(remaining % d)
		remaining /= d
	}
}

// increment carry-propagates the counters by one machine, fastest slot
// first; it reports whether the whole space wrapped (exhausted).
func (e *Enumerator) increment() bool {
	for i, slot := range e.order {
		d := e.domainForSlot(slot)
		e.counters[i]++
		if e.counters[i] < d {
			return false
		}
		e.counters[i] = 0
	}
	return true
}

func (e *Enumerator) buildMachine() transition.Machine {
	n := int(e.cfg.NStates)
	values := make([]transition.Transition, 2*n+2)
	for i, slot := range e.order {
		values[slot] = e.permFor(slot, e.counters[i])
	}
	rows := make([][2]transition.Transition, n)
	for s := 0; s < n; s++ {
		rows[s][0] = values[2+2*s]
		rows[s][1] = values[2+2*s+1]
	}
	return transition.NewMachine(e.cfg.NStates, rows)
}

// NextBatch consumes up to maxCount consecutive machine ids, advancing the
// enumerator's position, and returns the machines among them that survive
// the inline fast pre-decider check (eliminated ones are only counted). With
// maxCount equal to the batch size, batch k covers the same ids that
// SeekBatch(k) starts from. The
// returned Batch's IsLastBatch is set once the configured machine limit (or
// the full permutation space) is exhausted.
func (e *Enumerator) NextBatch(maxCount int) Batch {
	if e.exhausted || e.idNext >= e.limitID {
		return Batch{Index: e.batchNo, NumBatches: e.numBatches, IsLastBatch: true}
	}

	var machines []transition.Machine
	var ids []uint64
	var elim decide.PreDeciderCounts

	for consumed := 0; consumed < maxCount && e.idNext < e.limitID; consumed++ {
		m := e.buildMachine()
		if status, eliminated := decide.FastCheck(&m); eliminated {
			recordElimination(&elim, status.PreDecider)
		} else {
			machines = append(machines, m)
			ids = append(ids, e.idNext)
		}
		e.idNext++
		if e.increment() {
			e.exhausted = true
			break
		}
	}

	isLast := e.exhausted || e.idNext >= e.limitID
	batch := Batch{
		Machines:             machines,
		IDs:                  ids,
		PreDeciderEliminated: elim,
		Index:                e.batchNo,
		NumBatches:           e.numBatches,
		RequiresPreDecider:   false,
		IsLastBatch:          isLast,
	}
	e.batchNo++
	return batch
}

func recordElimination(c *decide.PreDeciderCounts, reason decide.PreDeciderReason) {
	switch reason {
	case decide.PreDeciderNotAllStatesUsed:
		c.NotAllStatesUsed++
	case decide.PreDeciderNotExactlyOneHalt:
		c.NotExactlyOneHalt++
	case decide.PreDeciderNotStartStateBRight:
		c.NotStartStateBRight++
	case decide.PreDeciderOnlyOneDirection:
		c.OnlyOneDirection++
	case decide.PreDeciderSimpleStartCycle:
		c.SimpleStartCycle++
	case decide.PreDeciderStartRecursive:
		c.StartRecursive++
	case decide.PreDeciderWritesOnlyZero:
		c.WritesOnlyZero++
	}
}
