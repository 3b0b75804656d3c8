package decide

import (
	"fmt"
	"sort"
	"time"
)

// EndReasonKind tags an EndReason variant.
type EndReasonKind int

const (
	EndNone EndReasonKind = iota
	EndAllMachinesChecked
	EndError
	EndIsLastBatch
	EndMachineLimitReached
	EndNoBatchData
	EndNoMoreData
	EndStopRequested
	EndRecordLimitDecidedReached
	EndRecordLimitUndecidedReached
)

// severity ranks end-reasons so the aggregator can keep the most severe one
// across batches: Error > Stop > RecordLimit > AllMachinesChecked > None.
func (k EndReasonKind) severity() int {
	switch k {
	case EndError:
		return 5
	case EndStopRequested:
		return 4
	case EndRecordLimitDecidedReached, EndRecordLimitUndecidedReached, EndMachineLimitReached:
		return 3
	case EndAllMachinesChecked, EndIsLastBatch, EndNoMoreData, EndNoBatchData:
		return 2
	default:
		return 0
	}
}

// EndReason is the tagged union of how a batch, or the whole run, ended.
type EndReason struct {
	Kind      EndReasonKind
	MachineID uint64
	Message   string
	Limit     uint64
}

func (e EndReason) String() string {
	switch e.Kind {
	case EndNone:
		return "no end reason"
	case EndAllMachinesChecked:
		return "all machines checked"
	case EndError:
		return fmt.Sprintf("machine %d: error: %s", e.MachineID, e.Message)
	case EndIsLastBatch:
		return "last batch"
	case EndMachineLimitReached:
		return fmt.Sprintf("limit of %d machines reached", e.Limit)
	case EndNoBatchData:
		return "no data in this batch"
	case EndNoMoreData:
		return "no more data found"
	case EndStopRequested:
		return fmt.Sprintf("machine %d: stop requested: %s", e.MachineID, e.Message)
	case EndRecordLimitDecidedReached:
		return fmt.Sprintf("limit (%d) for recording decided machines reached", e.Limit)
	case EndRecordLimitUndecidedReached:
		return fmt.Sprintf("limit (%d) for recording undecided machines reached", e.Limit)
	default:
		return "unknown end reason"
	}
}

// MergeEndReason keeps whichever of a, b is more severe (ties favor a).
func MergeEndReason(a, b EndReason) EndReason {
	if b.Kind.severity() > a.Kind.severity() {
		return b
	}
	return a
}

// MachineInfo identifies one recorded machine (decided or undecided) for the
// result's bounded extremum/undecided lists.
type MachineInfo struct {
	ID     uint64
	Text   string
	Status MachineStatus
}

// PreDeciderCounts breaks down machines eliminated by the pre-decider.
type PreDeciderCounts struct {
	NotAllStatesUsed      uint64
	NotExactlyOneHalt     uint64
	NotStartStateBRight   uint64
	OnlyOneDirection      uint64
	SimpleStartCycle      uint64
	StartRecursive        uint64
	WritesOnlyZero        uint64
}

// EndlessCounts breaks down machines decided as non-halting.
type EndlessCounts struct {
	Cycler           uint64
	Bouncer          uint64
	ExpandingBouncer uint64
	ExpandingCycler  uint64
}

// DurationBreakdown times the three phases named in spec.md section 7.
type DurationBreakdown struct {
	DataProvider time.Duration
	Decider      time.Duration
	Wall         time.Duration
}

// ResultStats aggregates one decider chain run (or one batch, before it is
// folded into the run total).
type ResultStats struct {
	NumProcessedTotal uint64
	NumEvaluated      uint64
	NumHold           uint64
	NumNotMax         uint64
	NumUndecided      uint64

	PreDecider PreDeciderCounts
	Endless    EndlessCounts

	StepsMax         uint32
	MachinesMaxSteps []MachineInfo // ties on StepsMax, lowest id wins ordering

	LimitMachinesDecided   int
	LimitMachinesUndecided int
	MachinesDecided        []MachineInfo
	MachinesUndecided      []MachineInfo

	EndReason EndReason
	Duration  DurationBreakdown
}

// NewResultStats builds a zero result with the configured record limits.
func NewResultStats(limitDecided, limitUndecided int) *ResultStats {
	return &ResultStats{
		LimitMachinesDecided:   limitDecided,
		LimitMachinesUndecided: limitUndecided,
	}
}

// RecordHalt folds in a halting machine's result, maintaining the max-steps
// extremum set with lowest-id tie-break.
func (r *ResultStats) RecordHalt(id uint64, text string, steps uint32) {
	r.NumHold++
	switch {
	case steps > r.StepsMax:
		r.StepsMax = steps
		r.MachinesMaxSteps = []MachineInfo{{ID: id, Text: text, Status: DecidedHalt(steps)}}
	case steps == r.StepsMax:
		r.MachinesMaxSteps = append(r.MachinesMaxSteps, MachineInfo{ID: id, Text: text, Status: DecidedHalt(steps)})
		sort.Slice(r.MachinesMaxSteps, func(i, j int) bool {
			return r.MachinesMaxSteps[i].ID < r.MachinesMaxSteps[j].ID
		})
		const maxRecorded = 10
		if len(r.MachinesMaxSteps) > maxRecorded {
			r.MachinesMaxSteps = r.MachinesMaxSteps[:maxRecorded]
		}
	}
	if r.LimitMachinesDecided > 0 && len(r.MachinesDecided) < r.LimitMachinesDecided {
		r.MachinesDecided = append(r.MachinesDecided, MachineInfo{ID: id, Text: text, Status: DecidedHalt(steps)})
	}
}

// RecordNonHalt folds in a proven-non-halting machine.
func (r *ResultStats) RecordNonHalt(id uint64, text string, reason NonHaltReason) {
	switch reason.Kind {
	case NonHaltCycler:
		r.Endless.Cycler++
	case NonHaltBouncer:
		r.Endless.Bouncer++
	case NonHaltExpandingBouncer:
		r.Endless.ExpandingBouncer++
	case NonHaltExpandingCycler:
		r.Endless.ExpandingCycler++
	}
	if r.LimitMachinesDecided > 0 && len(r.MachinesDecided) < r.LimitMachinesDecided {
		r.MachinesDecided = append(r.MachinesDecided, MachineInfo{ID: id, Text: text, Status: DecidedNonHalt(reason)})
	}
}

// RecordPreDeciderElimination folds in a pre-decider elimination.
func (r *ResultStats) RecordPreDeciderElimination(reason PreDeciderReason) {
	switch reason {
	case PreDeciderNotAllStatesUsed:
		r.PreDecider.NotAllStatesUsed++
	case PreDeciderNotExactlyOneHalt:
		r.PreDecider.NotExactlyOneHalt++
	case PreDeciderNotStartStateBRight:
		r.PreDecider.NotStartStateBRight++
	case PreDeciderOnlyOneDirection:
		r.PreDecider.OnlyOneDirection++
	case PreDeciderSimpleStartCycle:
		r.PreDecider.SimpleStartCycle++
	case PreDeciderStartRecursive:
		r.PreDecider.StartRecursive++
	case PreDeciderWritesOnlyZero:
		r.PreDecider.WritesOnlyZero++
	}
}

// RecordUndecided folds in a machine left undecided after the whole chain,
// honoring the record limit (setting the end-reason once it is reached).
func (r *ResultStats) RecordUndecided(id uint64, text string, status MachineStatus) {
	r.NumUndecided++
	if r.LimitMachinesUndecided > 0 {
		if len(r.MachinesUndecided) >= r.LimitMachinesUndecided {
			r.EndReason = MergeEndReason(r.EndReason, EndReason{Kind: EndRecordLimitUndecidedReached, Limit: uint64(r.LimitMachinesUndecided)})
			return
		}
		r.MachinesUndecided = append(r.MachinesUndecided, MachineInfo{ID: id, Text: text, Status: status})
	}
}

// SortUndecided sorts the undecided list by id, per spec.md's reporting
// boundary rule ("sorted by id at the reporting boundary").
func (r *ResultStats) SortUndecided() {
	sort.Slice(r.MachinesUndecided, func(i, j int) bool {
		return r.MachinesUndecided[i].ID < r.MachinesUndecided[j].ID
	})
}

// Merge folds other into r: counters are summed (associative), the max-steps
// set is recomputed with tie-break by id, and the end-reason keeps the more
// severe of the two.
func (r *ResultStats) Merge(other *ResultStats) {
	r.NumProcessedTotal += other.NumProcessedTotal
	r.NumEvaluated += other.NumEvaluated
	r.NumHold += other.NumHold
	r.NumNotMax += other.NumNotMax
	r.NumUndecided += other.NumUndecided

	r.PreDecider.NotAllStatesUsed += other.PreDecider.NotAllStatesUsed
	r.PreDecider.NotExactlyOneHalt += other.PreDecider.NotExactlyOneHalt
	r.PreDecider.NotStartStateBRight += other.PreDecider.NotStartStateBRight
	r.PreDecider.OnlyOneDirection += other.PreDecider.OnlyOneDirection
	r.PreDecider.SimpleStartCycle += other.PreDecider.SimpleStartCycle
	r.PreDecider.StartRecursive += other.PreDecider.StartRecursive
	r.PreDecider.WritesOnlyZero += other.PreDecider.WritesOnlyZero

	r.Endless.Cycler += other.Endless.Cycler
	r.Endless.Bouncer += other.Endless.Bouncer
	r.Endless.ExpandingBouncer += other.Endless.ExpandingBouncer
	r.Endless.ExpandingCycler += other.Endless.ExpandingCycler

	switch {
	case other.StepsMax > r.StepsMax:
		r.StepsMax = other.StepsMax
		r.MachinesMaxSteps = append([]MachineInfo(nil), other.MachinesMaxSteps...)
	case other.StepsMax == r.StepsMax:
		r.MachinesMaxSteps = append(r.MachinesMaxSteps, other.MachinesMaxSteps...)
		sort.Slice(r.MachinesMaxSteps, func(i, j int) bool {
			return r.MachinesMaxSteps[i].ID < r.MachinesMaxSteps[j].ID
		})
	}

	r.MachinesDecided = append(r.MachinesDecided, other.MachinesDecided...)
	r.MachinesUndecided = append(r.MachinesUndecided, other.MachinesUndecided...)

	r.Duration.DataProvider += other.Duration.DataProvider
	r.Duration.Decider += other.Duration.Decider

	r.EndReason = MergeEndReason(r.EndReason, other.EndReason)
}

// Summary renders the category counts, max-step machines (up to 10) and
// undecided machines (up to the configured record limit), plus the timing
// breakdown — the user-visible completion report named in spec.md section 7.
func (r *ResultStats) Summary() string {
	var b fmtBuilder
	b.printf("processed: %d, evaluated: %d, halted: %d, undecided: %d, not-max: %d\n",
		r.NumProcessedTotal, r.NumEvaluated, r.NumHold, r.NumUndecided, r.NumNotMax)
	b.printf("max steps: %d (%d machine(s))\n", r.StepsMax, len(r.MachinesMaxSteps))
	for _, m := range r.MachinesMaxSteps {
		b.printf("  id=%d %s\n", m.ID, m.Text)
	}
	if len(r.MachinesUndecided) > 0 {
		b.printf("undecided machines recorded: %d\n", len(r.MachinesUndecided))
		for _, m := range r.MachinesUndecided {
			b.printf("  id=%d %s %s\n", m.ID, m.Text, m.Status)
		}
	}
	b.printf("end reason: %s\n", r.EndReason)
	b.printf("duration: data-provider=%s decider=%s wall=%s\n",
		r.Duration.DataProvider, r.Duration.Decider, r.Duration.Wall)
	return b.String()
}

// fmtBuilder is a tiny strings.Builder-equivalent wrapper so Summary reads
// close to the teacher's own small report-formatting helpers, without
// pulling in a templating dependency for a handful of lines.
type fmtBuilder struct {
	s string
}

func (b *fmtBuilder) printf(format string, args ...any) {
	b.s += fmt.Sprintf(format, args...)
}

func (b *fmtBuilder) String() string { return b.s }
