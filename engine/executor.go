package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GunterSchmidt/bb-challenge-sub000/decide"
	"github.com/GunterSchmidt/bb-challenge-sub000/provider"
	"github.com/GunterSchmidt/bb-challenge-sub000/tape"
	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

// stage is the common shape of the three simulating deciders (cycle,
// bouncer, halt): run from scratch on a fresh tape, report a verdict.
type stage interface {
	Decide(m *transition.Machine, tp *tape.Tape) decide.MachineStatus
}

// Chain composes the fixed decider pipeline (spec.md section 2's data flow
// C -> D -> E -> F) plus the tape geometry every stage simulates against.
//
// ResultWorker, when set, is invoked after every stage that decided at
// least one machine (spec.md 4.I step 2's optional per-batch result-worker
// callback). An error return is recorded as the batch's end-reason and
// stops the remaining stages for that batch — machines still pending at
// that point fall straight through to the final undecided recording.
type Chain struct {
	tapeConfig   tape.Config
	stages       []stage
	stageNames   []string
	ResultWorker func(stageName string, decided []decide.MachineInfo) error
}

// NewChain builds the default chain (cycle, bouncer, halt) from cfg.
func NewChain(cfg Config) *Chain {
	return &Chain{
		tapeConfig: tape.Config{InitBlocks: cfg.TapeInitBlocks, MaxCells: cfg.TapeMaxCells},
		stages: []stage{
			decide.NewCycleDecider(cfg.StepLimitCycler),
			decide.NewBouncerDecider(cfg.StepLimitBouncer),
			decide.NewHaltDecider(cfg.StepLimitHold),
		},
		stageNames: []string{"cycle", "bouncer", "halt"},
	}
}

// pendingItem threads one still-undecided machine through the chain.
type pendingItem struct {
	id     uint64
	m      transition.Machine
	status decide.MachineStatus
}

// DecideBatch runs component I's decide_batch_chain over one Batch,
// folding every verdict into result: the pre-decider (when the batch
// requires it), then each simulating stage in turn, passing only the
// previous stage's undecided output forward (spec.md 4.I steps 1-4).
func (c *Chain) DecideBatch(batch provider.Batch, result *decide.ResultStats) {
	eliminatedByProvider := sumPreDeciderCounts(batch.PreDeciderEliminated)
	mergePreDeciderCounts(&result.PreDecider, batch.PreDeciderEliminated)
	result.NumProcessedTotal += uint64(len(batch.Machines)) + eliminatedByProvider

	pending := make([]pendingItem, len(batch.Machines))
	for i := range batch.Machines {
		pending[i] = pendingItem{id: batch.IDs[i], m: batch.Machines[i]}
	}

	halted := false
	runStage := func(name string, run func(m *transition.Machine) decide.MachineStatus) {
		if halted {
			return
		}
		next := pending[:0]
		var decided []decide.MachineInfo
		for _, it := range pending {
			it.status = run(&it.m)
			if foldDecided(result, it.id, it.m, it.status) {
				decided = append(decided, decide.MachineInfo{ID: it.id, Text: transition.FormatText(it.m), Status: it.status})
				continue
			}
			next = append(next, it)
		}
		pending = next
		if c.ResultWorker != nil && len(decided) > 0 {
			if err := c.ResultWorker(name, decided); err != nil {
				result.EndReason = decide.MergeEndReason(result.EndReason, decide.EndReason{Kind: decide.EndError, Message: err.Error()})
				halted = true
			}
		}
	}

	if batch.RequiresPreDecider {
		// The file reader's machines are not pre-constrained to the reduced
		// A0 domain the enumerator guarantees, so the simple start-transition
		// rule applies here (see predecider.go's PreDeciderVariant doc).
		runStage("pre-decider", func(m *transition.Machine) decide.MachineStatus {
			return decide.Run(m, decide.PreDeciderSimpleVariant)
		})
	}

	for i, s := range c.stages {
		st := s
		runStage(c.stageNames[i], func(m *transition.Machine) decide.MachineStatus {
			tp := tape.New(c.tapeConfig)
			return st.Decide(m, tp)
		})
	}

	for _, it := range pending {
		result.RecordUndecided(it.id, transition.FormatText(it.m), it.status)
	}
}

// foldDecided records status into result if it is a final verdict, and
// reports whether it was (i.e. whether the item should leave the chain).
func foldDecided(result *decide.ResultStats, id uint64, m transition.Machine, status decide.MachineStatus) bool {
	switch status.Kind {
	case decide.StatusDecidedHalt:
		result.NumEvaluated++
		result.RecordHalt(id, transition.FormatText(m), status.HaltSteps)
		return true
	case decide.StatusDecidedNonHalt:
		result.NumEvaluated++
		result.RecordNonHalt(id, transition.FormatText(m), status.NonHalt)
		return true
	case decide.StatusDecidedNotMax:
		result.NumEvaluated++
		result.NumNotMax++
		return true
	case decide.StatusEliminatedPreDecider:
		result.RecordPreDeciderElimination(status.PreDecider)
		return true
	default:
		return false
	}
}

func sumPreDeciderCounts(c decide.PreDeciderCounts) uint64 {
	return c.NotAllStatesUsed + c.NotExactlyOneHalt + c.NotStartStateBRight +
		c.OnlyOneDirection + c.SimpleStartCycle + c.StartRecursive + c.WritesOnlyZero
}

func mergePreDeciderCounts(dst *decide.PreDeciderCounts, src decide.PreDeciderCounts) {
	dst.NotAllStatesUsed += src.NotAllStatesUsed
	dst.NotExactlyOneHalt += src.NotExactlyOneHalt
	dst.NotStartStateBRight += src.NotStartStateBRight
	dst.OnlyOneDirection += src.OnlyOneDirection
	dst.SimpleStartCycle += src.SimpleStartCycle
	dst.StartRecursive += src.StartRecursive
	dst.WritesOnlyZero += src.WritesOnlyZero
}

// BatchSource abstracts the two data providers (enumerator, file reader)
// behind the single pull contract the executor variants need.
type BatchSource interface {
	Name() string
	Next() (provider.Batch, error)
}

// EnumeratorSource adapts *provider.Enumerator to BatchSource.
type EnumeratorSource struct {
	E        *provider.Enumerator
	MaxCount int
}

func (s *EnumeratorSource) Name() string { return "enumerator" }

func (s *EnumeratorSource) Next() (provider.Batch, error) {
	return s.E.NextBatch(s.MaxCount), nil
}

// FileSource adapts *provider.FileProvider to BatchSource.
type FileSource struct {
	P *provider.FileProvider
}

func (s *FileSource) Name() string { return "bb_challenge file reader" }

func (s *FileSource) Next() (provider.Batch, error) { return s.P.NextBatch() }

// RunSingleThreaded pulls batches sequentially and runs the chain on each,
// the simplest of the three variants named in spec.md 4.I.
func RunSingleThreaded(ctx context.Context, src BatchSource, chain *Chain, cfg Config, log *Logger) (*decide.ResultStats, error) {
	start := time.Now()
	result := decide.NewResultStats(cfg.LimitMachinesDecided, cfg.LimitMachinesUndecided)

	for {
		select {
		case <-ctx.Done():
			result.EndReason = decide.MergeEndReason(result.EndReason, decide.EndReason{Kind: decide.EndStopRequested, Message: ctx.Err().Error()})
			result.Duration.Wall = time.Since(start)
			return result, nil
		default:
		}

		batch, err := src.Next()
		if err != nil {
			logSourceError(log, src.Name(), err)
			return result, fmt.Errorf("engine: %s: %w", src.Name(), err)
		}
		logBatchClaimed(log, src.Name(), batch.Index, len(batch.Machines))

		holdBefore, undecidedBefore := result.NumHold, result.NumUndecided
		chain.DecideBatch(batch, result)
		logBatchDecided(log, batch.Index, len(batch.Machines), int(result.NumHold-holdBefore), int(result.NumUndecided-undecidedBefore))

		if batch.IsLastBatch {
			result.EndReason = decide.MergeEndReason(result.EndReason, decide.EndReason{Kind: decide.EndAllMachinesChecked})
			break
		}
		if result.EndReason.Kind != decide.EndNone {
			break
		}
	}

	result.SortUndecided()
	result.Duration.Wall = time.Since(start)
	logRunEnd(log, result.EndReason.String())
	return result, nil
}

// RunProducerConsumer implements the threaded-single-producer variant: one
// goroutine calls the data provider in a loop, pushing batches into a
// bounded buffer (the microbatch package's ping/pong-buffered-channel
// idiom); a pool of worker goroutines drains the buffer and runs the
// decider chain, reporting per-batch results to a single aggregator
// goroutine over a completion channel (psampaz-bigslice/exec.Eval's
// channel-based fan-in, generalized from a done/err pair to a result
// stream). The lifecycle of the whole goroutine group is managed by
// errgroup.
func RunProducerConsumer(ctx context.Context, src BatchSource, newChain func() *Chain, cfg Config, numWorkers, bufferSize int, log *Logger) (*decide.ResultStats, error) {
	start := time.Now()
	if numWorkers < 1 {
		numWorkers = 1
	}
	if bufferSize < 1 {
		bufferSize = numWorkers * 2
	}

	batchCh := make(chan provider.Batch, bufferSize)
	statCh := make(chan *decide.ResultStats, numWorkers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batchCh)
		for {
			batch, err := src.Next()
			if err != nil {
				logSourceError(log, src.Name(), err)
				return fmt.Errorf("engine: %s: %w", src.Name(), err)
			}
			logBatchClaimed(log, src.Name(), batch.Index, len(batch.Machines))
			select {
			case batchCh <- batch:
			case <-gctx.Done():
				return gctx.Err()
			}
			if batch.IsLastBatch {
				return nil
			}
		}
	})

	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			chain := newChain()
			for {
				select {
				case batch, ok := <-batchCh:
					if !ok {
						return nil
					}
					local := decide.NewResultStats(cfg.LimitMachinesDecided, cfg.LimitMachinesUndecided)
					chain.DecideBatch(batch, local)
					select {
					case statCh <- local:
					case <-gctx.Done():
						return gctx.Err()
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	aggregated := decide.NewResultStats(cfg.LimitMachinesDecided, cfg.LimitMachinesUndecided)
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for local := range statCh {
			holdBefore, undecidedBefore := aggregated.NumHold, aggregated.NumUndecided
			aggregated.Merge(local)
			logBatchDecided(log, -1, 0, int(aggregated.NumHold-holdBefore), int(aggregated.NumUndecided-undecidedBefore))
		}
	}()

	runErr := g.Wait()
	close(statCh)
	<-aggDone

	truncateRecordLimits(aggregated, cfg)
	aggregated.SortUndecided()
	if runErr == nil {
		aggregated.EndReason = decide.MergeEndReason(aggregated.EndReason, decide.EndReason{Kind: decide.EndAllMachinesChecked})
	}
	aggregated.Duration.Wall = time.Since(start)
	logRunEnd(log, aggregated.EndReason.String())
	return aggregated, runErr
}

// RunFullyConcurrent implements the fully-multi-threaded variant, only
// available over a random-access provider (the enumerator; spec.md 4.I
// excludes the file reader from this variant by default). Each worker owns
// an independent *provider.Enumerator positioned via SeekBatch at a batch
// index it claims from a shared atomic counter, so there is no contention
// on provider state and no separate producer pool is needed — enumeration
// itself is pure arithmetic, unlike the file reader's I/O-bound batches,
// which is why this engine does not attempt the live producer/consumer
// rebalancing spec.md describes for that case (see DESIGN.md's executor
// notes on the fully-concurrent variant). Worker count is derived from CPUUtilizationPercent
// against runtime.NumCPU, honoring values above 100 to counter
// hyper-threading stalls.
func RunFullyConcurrent(ctx context.Context, enumCfg provider.EnumeratorConfig, cfg Config, log *Logger) (*decide.ResultStats, error) {
	start := time.Now()
	probe := provider.NewEnumerator(enumCfg)
	numBatches := int64(probe.NumBatches())

	numWorkers := cpuWorkerCount(cfg.CPUUtilizationPercent)

	var nextBatch int64
	statCh := make(chan *decide.ResultStats, numWorkers)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			e := provider.NewEnumerator(enumCfg)
			chain := NewChain(cfg)
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				idx := atomic.AddInt64(&nextBatch, 1) - 1
				if idx >= numBatches {
					return nil
				}
				e.SeekBatch(int(idx))
				batch := e.NextBatch(enumCfg.BatchSize)
				logBatchClaimed(log, "enumerator", batch.Index, len(batch.Machines))

				local := decide.NewResultStats(cfg.LimitMachinesDecided, cfg.LimitMachinesUndecided)
				chain.DecideBatch(batch, local)
				select {
				case statCh <- local:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	aggregated := decide.NewResultStats(cfg.LimitMachinesDecided, cfg.LimitMachinesUndecided)
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for local := range statCh {
			aggregated.Merge(local)
		}
	}()

	runErr := g.Wait()
	close(statCh)
	<-aggDone

	truncateRecordLimits(aggregated, cfg)
	aggregated.SortUndecided()
	if runErr == nil {
		aggregated.EndReason = decide.MergeEndReason(aggregated.EndReason, decide.EndReason{Kind: decide.EndAllMachinesChecked})
	}
	aggregated.Duration.Wall = time.Since(start)
	logRunEnd(log, aggregated.EndReason.String())
	return aggregated, runErr
}

// cpuWorkerCount applies CPUUtilizationPercent (0-150) against the logical
// CPU count, per spec.md 4.I's "up to 150% honored" rule.
func cpuWorkerCount(percent int) int {
	if percent <= 0 {
		percent = 100
	}
	n := runtime.NumCPU() * percent / 100
	if n < 1 {
		n = 1
	}
	return n
}

// truncateRecordLimits applies the aggregate record limits post-merge: the
// concurrent variants give each worker its own local ResultStats (so a
// single worker never silently drops another worker's undecided machines
// mid-run), then cap the merged lists here. spec.md's ordering note
// explicitly tolerates thread-nondeterministic arrival order, so which
// machines survive the cap when the true total exceeds it is not
// reproducible across runs — only the category counters are.
func truncateRecordLimits(r *decide.ResultStats, cfg Config) {
	if cfg.LimitMachinesDecided > 0 && len(r.MachinesDecided) > cfg.LimitMachinesDecided {
		r.MachinesDecided = r.MachinesDecided[:cfg.LimitMachinesDecided]
	}
	if cfg.LimitMachinesUndecided > 0 && len(r.MachinesUndecided) > cfg.LimitMachinesUndecided {
		r.MachinesUndecided = r.MachinesUndecided[:cfg.LimitMachinesUndecided]
	}
}
