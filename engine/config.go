// Package engine wires the transition/tape/decide/provider packages into a
// runnable decider chain: single-goroutine and threaded-single-producer
// execution over either data provider, fully multi-threaded execution over
// the enumerator, plus the
// ambient configuration and structured logging that sit above the hot loop.
package engine

import "fmt"

// Config carries every tunable named across spec.md's components, built via
// NewBuilder's fluent chain. Defaults are grounded on
// original_source/src/config.rs's constant tables, keyed by n-states.
type Config struct {
	NStates uint8

	StepLimitHold    uint64
	StepLimitCycler  uint32
	StepLimitBouncer uint32

	TapeInitBlocks int
	TapeMaxCells   int

	Reduced             bool
	EnumeratorBatchSize int
	MachinesLimit       uint64

	FileBatchSize int
	FileIDStart   uint64
	FileIDEnd     uint64 // 0 = to end of dataset

	LimitMachinesDecided   int
	LimitMachinesUndecided int

	CPUUtilizationPercent int
}

// stepLimitHoldDefault mirrors config.rs's step_limit_hold_default table.
func stepLimitHoldDefault(n uint8) uint64 {
	switch n {
	case 1, 2:
		return 10
	case 3:
		return 25
	case 4:
		return 110
	case 5:
		return 50_000_000
	default:
		return 50_000_000
	}
}

// stepLimitCyclerDefault mirrors config.rs's step_limit_cycler_default table.
func stepLimitCyclerDefault(n uint8) uint32 {
	switch n {
	case 1, 2:
		return 100
	case 3:
		return 250
	case 4:
		return 500
	case 5:
		return 5_100
	default:
		return 5_100
	}
}

// stepLimitBouncerDefault mirrors config.rs's step_limit_bouncer_default table.
func stepLimitBouncerDefault(n uint8) uint32 {
	switch n {
	case 1, 2:
		return 1_000
	case 3:
		return 5_000
	case 4:
		return 20_000
	case 5:
		return 150_000
	default:
		return 150_000
	}
}

// tapeSizeLimitDefault mirrors config.rs's TAPE_SIZE_LIMIT_DEFAULT constant.
const tapeSizeLimitDefault = 20_000

// tapeInitBlocksDefault mirrors config.rs's TAPE_SIZE_INIT_CELL_BLOCKS.
const tapeInitBlocksDefault = 8

// cpuUtilizationDefault mirrors config.rs's CPU_UTILIZATION_DEFAULT.
const cpuUtilizationDefault = 100

// fileBatchSizeDefault mirrors config.rs's BATCH_SIZE_FILE.
const fileBatchSizeDefault = 200

// Builder builds a Config fluently, following
// original_source/src/config.rs's ConfigBuilder.
type Builder struct {
	cfg Config
}

// NewBuilder seeds every default for the given machine size.
func NewBuilder(nStates uint8) *Builder {
	return &Builder{cfg: Config{
		NStates:               nStates,
		StepLimitHold:         stepLimitHoldDefault(nStates),
		StepLimitCycler:       stepLimitCyclerDefault(nStates),
		StepLimitBouncer:      stepLimitBouncerDefault(nStates),
		TapeInitBlocks:        tapeInitBlocksDefault,
		TapeMaxCells:          tapeSizeLimitDefault,
		FileBatchSize:         fileBatchSizeDefault,
		CPUUtilizationPercent: cpuUtilizationDefault,
	}}
}

func (b *Builder) StepLimitHold(v uint64) *Builder    { b.cfg.StepLimitHold = v; return b }
func (b *Builder) StepLimitCycler(v uint32) *Builder  { b.cfg.StepLimitCycler = v; return b }
func (b *Builder) StepLimitBouncer(v uint32) *Builder { b.cfg.StepLimitBouncer = v; return b }
func (b *Builder) TapeMaxCells(v int) *Builder        { b.cfg.TapeMaxCells = v; return b }
func (b *Builder) TapeInitBlocks(v int) *Builder      { b.cfg.TapeInitBlocks = v; return b }
func (b *Builder) Reduced(v bool) *Builder            { b.cfg.Reduced = v; return b }
func (b *Builder) EnumeratorBatchSize(v int) *Builder { b.cfg.EnumeratorBatchSize = v; return b }
func (b *Builder) MachinesLimit(v uint64) *Builder    { b.cfg.MachinesLimit = v; return b }
func (b *Builder) FileBatchSize(v int) *Builder       { b.cfg.FileBatchSize = v; return b }
func (b *Builder) FileIDRange(start, end uint64) *Builder {
	b.cfg.FileIDStart = start
	b.cfg.FileIDEnd = end
	return b
}
func (b *Builder) LimitMachinesDecided(v int) *Builder {
	b.cfg.LimitMachinesDecided = v
	return b
}
func (b *Builder) LimitMachinesUndecided(v int) *Builder {
	b.cfg.LimitMachinesUndecided = v
	return b
}

// CPUUtilizationPercent sets the worker-sizing knob used by the
// fully-multi-threaded executor variant (0-150; Build returns an error for
// values outside that range).
func (b *Builder) CPUUtilizationPercent(v int) *Builder {
	b.cfg.CPUUtilizationPercent = v
	return b
}

// Build validates and returns the finished Config.
func (b *Builder) Build() (Config, error) {
	cfg := b.cfg
	if cfg.NStates == 0 || cfg.NStates > 5 {
		return Config{}, fmt.Errorf("engine: n_states %d out of supported range 1..5", cfg.NStates)
	}
	if cfg.CPUUtilizationPercent < 0 || cfg.CPUUtilizationPercent > 150 {
		return Config{}, fmt.Errorf("engine: cpu_utilization_percent %d out of range 0..150", cfg.CPUUtilizationPercent)
	}
	return cfg, nil
}
