package decide

import (
	"github.com/GunterSchmidt/bb-challenge-sub000/tape"
	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

// HaltDecider simulates up to a configured step limit using the tape
// engine, reporting a definitive halt when reached (spec.md 4.F). It is the
// last stage of the default chain, given the most generous step budget.
type HaltDecider struct {
	StepLimit uint64
}

// NewHaltDecider builds a decider with the given step limit (default for
// n=5 is 50_000_000, per original_source/src/config.rs's
// step_limit_hold_default table).
func NewHaltDecider(stepLimit uint64) *HaltDecider {
	return &HaltDecider{StepLimit: stepLimit}
}

func (d *HaltDecider) Decide(m *transition.Machine, tp *tape.Tape) MachineStatus {
	state := uint8(1)
	symbol := tp.GetCurrentSymbol()
	var step uint64

	for {
		if step >= d.StepLimit {
			return UndecidedStatus(UndecidedStepLimit, uint32(step), uint32(tp.CellCount()))
		}

		tr := m.At(state, symbol)
		if tr.IsHalt() {
			tp.WriteLastSymbol(tr)
			return DecidedHalt(uint32(step + 1))
		}

		if m.SelfReferential && tr.SelfRefSlot() == int(state)*2+int(symbol) {
			consumed, ok := tp.Accelerate(tr.Symbol(), tr.IsDirRight())
			if !ok {
				return UndecidedStatus(UndecidedTapeSizeLimit, uint32(step), uint32(tp.CellCount()))
			}
			if consumed > 0 {
				step += consumed
				symbol = tp.GetCurrentSymbol()
				continue
			}
		}

		if !tp.Update(tr) {
			return UndecidedStatus(UndecidedTapeSizeLimit, uint32(step), uint32(tp.CellCount()))
		}
		step++
		state = tr.State()
		symbol = tp.GetCurrentSymbol()
	}
}
