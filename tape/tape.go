package tape

import "github.com/GunterSchmidt/bb-challenge-sub000/transition"

// quarterBits is the width of one long-tape block / one window quarter.
const quarterBits = 32

// Tape is the infinite binary tape: a 128-bit sliding window around the
// head, spliced with a segmented long tape holding everything the window
// has drifted away from. Initially all zero, head at cell 0.
type Tape struct {
	w window

	// lowBlockNum is the absolute long-tape block number aligned with the
	// window's lowest quarter (bits 0-31 of lo); the window always spans
	// blocks [lowBlockNum, lowBlockNum+3].
	lowBlockNum int64

	// drift counts net single-bit shifts since the last quarter-boundary
	// recenter: negative for net-rightward movement, positive for
	// net-leftward. Recenter triggers at +/-32 (one quarter).
	drift int

	long *LongTape

	Step uint64
}

// Config bundles the tape-size knobs relevant to construction.
type Config struct {
	InitBlocks int
	MaxCells   int
}

// New creates a blank tape with the head at the initial cell.
func New(cfg Config) *Tape {
	return &Tape{
		long: NewLongTape(cfg.InitBlocks, cfg.MaxCells),
	}
}

// GetCurrentSymbol returns the symbol under the head.
func (t *Tape) GetCurrentSymbol() uint8 {
	return t.w.head()
}

// CountOnes counts all 1-bits written so far: the window plus every
// long-tape block outside it. Blocks within the window are excluded from
// the long-tape scan range to avoid double counting.
func (t *Tape) CountOnes() int {
	n := t.w.countOnes()
	if t.long.hasNonZero {
		for b := t.long.minNonZero; b <= t.long.maxNonZero; b++ {
			if b >= t.lowBlockNum && b <= t.lowBlockNum+3 {
				continue // covered by the window already
			}
			n += popcount32(t.long.Get(b))
		}
	}
	return n
}

func popcount32(v uint32) int {
	c := 0
	for v != 0 {
		v &= v - 1
		c++
	}
	return c
}

// IsLeftEmpty reports whether every cell left of the head is still zero.
func (t *Tape) IsLeftEmpty() bool {
	if t.w.lo<<1 != 0 { // bits 0..62 of lo, i.e. everything left of the head
		return false
	}
	return !t.long.HasNonZeroBefore(t.lowBlockNum)
}

// IsRightEmpty reports whether every cell right of the head is still zero.
func (t *Tape) IsRightEmpty() bool {
	if t.w.hi != 0 {
		return false
	}
	return !t.long.HasNonZeroAfter(t.lowBlockNum + 3)
}

// Left64Bit returns the 64 bits immediately left of (and including, at bit
// 63, the head cell's slot) the head, used by the bouncer decider's
// opposite-side snapshotting.
func (t *Tape) Left64Bit() uint64 { return t.w.lo }

// Right64Bit returns the 64 bits immediately right of the head.
func (t *Tape) Right64Bit() uint64 { return t.w.hi }

// LongTapeHighBlock returns the long-tape block at tl_pos, the cursor
// aligned with the high quarter of the sliding window (spec.md 4.B). Used
// by the cycle decider's cost-control fallback once the tape has grown
// beyond the window on either side, per spec.md 4.D.
func (t *Tape) LongTapeHighBlock() uint32 {
	return t.long.Get(t.lowBlockNum + 3)
}

// CellCount reports the number of long-tape cells currently allocated, used
// for Undecided(TapeSizeLimit, steps, tape_cells) reporting.
func (t *Tape) CellCount() int {
	return t.long.CellCount()
}

// Update writes tr's symbol at the head then shifts the window by one cell
// in tr's direction, recentering against the long tape whenever drift
// accumulates to a full quarter. Returns false if the long tape would need
// to grow beyond its configured limit (surfaced by callers as
// Undecided(TapeSizeLimit)).
func (t *Tape) Update(tr transition.Transition) bool {
	if !tr.IsUndefined() {
		t.w.setHead(tr.Symbol())
	}

	if tr.IsDirRight() {
		return t.stepRight()
	}
	return t.stepLeft()
}

// WriteLastSymbol handles the halt-with-write case (the final transition
// writes a symbol even though it doesn't move), per spec.md 4.F.
func (t *Tape) WriteLastSymbol(tr transition.Transition) {
	if !tr.IsUndefined() {
		t.w.setHead(tr.Symbol())
	}
}

func (t *Tape) stepRight() bool {
	t.w.shiftRight()
	t.Step++
	t.drift--
	if t.drift == -quarterBits {
		return t.recenterRight()
	}
	return true
}

func (t *Tape) stepLeft() bool {
	t.w.shiftLeft()
	t.Step++
	t.drift++
	if t.drift == quarterBits {
		return t.recenterLeft()
	}
	return true
}

// recenterRight saves the window's low quarter (now fully clear of the
// head's reach) to the long tape and loads a fresh high quarter in from it.
func (t *Tape) recenterRight() bool {
	if ok := t.long.Set(t.lowBlockNum, uint32(t.w.lo)); !ok {
		return false
	}
	t.w.shiftRight32()
	t.lowBlockNum++
	t.w.hi |= uint64(t.long.Get(t.lowBlockNum+3)) << 32
	t.drift = 0
	return true
}

// recenterLeft is the mirror of recenterRight.
func (t *Tape) recenterLeft() bool {
	if ok := t.long.Set(t.lowBlockNum+3, uint32(t.w.hi>>32)); !ok {
		return false
	}
	t.w.shiftLeft32()
	t.lowBlockNum--
	t.w.lo |= uint64(t.long.Get(t.lowBlockNum))
	t.drift = 0
	return true
}
