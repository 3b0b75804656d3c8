package transition

// ParseRaw decodes the bbchallenge.org binary dataset's raw transition byte
// triple (as opposed to the ASCII text form Parse handles): byte 0 is the
// write symbol (0 or 1), byte 1 is the direction (0=right, 1=left), byte 2
// is the next state (0=halt, 1..maxStates=state). There is no raw encoding
// for "---"; an all-zero triple decodes to the halt-at-state-0 transition
// that writes 0 and moves right, which is what the dataset uses for unused
// trailing rows on machines with fewer than 5 states.
func ParseRaw(b [3]byte, maxStates uint8) (Transition, error) {
	var t Transition
	switch b[0] {
	case 0:
	case 1:
		t |= symbolOne
	default:
		return 0, &TransitionError{Field: "symbol", Value: b[0]}
	}

	switch b[1] {
	case 0:
		t |= dirRight
	case 1:
		t |= dirLeft
	default:
		return 0, &TransitionError{Field: "direction", Value: b[1]}
	}

	if b[2] > maxStates {
		return 0, &TransitionError{Field: "state", Value: b[2]}
	}
	t |= Transition(b[2]) << 1

	return t, nil
}

// FormatRaw is the inverse of ParseRaw.
func (t Transition) FormatRaw() [3]byte {
	var b [3]byte
	b[0] = t.Symbol()
	if t.IsDirLeft() {
		b[1] = 1
	}
	b[2] = t.State()
	return b
}
