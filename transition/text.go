package transition

import (
	"fmt"
	"strings"
)

// ParseText decodes the standard TM text format, "T_A0 T_A1_T_B0 T_B1_…",
// one row per state, underscore-separated, each row exactly two
// three-character transitions concatenated (e.g. "1RB1LC_1RC1RB_...").
func ParseText(text string) (Machine, error) {
	rows := strings.Split(text, "_")
	if len(rows) == 0 || len(rows) > MaxStates {
		return Machine{}, fmt.Errorf("transition: invalid row count %d", len(rows))
	}
	nStates := uint8(len(rows))
	tableRows := make([][2]Transition, 0, len(rows))
	for i, row := range rows {
		if len(row) != 6 {
			return Machine{}, fmt.Errorf("transition: row %d has inconsistent width %d, want 6", i, len(row))
		}
		var t0, t1 Transition
		var err error
		t0, err = Parse([3]byte{row[0], row[1], row[2]}, nStates)
		if err != nil {
			return Machine{}, fmt.Errorf("transition: row %d symbol 0: %w", i, err)
		}
		t1, err = Parse([3]byte{row[3], row[4], row[5]}, nStates)
		if err != nil {
			return Machine{}, fmt.Errorf("transition: row %d symbol 1: %w", i, err)
		}
		tableRows = append(tableRows, [2]Transition{t0, t1})
	}
	return NewMachine(nStates, tableRows), nil
}

// FormatText renders a Machine back into the standard TM text format.
func FormatText(m Machine) string {
	var b strings.Builder
	for state := uint8(1); state <= m.NStates; state++ {
		if state > 1 {
			b.WriteByte('_')
		}
		t0 := m.At(state, 0)
		t1 := m.At(state, 1)
		b.WriteString(t0.String())
		b.WriteString(t1.String())
	}
	return b.String()
}
