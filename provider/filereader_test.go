package provider

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

// fixtureMachine returns a fixed 5-state machine's 10 transitions, varied
// enough to exercise every raw-byte field (both symbols, both directions,
// halt, mid-range states).
func fixtureMachine() [10]transition.Transition {
	return [10]transition.Transition{
		transition.New(1, transition.DirRight, 2), // A0
		transition.New(0, transition.DirLeft, 3),  // A1
		transition.New(1, transition.DirLeft, 1),  // B0
		transition.New(0, transition.DirRight, 4), // B1
		transition.New(1, transition.DirRight, 5), // C0
		transition.New(1, transition.DirLeft, 2),  // C1
		transition.New(0, transition.DirLeft, 5),  // D0
		transition.New(1, transition.DirRight, 1), // D1
		transition.New(0, transition.DirRight, 0), // E0 (halt)
		transition.New(1, transition.DirLeft, 3),  // E1
	}
}

func encodeRecord(ts [10]transition.Transition) [fileRecordBytes]byte {
	var buf [fileRecordBytes]byte
	for i := 0; i < 5; i++ {
		p := i * 6
		b0 := ts[i*2].FormatRaw()
		b1 := ts[i*2+1].FormatRaw()
		copy(buf[p:p+3], b0[:])
		copy(buf[p+3:p+6], b1[:])
	}
	return buf
}

func buildDataset(t *testing.T, nMachines uint64, machines ...[10]transition.Transition) []byte {
	t.Helper()
	var buf bytes.Buffer
	header := make([]byte, fileRecordBytes)
	binary.BigEndian.PutUint32(header[8:12], uint32(nMachines))
	header[12] = 1 // is_sorted
	buf.Write(header)
	for _, m := range machines {
		rec := encodeRecord(m)
		buf.Write(rec[:])
	}
	return buf.Bytes()
}

func TestReadHeaderParsesCounts(t *testing.T) {
	data := buildDataset(t, 3, fixtureMachine(), fixtureMachine(), fixtureMachine())
	fr, err := NewFileReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), fr.Header().NumUndecidedMachines)
	assert.True(t, fr.Header().IsSorted)
}

func TestReadMachineRangeDecodesRecords(t *testing.T) {
	fixture := fixtureMachine()
	data := buildDataset(t, 2, fixture, fixture)
	fr, err := NewFileReader(bytes.NewReader(data))
	require.NoError(t, err)

	machines, ids, err := fr.ReadMachineRange(0, 2)
	require.NoError(t, err)
	require.Len(t, machines, 2)
	assert.Equal(t, []uint64{0, 1}, ids)

	for _, m := range machines {
		assert.Equal(t, uint8(5), m.NStates)
		for state := uint8(1); state <= 5; state++ {
			assert.Equal(t, fixture[(state-1)*2], m.At(state, 0))
			assert.Equal(t, fixture[(state-1)*2+1], m.At(state, 1))
		}
	}
}

func TestReadMachineRangeSeeksToID(t *testing.T) {
	a := fixtureMachine()
	b := fixtureMachine()
	b[0] = transition.New(0, transition.DirLeft, 2) // distinguish A0
	data := buildDataset(t, 2, a, b)
	fr, err := NewFileReader(bytes.NewReader(data))
	require.NoError(t, err)

	machines, ids, err := fr.ReadMachineRange(1, 1)
	require.NoError(t, err)
	require.Len(t, machines, 1)
	assert.Equal(t, []uint64{1}, ids)
	assert.Equal(t, b[0], machines[0].At(1, 0))
}

func TestReadMachineRangeStopsAtEOF(t *testing.T) {
	data := buildDataset(t, 1, fixtureMachine())
	fr, err := NewFileReader(bytes.NewReader(data))
	require.NoError(t, err)

	machines, ids, err := fr.ReadMachineRange(0, 5)
	require.NoError(t, err)
	assert.Len(t, machines, 1)
	assert.Len(t, ids, 1)
}

func TestFileProviderBatchesSequentiallyAndMarksLast(t *testing.T) {
	fixture := fixtureMachine()
	data := buildDataset(t, 5, fixture, fixture, fixture, fixture, fixture)
	fr, err := NewFileReader(bytes.NewReader(data))
	require.NoError(t, err)

	p := NewFileProvider(fr, FileProviderConfig{BatchSize: 2})
	assert.Equal(t, uint64(5), p.NumMachines())

	var total int
	var lastBatch bool
	for i := 0; i < 10 && !lastBatch; i++ {
		b, err := p.NextBatch()
		require.NoError(t, err)
		assert.True(t, b.RequiresPreDecider)
		total += len(b.Machines)
		lastBatch = b.IsLastBatch
	}
	require.True(t, lastBatch)
	assert.Equal(t, 5, total)
}

func TestFileProviderRespectsIDRange(t *testing.T) {
	fixture := fixtureMachine()
	data := buildDataset(t, 10, fixture, fixture, fixture, fixture, fixture,
		fixture, fixture, fixture, fixture, fixture)
	fr, err := NewFileReader(bytes.NewReader(data))
	require.NoError(t, err)

	p := NewFileProvider(fr, FileProviderConfig{BatchSize: 100, IDStart: 2, IDEnd: 5})
	assert.Equal(t, uint64(3), p.NumMachines())

	b, err := p.NextBatch()
	require.NoError(t, err)
	assert.True(t, b.IsLastBatch)
	assert.Equal(t, []uint64{2, 3, 4}, b.IDs)
}
