package provider

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/GunterSchmidt/bb-challenge-sub000/transition"
)

// The bbchallenge.org dataset (spec.md 4.H) is a flat file of fixed 30-byte
// records: a header record followed by one record per 5-state machine. Each
// machine record packs its 5 states' 2 transitions each as 6 raw (non-ASCII)
// bytes, 3 bytes per transition — see transition.ParseRaw.
const (
	fileRecordBytes = 30
	fileNStates     = 5
)

// Header is the dataset's leading record; only its first 13 bytes carry
// data (three big-endian uint32 counts and a one-byte sorted flag), but the
// record itself still occupies a full fileRecordBytes slot ahead of machine
// id 0 (see FilePos).
type Header struct {
	NumUndecidedExceed47MSteps uint64
	NumUndecidedExceed12KCells uint64
	NumUndecidedMachines       uint64
	IsSorted                   bool
}

func readHeader(r io.Reader) (Header, error) {
	var buf [13]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("provider: reading file header: %w", err)
	}
	return Header{
		NumUndecidedExceed47MSteps: uint64(binary.BigEndian.Uint32(buf[0:4])),
		NumUndecidedExceed12KCells: uint64(binary.BigEndian.Uint32(buf[4:8])),
		NumUndecidedMachines:       uint64(binary.BigEndian.Uint32(buf[8:12])),
		IsSorted:                   buf[12] == 1,
	}, nil
}

// FilePos computes the byte offset of machine id within the dataset file:
// the header occupies the slot ahead of id 0.
func FilePos(id uint64) int64 {
	return int64(id+1) * fileRecordBytes
}

// FileReader reads fixed-size machine records at random or sequential
// offsets out of an open bbchallenge.org dataset file.
type FileReader struct {
	rs     io.ReadSeeker
	header Header
}

// NewFileReader reads and validates the dataset header from rs, positioned
// at the start of the file.
func NewFileReader(rs io.ReadSeeker) (*FileReader, error) {
	header, err := readHeader(rs)
	if err != nil {
		return nil, err
	}
	return &FileReader{rs: rs, header: header}, nil
}

// Header reports the dataset's parsed leading record.
func (f *FileReader) Header() Header { return f.header }

// ReadMachineRange seeks to firstID and reads up to count consecutive
// 5-state machines, stopping early (without error) if the file ends first.
func (f *FileReader) ReadMachineRange(firstID uint64, count int) ([]transition.Machine, []uint64, error) {
	if _, err := f.rs.Seek(FilePos(firstID), io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("provider: seeking to machine %d: %w", firstID, err)
	}

	machines := make([]transition.Machine, 0, count)
	ids := make([]uint64, 0, count)
	var buf [fileRecordBytes]byte

	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(f.rs, buf[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, nil, fmt.Errorf("provider: reading machine %d: %w", firstID+uint64(i), err)
		}
		m, err := machineFromRecord(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("provider: decoding machine %d: %w", firstID+uint64(i), err)
		}
		machines = append(machines, m)
		ids = append(ids, firstID+uint64(i))
	}
	return machines, ids, nil
}

// machineFromRecord decodes one 30-byte record into its fixed 5-state
// machine, per bb_file_reader.rs's file_data_array_into_transitions: state
// i+1's two transitions sit at bytes [i*6 : i*6+6).
func machineFromRecord(buf [fileRecordBytes]byte) (transition.Machine, error) {
	rows := make([][2]transition.Transition, fileNStates)
	for i := 0; i < fileNStates; i++ {
		p := i * 6
		t0, err := transition.ParseRaw([3]byte{buf[p], buf[p+1], buf[p+2]}, fileNStates)
		if err != nil {
			return transition.Machine{}, err
		}
		t1, err := transition.ParseRaw([3]byte{buf[p+3], buf[p+4], buf[p+5]}, fileNStates)
		if err != nil {
			return transition.Machine{}, err
		}
		rows[i] = [2]transition.Transition{t0, t1}
	}
	return transition.NewMachine(fileNStates, rows), nil
}

// FileProvider walks an id range of a FileReader in batches, matching
// BBDataProvider's sequential-batch contract. Unlike Enumerator, it applies
// no inline filtering: every Batch it produces carries RequiresPreDecider
// true (spec.md 4.H: requires_pre_decider_check = RunNormalForward), since
// the dataset's own pre-decider pass happened out of band when it was built.
type FileProvider struct {
	reader    *FileReader
	batchSize int
	idStart   uint64
	idEnd     uint64
	idNext    uint64
	batchNo   int
}

// FileProviderConfig configures a FileProvider over an id half-open range
// [IDStart, IDEnd). A zero IDEnd defaults to the header's declared machine
// count.
type FileProviderConfig struct {
	BatchSize int
	IDStart   uint64
	IDEnd     uint64
}

// NewFileProvider builds a FileProvider from an already-opened FileReader.
func NewFileProvider(reader *FileReader, cfg FileProviderConfig) *FileProvider {
	idEnd := cfg.IDEnd
	if idEnd == 0 || idEnd > reader.header.NumUndecidedMachines {
		idEnd = reader.header.NumUndecidedMachines
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100_000
	}
	if avail := idEnd - cfg.IDStart; uint64(batchSize) > avail {
		batchSize = int(avail)
	}
	return &FileProvider{
		reader:    reader,
		batchSize: batchSize,
		idStart:   cfg.IDStart,
		idEnd:     idEnd,
		idNext:    cfg.IDStart,
	}
}

// NumMachines reports the size of the provider's configured id range.
func (p *FileProvider) NumMachines() uint64 { return p.idEnd - p.idStart }

// NumBatches reports the total batch count for this run.
func (p *FileProvider) NumBatches() int {
	if p.batchSize == 0 {
		return 0
	}
	return (int(p.NumMachines()) + p.batchSize - 1) / p.batchSize
}

// NextBatch reads the next sequential batch of machines. It returns an error
// only on a genuine I/O failure; reaching the end of the configured range
// sets IsLastBatch instead.
func (p *FileProvider) NextBatch() (Batch, error) {
	if p.idNext >= p.idEnd {
		return Batch{Index: p.batchNo, NumBatches: p.NumBatches(), IsLastBatch: true}, nil
	}

	end := p.idNext + uint64(p.batchSize)
	isLast := end >= p.idEnd
	if isLast {
		end = p.idEnd
	}
	count := int(end - p.idNext)

	machines, ids, err := p.reader.ReadMachineRange(p.idNext, count)
	if err != nil {
		return Batch{}, err
	}
	if len(machines) < count {
		// the file ended before the configured range did
		isLast = true
	}

	p.idNext += uint64(len(machines))
	batch := Batch{
		Machines:           machines,
		IDs:                ids,
		Index:              p.batchNo,
		NumBatches:         p.NumBatches(),
		RequiresPreDecider: true,
		IsLastBatch:        isLast,
	}
	p.batchNo++
	return batch, nil
}
