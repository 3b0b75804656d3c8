package engine

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the executor's structured-logging handle: batch lifecycle
// events at Info, decider-internal errors at Err. Grounded on
// logiface-stumpy/example_test.go's fluent builder usage.
type Logger = logiface.Logger[*stumpy.Event]

// NewLogger builds the default stumpy-backed logger.
func NewLogger() *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
	)
}

func logBatchClaimed(log *Logger, providerName string, batchIndex int, size int) {
	log.Info().
		Str(`provider`, providerName).
		Int(`batch_index`, batchIndex).
		Int(`batch_size`, size).
		Log(`batch claimed`)
}

func logBatchDecided(log *Logger, batchIndex int, evaluated, hold, undecided int) {
	log.Info().
		Int(`batch_index`, batchIndex).
		Int(`evaluated`, evaluated).
		Int(`hold`, hold).
		Int(`undecided`, undecided).
		Log(`batch decided`)
}

func logRunEnd(log *Logger, reason string) {
	log.Info().
		Str(`end_reason`, reason).
		Log(`run ended`)
}

func logSourceError(log *Logger, providerName string, err error) {
	log.Err().
		Str(`provider`, providerName).
		Err(err).
		Log(`data provider error`)
}
