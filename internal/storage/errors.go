package storage

import "errors"

// Errors shared by every SimulationStore and OutcomeStore backend.
var (
	// ErrNotFound means no run (or outcome population) is stored under the simulation ID.
	ErrNotFound = errors.New("simulation not found")

	// ErrDuplicateKey means the simulation ID is already stored. Runs and their outcome
	// populations are written once and never updated.
	ErrDuplicateKey = errors.New("simulation already stored")

	// ErrInvalidInput rejects nil results, empty IDs and outcome batches with repeated
	// iteration indexes.
	ErrInvalidInput = errors.New("invalid simulation record")
)
